package models

// Vote polarity values stored in VoteModel.Type.
const (
	VoteUp   = 1
	VoteDown = -1
)

// VoteModel is an append-only record of a user's vote on a content item.
// The composite unique index is the authoritative one-vote-per-item guard;
// application-level existence checks are only an early exit.
type VoteModel struct {
	Base
	UserID      string `json:"user_id"      gorm:"uniqueIndex:idx_vote_once;not null"`
	VotableID   string `json:"votable_id"   gorm:"uniqueIndex:idx_vote_once;not null"`
	VotableType string `json:"votable_type" gorm:"uniqueIndex:idx_vote_once;size:20;not null"`
	Type        int    `json:"type"         gorm:"not null"`
}

func (VoteModel) TableName() string { return "votes" }

// ViewModel accumulates view events per (user, item). The item-level view
// counter only counts unique viewers; Total counts every repeat view.
type ViewModel struct {
	Base
	UserID       string `json:"user_id"       gorm:"uniqueIndex:idx_view_once;not null"`
	ViewableID   string `json:"viewable_id"   gorm:"uniqueIndex:idx_view_once;not null"`
	ViewableType string `json:"viewable_type" gorm:"uniqueIndex:idx_view_once;size:20;not null"`
	Total        int    `json:"total"         gorm:"default:1"`
}

func (ViewModel) TableName() string { return "views" }
