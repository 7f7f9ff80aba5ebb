package models

import "time"

// AnnouncementStatus is the publication state of an announcement.
type AnnouncementStatus string

const (
	AnnouncementDraft     AnnouncementStatus = "draft"
	AnnouncementPublished AnnouncementStatus = "published"
	AnnouncementArchived  AnnouncementStatus = "archived"
)

// AnnouncementModel is an admin-authored broadcast. PublishedAt is stamped at
// the first transition into published and never restamped; NotifiedAt is
// stamped after the email fan-out job finishes its dispatch loop.
type AnnouncementModel struct {
	Base
	AdminID      string             `json:"admin_id" gorm:"index;not null"`
	Admin        *AdminModel        `json:"admin,omitempty"`
	Title        string             `json:"title"    gorm:"not null"`
	Detail       string             `json:"detail"   gorm:"type:text;not null"`
	Status       AnnouncementStatus `json:"status"   gorm:"size:20;default:draft;index"`
	DisplayOnWeb bool               `json:"display_on_web" gorm:"default:false"`
	PublishedAt  *time.Time         `json:"published_at"`
	NotifiedAt   *time.Time         `json:"notified_at"`
}

func (AnnouncementModel) TableName() string { return "announcements" }
