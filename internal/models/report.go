package models

import "time"

// ReportStatus is the moderation lifecycle state of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportResolved ReportStatus = "resolved"
	ReportRejected ReportStatus = "rejected"
)

// ReportModel is a user's flag against a content item. Reports reference
// content by polymorphic (id, type) and are not cascaded on hard delete,
// so reads must tolerate a missing reportable row.
type ReportModel struct {
	Base
	UserID          string             `json:"user_id"          gorm:"uniqueIndex:idx_report_once;not null"`
	User            *UserModel         `json:"user,omitempty"`
	ReportableID    string             `json:"reportable_id"    gorm:"uniqueIndex:idx_report_once;not null"`
	ReportableType  string             `json:"reportable_type"  gorm:"uniqueIndex:idx_report_once;size:20;not null"`
	ReportReasonID  string             `json:"report_reason_id" gorm:"index;not null"`
	Reason          *ReportReasonModel `json:"reason,omitempty" gorm:"foreignKey:ReportReasonID"`
	Status          ReportStatus       `json:"status"           gorm:"size:20;default:pending;index"`
	Preview         string             `json:"preview"          gorm:"type:text"`
	AdditionalNotes string             `json:"additional_notes" gorm:"type:text"`
	ReviewedBy      *string            `json:"reviewed_by"      gorm:"index"`
	Reviewer        *AdminModel        `json:"reviewer,omitempty" gorm:"foreignKey:ReviewedBy"`
	ReviewedAt      *time.Time         `json:"reviewed_at"`
}

func (ReportModel) TableName() string { return "reports" }

// ReportReasonModel is a static lookup of reasons a user can pick from.
type ReportReasonModel struct {
	Base
	Title       string `json:"title"       gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (ReportReasonModel) TableName() string { return "report_reasons" }
