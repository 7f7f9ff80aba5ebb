package report

import (
	"time"

	"github.com/askspace/core/internal/models"
)

// CreateReportDTO is the end-user report payload.
type CreateReportDTO struct {
	Type            string `json:"type" binding:"required"`
	ID              string `json:"id" binding:"required"`
	ReportReasonID  string `json:"report_reason_id" binding:"required"`
	AdditionalNotes string `json:"additional_notes"`
}

// ProcessDTO is the admin moderation action payload.
type ProcessDTO struct {
	// Status is the target state: reviewed, resolved or rejected.
	// Resolving a report also takes down the reported content.
	Status string `json:"status" binding:"required"`
}

// ListFilters narrows the admin report listing.
type ListFilters struct {
	Type     string
	Search   string
	Status   string
	ReasonID string
	From     *time.Time
	To       *time.Time
}

// ReporterView is the reporter identity embedded in a listing row.
type ReporterView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ContentView describes the reported content as resolved at read time.
type ContentView struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Preview   string `json:"preview"`
	Link      string `json:"link,omitempty"`
	Available bool   `json:"available"`
	// Parent summarizes the enclosing question/answer for comments.
	Parent *ParentView `json:"parent,omitempty"`
}

// ParentView summarizes the content a comment was left on.
type ParentView struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Preview string `json:"preview"`
	Link    string `json:"link,omitempty"`
}

// View is one enriched row of the admin report listing.
type View struct {
	ID              string                    `json:"id"`
	Status          models.ReportStatus       `json:"status"`
	Preview         string                    `json:"preview"`
	AdditionalNotes string                    `json:"additional_notes,omitempty"`
	Reason          *models.ReportReasonModel `json:"reason,omitempty"`
	Reporter        *ReporterView             `json:"reporter,omitempty"`
	Content         ContentView               `json:"content"`
	Reviewer        *ReporterView             `json:"reviewer,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	CreatedAgo      string                    `json:"created_ago"`
	ReviewedAt      *time.Time                `json:"reviewed_at,omitempty"`
	ReviewedAgo     string                    `json:"reviewed_ago,omitempty"`
}
