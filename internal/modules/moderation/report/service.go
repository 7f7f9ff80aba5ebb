package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/askspace/core/internal/content"
	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	previewLimit = 150

	// orphanPlaceholder is shown when the reported row was hard-deleted.
	orphanPlaceholder = "Content not available"
)

var (
	errContentNotFound  = errors.New("content not found")
	errReasonNotFound   = errors.New("report reason not found")
	errDuplicateReport  = errors.New("already reported")
	errReportNotFound   = errors.New("report not found")
	errAlreadyProcessed = errors.New("report already processed")
	errInvalidStatus    = errors.New("invalid target status")
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Create files a report against a content item. The preview snapshots the
// item's primary text at report time so moderation can still see what was
// flagged after edits or deletion.
func (s *Service) Create(userID string, dto *CreateReportDTO) (*models.ReportModel, error) {
	kind, err := content.ParseKind(dto.Type)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	item, err := content.Resolve(tx, kind, dto.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if item == nil {
		tx.Rollback()
		return nil, errContentNotFound
	}

	var reasonCount int64
	if err := tx.Model(&models.ReportReasonModel{}).Where("id = ?", dto.ReportReasonID).Count(&reasonCount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if reasonCount == 0 {
		tx.Rollback()
		return nil, errReasonNotFound
	}

	var existing int64
	if err := tx.Model(&models.ReportModel{}).
		Where("user_id = ? AND reportable_id = ? AND reportable_type = ?", userID, dto.ID, string(kind)).
		Count(&existing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if existing > 0 {
		tx.Rollback()
		return nil, errDuplicateReport
	}

	r := models.ReportModel{
		UserID:          userID,
		ReportableID:    dto.ID,
		ReportableType:  string(kind),
		ReportReasonID:  dto.ReportReasonID,
		Status:          models.ReportPending,
		Preview:         truncate(item.Text, previewLimit),
		AdditionalNotes: strings.TrimSpace(dto.AdditionalNotes),
	}
	if err := tx.Create(&r).Error; err != nil {
		tx.Rollback()
		if isDuplicateKey(err) {
			return nil, errDuplicateReport
		}
		return nil, err
	}

	if err := tx.Table(kind.Table()).Where("id = ?", dto.ID).
		UpdateColumn("report", gorm.Expr("report + 1")).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.log.Info("report filed",
		zap.String("report_id", r.ID),
		zap.String("type", string(kind)),
		zap.String("content_id", dto.ID),
		zap.String("reporter_id", userID),
	)
	return &r, nil
}

// Reasons returns the static reason lookup.
func (s *Service) Reasons() ([]models.ReportReasonModel, error) {
	var reasons []models.ReportReasonModel
	err := s.db.Order("created_at ASC").Find(&reasons).Error
	return reasons, err
}

// List returns the filtered, enriched admin report listing, newest first.
func (s *Service) List(q pagination.Query, f ListFilters) ([]View, response.Pagination, error) {
	tx := s.db.Model(&models.ReportModel{}).
		Preload("User").Preload("Reason").Preload("Reviewer").
		Order("reports.created_at DESC")

	if f.Type != "" {
		kind, err := content.ParseKind(f.Type)
		if err != nil {
			return nil, response.Pagination{}, err
		}
		tx = tx.Where("reports.reportable_type = ?", string(kind))
	}
	if f.Status != "" {
		tx = tx.Where("reports.status = ?", f.Status)
	}
	if f.ReasonID != "" {
		tx = tx.Where("reports.report_reason_id = ?", f.ReasonID)
	}
	if f.From != nil {
		tx = tx.Where("reports.created_at >= ?", *f.From)
	}
	if f.To != nil {
		tx = tx.Where("reports.created_at <= ?", *f.To)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.
			Joins("LEFT JOIN report_reasons ON report_reasons.id = reports.report_reason_id").
			Joins("LEFT JOIN users ON users.id = reports.user_id").
			Where("LOWER(report_reasons.title) LIKE ? OR LOWER(reports.preview) LIKE ? OR LOWER(users.username) LIKE ?",
				like, like, like)
	}

	var rows []models.ReportModel
	pag, err := pagination.Paginate(tx, q, &rows)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	now := time.Now()
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, s.enrich(&rows[i], now))
	}
	return views, pag, nil
}

// Process applies an admin decision to a pending report. Resolving takes the
// reported content down (soft delete); reviewed and rejected leave it up.
func (s *Service) Process(adminID, reportID string, dto *ProcessDTO) (*models.ReportModel, error) {
	status := models.ReportStatus(dto.Status)
	switch status {
	case models.ReportReviewed, models.ReportResolved, models.ReportRejected:
	default:
		return nil, errInvalidStatus
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var r models.ReportModel
	if err := tx.First(&r, "id = ?", reportID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errReportNotFound
		}
		return nil, err
	}
	if r.Status != models.ReportPending {
		tx.Rollback()
		return nil, errAlreadyProcessed
	}

	now := time.Now()
	r.Status = status
	r.ReviewedBy = &adminID
	r.ReviewedAt = &now
	if err := tx.Model(&models.ReportModel{}).Where("id = ?", r.ID).
		Updates(map[string]interface{}{
			"status":      r.Status,
			"reviewed_by": adminID,
			"reviewed_at": now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if status == models.ReportResolved {
		kind, err := content.ParseKind(r.ReportableType)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := content.SoftDelete(tx, kind, r.ReportableID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.log.Info("report processed",
		zap.String("report_id", r.ID),
		zap.String("admin_id", adminID),
		zap.String("status", string(status)),
	)
	return &r, nil
}

// ContentDetail resolves the reported content for the admin drilldown.
func (s *Service) ContentDetail(typ, id string) (*ContentView, error) {
	kind, err := content.ParseKind(typ)
	if err != nil {
		return nil, err
	}

	item, err := s.resolveAny(kind, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errContentNotFound
	}

	view := s.contentView(item)
	return &view, nil
}

// resolveAny resolves a content row including soft-deleted ones, so admins
// can inspect taken-down content.
func (s *Service) resolveAny(kind content.Kind, id string) (*content.Item, error) {
	return content.Resolve(s.db.Unscoped(), kind, id)
}

func (s *Service) enrich(r *models.ReportModel, now time.Time) View {
	v := View{
		ID:              r.ID,
		Status:          r.Status,
		Preview:         r.Preview,
		AdditionalNotes: r.AdditionalNotes,
		Reason:          r.Reason,
		CreatedAt:       r.CreatedAt,
		CreatedAgo:      relativeTime(r.CreatedAt, now),
		ReviewedAt:      r.ReviewedAt,
	}
	if r.ReviewedAt != nil {
		v.ReviewedAgo = relativeTime(*r.ReviewedAt, now)
	}
	if r.User != nil {
		v.Reporter = &ReporterView{ID: r.User.ID, Username: r.User.Username, Email: r.User.Email}
	}
	if r.Reviewer != nil {
		v.Reviewer = &ReporterView{ID: r.Reviewer.ID, Username: r.Reviewer.Name, Email: r.Reviewer.Email}
	}

	kind, err := content.ParseKind(r.ReportableType)
	if err != nil {
		v.Content = ContentView{Type: r.ReportableType, ID: r.ReportableID, Preview: orphanPlaceholder}
		return v
	}

	item, err := content.Resolve(s.db, kind, r.ReportableID)
	if err != nil || item == nil {
		v.Content = ContentView{Type: string(kind), ID: r.ReportableID, Preview: orphanPlaceholder}
		return v
	}
	v.Content = s.contentView(item)
	return v
}

func (s *Service) contentView(item *content.Item) ContentView {
	v := ContentView{
		Type:      string(item.Kind),
		ID:        item.ID,
		Preview:   truncate(item.Text, previewLimit),
		Link:      s.deepLink(item),
		Available: true,
	}

	if item.Kind == content.KindComment {
		if parent, err := content.Resolve(s.db, item.ParentKind, item.ParentID); err == nil && parent != nil {
			v.Parent = &ParentView{
				Type:    string(parent.Kind),
				ID:      parent.ID,
				Preview: truncate(parent.Text, previewLimit),
				Link:    s.deepLink(parent),
			}
		}
	}
	return v
}

// deepLink builds the frontend path for a content item. Answers and comments
// link into their enclosing question.
func (s *Service) deepLink(item *content.Item) string {
	switch item.Kind {
	case content.KindQuestion:
		return fmt.Sprintf("/questions/%s", item.ID)
	case content.KindAnswer:
		return fmt.Sprintf("/questions/%s#answer-%s", item.ParentID, item.ID)
	case content.KindComment:
		parent, err := content.Resolve(s.db, item.ParentKind, item.ParentID)
		if err != nil || parent == nil {
			return ""
		}
		if parent.Kind == content.KindQuestion {
			return fmt.Sprintf("/questions/%s#comment-%s", parent.ID, item.ID)
		}
		return fmt.Sprintf("/questions/%s#comment-%s", parent.ParentID, item.ID)
	}
	return ""
}

// truncate limits text to n runes, appending an ellipsis when cut.
func truncate(text string, n int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}

// relativeTime renders a coarse human-readable age.
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%d months ago", int(d.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%d years ago", int(d.Hours()/(24*365)))
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
