package announcement

import (
	"errors"
	"strings"
	"time"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errNotFound      = errors.New("announcement not found")
	errInvalidStatus = errors.New("invalid announcement status")
)

// Notifier enqueues the broadcast email job. Satisfied by *jobs.Runner.
type Notifier interface {
	BroadcastAnnouncement(announcementID string) (string, error)
}

type Service struct {
	db       *gorm.DB
	notifier Notifier
	log      *zap.Logger
}

func NewService(db *gorm.DB, notifier Notifier, log *zap.Logger) *Service {
	return &Service{db: db, notifier: notifier, log: log}
}

// CreateDTO is the announcement create payload. SendEmail only has effect
// when the resulting status is published.
type CreateDTO struct {
	Title        string `json:"title" binding:"required"`
	Detail       string `json:"detail" binding:"required"`
	Status       string `json:"status"`
	DisplayOnWeb bool   `json:"display_on_web"`
	SendEmail    bool   `json:"send_email"`
}

// UpdateDTO additionally allows archiving.
type UpdateDTO struct {
	Title        string `json:"title" binding:"required"`
	Detail       string `json:"detail" binding:"required"`
	Status       string `json:"status"`
	DisplayOnWeb *bool  `json:"display_on_web"`
	SendEmail    bool   `json:"send_email"`
}

func (s *Service) List(q pagination.Query, status string) ([]models.AnnouncementModel, response.Pagination, error) {
	tx := s.db.Model(&models.AnnouncementModel{}).Preload("Admin").Order("created_at DESC")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var rows []models.AnnouncementModel
	pag, err := pagination.Paginate(tx, q, &rows)
	return rows, pag, err
}

// ListPublic returns published announcements flagged for the web, for the
// end-user surface.
func (s *Service) ListPublic(q pagination.Query) ([]models.AnnouncementModel, response.Pagination, error) {
	tx := s.db.Model(&models.AnnouncementModel{}).
		Where("status = ? AND display_on_web = ?", models.AnnouncementPublished, true).
		Order("published_at DESC")
	var rows []models.AnnouncementModel
	pag, err := pagination.Paginate(tx, q, &rows)
	return rows, pag, err
}

func (s *Service) Get(id string) (*models.AnnouncementModel, error) {
	var a models.AnnouncementModel
	if err := s.db.Preload("Admin").First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Service) Create(adminID string, dto *CreateDTO) (*models.AnnouncementModel, error) {
	status := models.AnnouncementStatus(dto.Status)
	if status == "" {
		status = models.AnnouncementDraft
	}
	if status != models.AnnouncementDraft && status != models.AnnouncementPublished {
		return nil, errInvalidStatus
	}

	a := models.AnnouncementModel{
		AdminID:      adminID,
		Title:        strings.TrimSpace(dto.Title),
		Detail:       dto.Detail,
		Status:       status,
		DisplayOnWeb: dto.DisplayOnWeb,
	}
	if status == models.AnnouncementPublished {
		now := time.Now()
		a.PublishedAt = &now
	}

	if err := s.db.Create(&a).Error; err != nil {
		return nil, err
	}

	s.maybeNotify(&a, dto.SendEmail)
	return &a, nil
}

func (s *Service) Update(id string, dto *UpdateDTO) (*models.AnnouncementModel, error) {
	a, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	status := models.AnnouncementStatus(dto.Status)
	if status == "" {
		status = a.Status
	}
	switch status {
	case models.AnnouncementDraft, models.AnnouncementPublished, models.AnnouncementArchived:
	default:
		return nil, errInvalidStatus
	}

	updates := map[string]interface{}{
		"title":  strings.TrimSpace(dto.Title),
		"detail": dto.Detail,
		"status": status,
	}
	if dto.DisplayOnWeb != nil {
		updates["display_on_web"] = *dto.DisplayOnWeb
	}
	// published_at marks the first publication only and is never restamped.
	if status == models.AnnouncementPublished && a.PublishedAt == nil {
		updates["published_at"] = time.Now()
	}

	if err := s.db.Model(&models.AnnouncementModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}

	a, err = s.Get(id)
	if err != nil {
		return nil, err
	}
	s.maybeNotify(a, dto.SendEmail)
	return a, nil
}

func (s *Service) Delete(id string) error {
	res := s.db.Delete(&models.AnnouncementModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

// maybeNotify enqueues the broadcast job when asked for on a published
// announcement. Repeated send_email updates re-enqueue and can notify users
// again; there is no notified_at gate.
func (s *Service) maybeNotify(a *models.AnnouncementModel, sendEmail bool) {
	if !sendEmail || a.Status != models.AnnouncementPublished || s.notifier == nil {
		return
	}
	taskID, err := s.notifier.BroadcastAnnouncement(a.ID)
	if err != nil {
		s.log.Error("broadcast enqueue failed",
			zap.String("announcement_id", a.ID),
			zap.Error(err),
		)
		return
	}
	s.log.Info("broadcast enqueued",
		zap.String("announcement_id", a.ID),
		zap.String("task_id", taskID),
	)
}
