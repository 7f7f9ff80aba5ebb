package comment

import (
	"errors"

	"github.com/askspace/core/internal/content"
	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errCommentNotFound = errors.New("comment not found")
	errParentNotFound  = errors.New("commented content not found")
	errNotCommentable  = errors.New("content cannot be commented on")
	errNotOwner        = errors.New("not the comment owner")
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// CreateDTO is the comment create payload. Type and ID locate the question
// or answer being commented on.
type CreateDTO struct {
	Type    string `json:"type" binding:"required"`
	ID      string `json:"id" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// UpdateDTO edits the body only.
type UpdateDTO struct {
	Comment string `json:"comment" binding:"required"`
}

// ListFor returns comments under a question or answer, oldest first.
func (s *Service) ListFor(q pagination.Query, typ, id string) ([]models.CommentModel, response.Pagination, error) {
	kind, err := parseParentKind(typ)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	tx := s.db.Model(&models.CommentModel{}).
		Preload("User").
		Where("commentable_id = ? AND commentable_type = ?", id, string(kind)).
		Order("created_at ASC")

	var rows []models.CommentModel
	pag, err := pagination.Paginate(tx, q, &rows)
	return rows, pag, err
}

func (s *Service) Create(userID string, dto *CreateDTO) (*models.CommentModel, error) {
	kind, err := parseParentKind(dto.Type)
	if err != nil {
		return nil, err
	}

	parent, err := content.Resolve(s.db, kind, dto.ID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, errParentNotFound
	}

	cm := models.CommentModel{
		UserID:          userID,
		CommentableID:   dto.ID,
		CommentableType: string(kind),
		Comment:         dto.Comment,
	}
	if err := s.db.Create(&cm).Error; err != nil {
		return nil, err
	}
	return s.Get(cm.ID)
}

func (s *Service) Get(id string) (*models.CommentModel, error) {
	var cm models.CommentModel
	if err := s.db.Preload("User").First(&cm, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCommentNotFound
		}
		return nil, err
	}
	return &cm, nil
}

func (s *Service) Update(userID, id string, dto *UpdateDTO) (*models.CommentModel, error) {
	cm, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if cm.UserID != userID {
		return nil, errNotOwner
	}

	if err := s.db.Model(&models.CommentModel{}).Where("id = ?", id).
		Update("comment", dto.Comment).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *Service) Delete(userID, id string) error {
	cm, err := s.Get(id)
	if err != nil {
		return err
	}
	if cm.UserID != userID {
		return errNotOwner
	}
	return s.db.Delete(&models.CommentModel{}, "id = ?", id).Error
}

// Restore brings a soft-deleted comment back.
func (s *Service) Restore(id string) (*models.CommentModel, error) {
	res := s.db.Unscoped().Model(&models.CommentModel{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errCommentNotFound
	}
	return s.Get(id)
}

// parseParentKind accepts only the kinds a comment can attach to.
func parseParentKind(typ string) (content.Kind, error) {
	kind, err := content.ParseKind(typ)
	if err != nil {
		return "", err
	}
	if kind == content.KindComment {
		return "", errNotCommentable
	}
	return kind, nil
}
