package answer

import (
	"errors"

	"github.com/askspace/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errAnswerNotFound   = errors.New("answer not found")
	errQuestionNotFound = errors.New("question not found")
	errNotOwner         = errors.New("not the answer owner")
	errNotQuestionOwner = errors.New("not the question owner")
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// CreateDTO is the answer create/update payload.
type CreateDTO struct {
	Answer string `json:"answer" binding:"required"`
}

func (s *Service) Get(id string) (*models.AnswerModel, error) {
	var a models.AnswerModel
	if err := s.db.Preload("User").First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errAnswerNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Service) Create(userID, questionID string, dto *CreateDTO) (*models.AnswerModel, error) {
	var count int64
	if err := s.db.Model(&models.QuestionModel{}).Where("id = ?", questionID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errQuestionNotFound
	}

	a := models.AnswerModel{
		UserID:     userID,
		QuestionID: questionID,
		Answer:     dto.Answer,
	}
	if err := s.db.Create(&a).Error; err != nil {
		return nil, err
	}
	return s.Get(a.ID)
}

func (s *Service) Update(userID, id string, dto *CreateDTO) (*models.AnswerModel, error) {
	a, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, errNotOwner
	}

	if err := s.db.Model(&models.AnswerModel{}).Where("id = ?", id).
		Update("answer", dto.Answer).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *Service) Delete(userID, id string) error {
	a, err := s.Get(id)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return errNotOwner
	}
	return s.db.Delete(&models.AnswerModel{}, "id = ?", id).Error
}

// Verify marks an answer as the accepted one. Only the question owner may
// accept, and accepting one answer clears the mark on its siblings.
func (s *Service) Verify(userID, id string) (*models.AnswerModel, error) {
	a, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var q models.QuestionModel
	if err := s.db.First(&q, "id = ?", a.QuestionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errQuestionNotFound
		}
		return nil, err
	}
	if q.UserID != userID {
		return nil, errNotQuestionOwner
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

	if err := tx.Model(&models.AnswerModel{}).
		Where("question_id = ? AND verified = ?", a.QuestionID, true).
		Update("verified", false).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&models.AnswerModel{}).Where("id = ?", id).
		Update("verified", true).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.log.Info("answer accepted",
		zap.String("answer_id", id),
		zap.String("question_id", a.QuestionID),
	)
	return s.Get(id)
}

// Restore brings a soft-deleted answer back.
func (s *Service) Restore(id string) (*models.AnswerModel, error) {
	res := s.db.Unscoped().Model(&models.AnswerModel{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errAnswerNotFound
	}
	return s.Get(id)
}
