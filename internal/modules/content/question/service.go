package question

import (
	"errors"
	"strings"

	"github.com/askspace/core/internal/content"
	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errQuestionNotFound = errors.New("question not found")
	errNotOwner         = errors.New("not the question owner")
	errUnknownSubjects  = errors.New("subject id list contains unknown ids")
)

// Enqueuer starts the background tagging/embedding pass. Satisfied by
// *jobs.Runner.
type Enqueuer interface {
	QuestionCreated(questionID string) (string, error)
}

type Service struct {
	db       *gorm.DB
	enqueuer Enqueuer
	log      *zap.Logger
}

func NewService(db *gorm.DB, enqueuer Enqueuer, log *zap.Logger) *Service {
	return &Service{db: db, enqueuer: enqueuer, log: log}
}

// CreateDTO is the question create/update payload.
type CreateDTO struct {
	Title      string   `json:"title" binding:"required"`
	Question   string   `json:"question" binding:"required"`
	SubjectIDs []string `json:"subject_ids"`
}

// ListFilters narrows the question listing.
type ListFilters struct {
	SubjectID string
	UserID    string
	Search    string
}

func (s *Service) List(q pagination.Query, f ListFilters) ([]models.QuestionModel, response.Pagination, error) {
	tx := s.db.Model(&models.QuestionModel{}).
		Preload("User").Preload("Subjects").
		Order("questions.created_at DESC")

	if f.SubjectID != "" {
		tx = tx.Joins("JOIN question_subjects ON question_subjects.question_model_id = questions.id").
			Where("question_subjects.subject_model_id = ?", f.SubjectID)
	}
	if f.UserID != "" {
		tx = tx.Where("questions.user_id = ?", f.UserID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("LOWER(questions.title) LIKE ? OR LOWER(questions.question) LIKE ?", like, like)
	}

	var rows []models.QuestionModel
	pag, err := pagination.Paginate(tx, q, &rows)
	return rows, pag, err
}

func (s *Service) Get(id string) (*models.QuestionModel, error) {
	var q models.QuestionModel
	err := s.db.Preload("User").Preload("Subjects").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.verified DESC, answers.vote DESC")
		}).
		Preload("Answers.User").
		First(&q, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (s *Service) Create(userID string, dto *CreateDTO) (*models.QuestionModel, error) {
	subjects, err := s.resolveSubjects(dto.SubjectIDs)
	if err != nil {
		return nil, err
	}

	q := models.QuestionModel{
		UserID:   userID,
		Title:    strings.TrimSpace(dto.Title),
		Question: dto.Question,
		Subjects: subjects,
	}
	if err := s.db.Create(&q).Error; err != nil {
		return nil, err
	}

	if s.enqueuer != nil {
		if _, err := s.enqueuer.QuestionCreated(q.ID); err != nil {
			s.log.Warn("question ai enqueue failed",
				zap.String("question_id", q.ID),
				zap.Error(err),
			)
		}
	}
	return s.Get(q.ID)
}

func (s *Service) Update(userID, id string, dto *CreateDTO) (*models.QuestionModel, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if q.UserID != userID {
		return nil, errNotOwner
	}

	subjects, err := s.resolveSubjects(dto.SubjectIDs)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":    strings.TrimSpace(dto.Title),
		"question": dto.Question,
	}
	if err := s.db.Model(&models.QuestionModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	if dto.SubjectIDs != nil {
		if err := s.db.Model(q).Association("Subjects").Replace(subjects); err != nil {
			return nil, err
		}
	}
	return s.Get(id)
}

// Delete soft-deletes the caller's question.
func (s *Service) Delete(userID, id string) error {
	q, err := s.Get(id)
	if err != nil {
		return err
	}
	if q.UserID != userID {
		return errNotOwner
	}
	return s.db.Delete(&models.QuestionModel{}, "id = ?", id).Error
}

// Restore brings a soft-deleted question back.
func (s *Service) Restore(id string) (*models.QuestionModel, error) {
	res := s.db.Unscoped().Model(&models.QuestionModel{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errQuestionNotFound
	}
	return s.Get(id)
}

// ForceDelete permanently removes a question with its answers, comments and
// ledger rows. Reports reference by polymorphic id and are left orphaned.
func (s *Service) ForceDelete(id string) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var q models.QuestionModel
	if err := tx.Unscoped().First(&q, "id = ?", id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errQuestionNotFound
		}
		return err
	}

	var answerIDs []string
	if err := tx.Unscoped().Model(&models.AnswerModel{}).
		Where("question_id = ?", id).Pluck("id", &answerIDs).Error; err != nil {
		tx.Rollback()
		return err
	}

	for _, aid := range answerIDs {
		if err := purge(tx, content.KindAnswer, aid); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := purge(tx, content.KindQuestion, id); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.log.Info("question permanently deleted", zap.String("question_id", id))
	return nil
}

// purge hard-deletes one content row, its comments, and its vote/view rows.
func purge(tx *gorm.DB, kind content.Kind, id string) error {
	var commentIDs []string
	if err := tx.Unscoped().Model(&models.CommentModel{}).
		Where("commentable_id = ? AND commentable_type = ?", id, string(kind)).
		Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	for _, cid := range commentIDs {
		if err := purgeLedger(tx, content.KindComment, cid); err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&models.CommentModel{}, "id = ?", cid).Error; err != nil {
			return err
		}
	}

	if err := purgeLedger(tx, kind, id); err != nil {
		return err
	}

	switch kind {
	case content.KindQuestion:
		if err := tx.Exec("DELETE FROM question_subjects WHERE question_model_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.QuestionModel{}, "id = ?", id).Error
	case content.KindAnswer:
		return tx.Unscoped().Delete(&models.AnswerModel{}, "id = ?", id).Error
	}
	return content.ErrUnknownKind
}

func purgeLedger(tx *gorm.DB, kind content.Kind, id string) error {
	if err := tx.Where("votable_id = ? AND votable_type = ?", id, string(kind)).
		Delete(&models.VoteModel{}).Error; err != nil {
		return err
	}
	return tx.Where("viewable_id = ? AND viewable_type = ?", id, string(kind)).
		Delete(&models.ViewModel{}).Error
}

func (s *Service) resolveSubjects(ids []string) ([]models.SubjectModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var subjects []models.SubjectModel
	if err := s.db.Where("id IN ?", ids).Find(&subjects).Error; err != nil {
		return nil, err
	}
	if len(subjects) != len(ids) {
		return nil, errUnknownSubjects
	}
	return subjects, nil
}
