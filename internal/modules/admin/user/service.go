package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/mail"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errUserNotFound   = errors.New("user not found")
	errAlreadyBlocked = errors.New("user already blocked")
	errNotBlocked     = errors.New("user not blocked")
)

// Mailer sends account status notices. Satisfied by *mail.Sender.
type Mailer interface {
	SendAccountNotice(to string, data mail.AccountNoticeData) error
}

type Service struct {
	db     *gorm.DB
	mailer Mailer
	log    *zap.Logger
}

func NewService(db *gorm.DB, mailer Mailer, log *zap.Logger) *Service {
	return &Service{db: db, mailer: mailer, log: log}
}

// BlockDTO optionally bounds a block in time. A nil end time blocks
// indefinitely.
type BlockDTO struct {
	EndTime *time.Time `json:"end_time"`
}

// ListFilters narrows the admin user listing.
type ListFilters struct {
	Search string
	Status string // "", "active", "blocked"
}

// UserView is one row of the admin user listing.
type UserView struct {
	models.UserModel
	Blocked bool `json:"blocked"`
}

// ActivityView summarizes a user's contribution footprint.
type ActivityView struct {
	User       *models.UserModel `json:"user"`
	Questions  int64             `json:"questions"`
	Answers    int64             `json:"answers"`
	Comments   int64             `json:"comments"`
	Votes      int64             `json:"votes"`
	Reports    int64             `json:"reports"`
	Blocked    bool              `json:"blocked"`
	BlockCount int64             `json:"block_count"`
}

func (s *Service) List(q pagination.Query, f ListFilters) ([]UserView, response.Pagination, error) {
	tx := s.db.Model(&models.UserModel{}).Order("created_at DESC")

	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	activeBlock := s.db.Model(&models.BlockModel{}).
		Select("1").
		Where("blocks.blocked_user_id = users.id AND blocks.unblocker_id IS NULL AND (blocks.end_time IS NULL OR blocks.end_time > ?)", time.Now())

	switch f.Status {
	case "blocked":
		tx = tx.Where("EXISTS (?)", activeBlock)
	case "active":
		tx = tx.Where("NOT EXISTS (?)", activeBlock)
	}

	var users []models.UserModel
	pag, err := pagination.Paginate(tx, q, &users)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		blocked, err := s.isBlocked(u.ID)
		if err != nil {
			return nil, response.Pagination{}, err
		}
		views = append(views, UserView{UserModel: u, Blocked: blocked})
	}
	return views, pag, nil
}

// Activity returns the contribution summary shown on the admin user page.
func (s *Service) Activity(userID string) (*ActivityView, error) {
	u, err := s.get(userID)
	if err != nil {
		return nil, err
	}

	v := ActivityView{User: u}
	counts := []struct {
		dest  *int64
		model interface{}
		where string
	}{
		{&v.Questions, &models.QuestionModel{}, "user_id = ?"},
		{&v.Answers, &models.AnswerModel{}, "user_id = ?"},
		{&v.Comments, &models.CommentModel{}, "user_id = ?"},
		{&v.Votes, &models.VoteModel{}, "user_id = ?"},
		{&v.Reports, &models.ReportModel{}, "user_id = ?"},
		{&v.BlockCount, &models.BlockModel{}, "blocked_user_id = ?"},
	}
	for _, cq := range counts {
		if err := s.db.Model(cq.model).Where(cq.where, userID).Count(cq.dest).Error; err != nil {
			return nil, err
		}
	}

	v.Blocked, err = s.isBlocked(userID)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Block opens a block against the user. Fails if an active block exists.
func (s *Service) Block(adminID, userID string, dto *BlockDTO) (*models.BlockModel, error) {
	u, err := s.get(userID)
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

	var open int64
	if err := tx.Model(&models.BlockModel{}).
		Where("blocked_user_id = ? AND unblocker_id IS NULL", userID).
		Count(&open).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if open > 0 {
		tx.Rollback()
		return nil, errAlreadyBlocked
	}

	b := models.BlockModel{
		BlockerID:     adminID,
		BlockedUserID: userID,
		EndTime:       dto.EndTime,
	}
	if err := tx.Create(&b).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.log.Info("user blocked",
		zap.String("user_id", userID),
		zap.String("admin_id", adminID),
	)
	go s.notify(u, "Your account has been suspended",
		blockNoticeBody(dto.EndTime))
	return &b, nil
}

// Unblock closes the user's active block by stamping the acting admin on it.
func (s *Service) Unblock(adminID, userID string) (*models.BlockModel, error) {
	u, err := s.get(userID)
	if err != nil {
		return nil, err
	}

	var b models.BlockModel
	err = s.db.Where("blocked_user_id = ? AND unblocker_id IS NULL", userID).
		Order("created_at DESC").First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotBlocked
		}
		return nil, err
	}

	if err := s.db.Model(&b).Update("unblocker_id", adminID).Error; err != nil {
		return nil, err
	}
	b.UnblockerID = &adminID

	s.log.Info("user unblocked",
		zap.String("user_id", userID),
		zap.String("admin_id", adminID),
	)
	go s.notify(u, "Your account has been restored",
		"Your account is active again and you can participate in the community.")
	return &b, nil
}

// isBlocked reports whether the user has an open block that has not expired.
func (s *Service) isBlocked(userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.BlockModel{}).
		Where("blocked_user_id = ? AND unblocker_id IS NULL AND (end_time IS NULL OR end_time > ?)", userID, time.Now()).
		Count(&count).Error
	return count > 0, err
}

func (s *Service) get(userID string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) notify(u *models.UserModel, heading, body string) {
	if s.mailer == nil {
		return
	}
	err := s.mailer.SendAccountNotice(u.Email, mail.AccountNoticeData{
		Recipient: u.Username,
		Heading:   heading,
		Body:      body,
	})
	if err != nil {
		s.log.Warn("account notice failed",
			zap.String("user_id", u.ID),
			zap.Error(err),
		)
	}
}

func blockNoticeBody(end *time.Time) string {
	if end == nil {
		return "Your account has been suspended by a moderator. You will not be able to post, answer or comment until the suspension is lifted."
	}
	return fmt.Sprintf("Your account has been suspended by a moderator until %s.", end.Format("January 2, 2006"))
}
