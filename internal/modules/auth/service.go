package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/modules/ai"
	sessionpkg "github.com/askspace/core/internal/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errEmailTaken         = errors.New("email already registered")
	errUsernameTaken      = errors.New("username already taken")
	errInvalidCredentials = errors.New("invalid credentials")
	errUserNotFound       = errors.New("user not found")
)

const recommendationTimeout = 5 * time.Second

// Recommender fetches personalized suggestions. Satisfied by *ai.Client.
type Recommender interface {
	Recommendations(ctx context.Context, userID string) ([]ai.Recommendation, error)
}

type Service struct {
	db          *gorm.DB
	recommender Recommender
	log         *zap.Logger
}

func NewService(db *gorm.DB, recommender Recommender, log *zap.Logger) *Service {
	return &Service{db: db, recommender: recommender, log: log}
}

// RegisterDTO is the signup payload.
type RegisterDTO struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Biodata  string `json:"biodata"`
}

// LoginDTO is the signin payload.
type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is the issued token plus the signed-in user.
type LoginResult struct {
	Token string            `json:"token"`
	User  *models.UserModel `json:"user"`
}

func (s *Service) Register(dto *RegisterDTO, ip, ua string) (*LoginResult, error) {
	username := strings.TrimSpace(dto.Username)
	email := strings.ToLower(strings.TrimSpace(dto.Email))

	var count int64
	if err := s.db.Model(&models.UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errEmailTaken
	}
	if err := s.db.Model(&models.UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := models.UserModel{
		Username: username,
		Email:    email,
		Password: string(hash),
		Biodata:  strings.TrimSpace(dto.Biodata),
		IsActive: true,
	}
	if err := s.db.Create(&u).Error; err != nil {
		return nil, err
	}

	token, _, err := sessionpkg.Issue(s.db, models.PrincipalUser, u.ID, nil, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", u.ID))
	return &LoginResult{Token: token, User: &u}, nil
}

// Login verifies credentials and issues a session. Unlike admin sign-in,
// prior user sessions stay valid.
func (s *Service) Login(dto *LoginDTO, ip, ua string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))

	var u models.UserModel
	if err := s.db.First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)) != nil {
		return nil, errInvalidCredentials
	}

	token, _, err := sessionpkg.Issue(s.db, models.PrincipalUser, u.ID, nil, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: &u}, nil
}

func (s *Service) Logout(userID, sessionID string) error {
	return sessionpkg.Revoke(s.db, models.PrincipalUser, userID, sessionID)
}

func (s *Service) Me(userID string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Recommendations asks the AI collaborator for suggestions, degrading to an
// empty set when the service is down or disabled.
func (s *Service) Recommendations(ctx context.Context, userID string) []ai.Recommendation {
	if s.recommender == nil {
		return []ai.Recommendation{}
	}

	ctx, cancel := context.WithTimeout(ctx, recommendationTimeout)
	defer cancel()

	items, err := s.recommender.Recommendations(ctx, userID)
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			s.log.Warn("recommendations unavailable",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		return []ai.Recommendation{}
	}
	if items == nil {
		items = []ai.Recommendation{}
	}
	return items
}
