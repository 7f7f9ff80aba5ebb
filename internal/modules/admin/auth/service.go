package auth

import (
	"crypto/subtle"
	"errors"

	"github.com/askspace/core/internal/models"
	sessionpkg "github.com/askspace/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errBadSecret       = errors.New("invalid socialite secret")
	errNotAnAdmin      = errors.New("not an admin")
	errNoRolesAssigned = errors.New("no roles assigned")
)

type Service struct {
	db *gorm.DB
	// socialiteSecret is the shared secret the identity provider presents.
	socialiteSecret string
	log             *zap.Logger
}

func NewService(db *gorm.DB, socialiteSecret string, log *zap.Logger) *Service {
	return &Service{db: db, socialiteSecret: socialiteSecret, log: log}
}

// LoginResult is the issued capability token plus the admin it belongs to.
type LoginResult struct {
	Token     string             `json:"token"`
	Admin     *models.AdminModel `json:"admin"`
	Abilities []string           `json:"abilities"`
}

// SocialiteLogin exchanges an identity-provider-confirmed email for a
// capability token. There is no password check on this path; the upstream
// provider is authoritative for identity. Being a platform user is not
// enough: the email must be provisioned in the admins table and carry at
// least one role. All prior sessions are revoked so only one admin session
// is ever active.
func (s *Service) SocialiteLogin(secret, email, ip, ua string) (*LoginResult, error) {
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.socialiteSecret)) != 1 {
		return nil, errBadSecret
	}

	var admin models.AdminModel
	err := s.db.Preload("Roles").First(&admin, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotAnAdmin
		}
		return nil, err
	}
	if len(admin.Roles) == 0 {
		return nil, errNoRolesAssigned
	}

	abilities := make([]string, 0, len(admin.Roles))
	for _, r := range admin.Roles {
		abilities = append(abilities, r.Slug)
	}

	if err := sessionpkg.RevokeAll(s.db, models.PrincipalAdmin, admin.ID); err != nil {
		return nil, err
	}

	token, _, err := sessionpkg.Issue(s.db, models.PrincipalAdmin, admin.ID, abilities, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("admin signed in",
		zap.String("admin_id", admin.ID),
		zap.Strings("abilities", abilities),
	)
	return &LoginResult{Token: token, Admin: &admin, Abilities: abilities}, nil
}

// Logout revokes the current admin session.
func (s *Service) Logout(adminID, sessionID string) error {
	return sessionpkg.Revoke(s.db, models.PrincipalAdmin, adminID, sessionID)
}

// Me loads the authenticated admin with roles.
func (s *Service) Me(adminID string) (*models.AdminModel, error) {
	var admin models.AdminModel
	if err := s.db.Preload("Roles").First(&admin, "id = ?", adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}
