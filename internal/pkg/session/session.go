package session

import (
	"strings"
	"time"

	"github.com/askspace/core/internal/models"
	jwtpkg "github.com/askspace/core/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 30 * 24 * time.Hour

// Issue creates a DB session row and signs a JWT bound to it. Abilities is
// only meaningful for admin sessions, where it holds the role slugs.
func Issue(db *gorm.DB, pt models.PrincipalType, principalID string, abilities []string, ip, ua string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	s := &models.UserSession{
		PrincipalType: pt,
		PrincipalID:   principalID,
		Abilities:     strings.Join(abilities, ","),
		IP:            strings.TrimSpace(ip),
		UA:            strings.TrimSpace(ua),
		ExpiresAt:     now.Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}

	token, err := jwtpkg.Sign(principalID, ttl, jwtpkg.SignOptions{
		Kind:      string(pt),
		SessionID: s.ID,
		Abilities: abilities,
	})
	if err != nil {
		_ = db.Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

// IsActive reports whether the session backing a token is still valid.
func IsActive(db *gorm.DB, pt models.PrincipalType, principalID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	var count int64
	err := db.Model(&models.UserSession{}).
		Where("id = ? AND principal_type = ? AND principal_id = ? AND revoked_at IS NULL AND expires_at > ?",
			sessionID, pt, principalID, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Revoke marks a single session as revoked.
func Revoke(db *gorm.DB, pt models.PrincipalType, principalID, sessionID string) error {
	now := time.Now()
	res := db.Model(&models.UserSession{}).
		Where("id = ? AND principal_type = ? AND principal_id = ? AND revoked_at IS NULL", sessionID, pt, principalID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RevokeAll revokes every active session for a principal. Admin login calls
// this before issuing a new token to enforce the single-active-session policy.
func RevokeAll(db *gorm.DB, pt models.PrincipalType, principalID string) error {
	now := time.Now()
	return db.Model(&models.UserSession{}).
		Where("principal_type = ? AND principal_id = ? AND revoked_at IS NULL", pt, principalID).
		Update("revoked_at", &now).Error
}

// SweepExpired hard-deletes sessions past their expiry, returning the count.
func SweepExpired(db *gorm.DB) (int64, error) {
	res := db.Where("expires_at <= ?", time.Now()).Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}
