package models

import "time"

// UserModel represents a platform member.
// Reputation is mutated only by the interaction ledger's threshold detector.
type UserModel struct {
	Base
	Username   string `json:"username"   gorm:"uniqueIndex;not null"`
	Email      string `json:"email"      gorm:"uniqueIndex;not null"`
	Password   string `json:"-"          gorm:"not null"`
	Biodata    string `json:"biodata"    gorm:"type:text"`
	Image      string `json:"image"`
	Reputation int    `json:"reputation" gorm:"default:0"`
	IsActive   bool   `json:"is_active"  gorm:"default:true"`
}

func (UserModel) TableName() string { return "users" }

// PrincipalType discriminates which table a session's principal lives in.
type PrincipalType string

const (
	PrincipalUser  PrincipalType = "user"
	PrincipalAdmin PrincipalType = "admin"
)

// UserSession tracks signed-in JWT sessions for users and admins.
// Abilities is a comma-separated capability list, only set for admin sessions.
type UserSession struct {
	Base
	PrincipalType PrincipalType `json:"principal_type" gorm:"index:idx_principal;not null"`
	PrincipalID   string        `json:"principal_id"   gorm:"index:idx_principal;not null"`
	Abilities     string        `json:"-"              gorm:"type:text"`
	IP            string        `json:"ip"`
	UA            string        `json:"ua"             gorm:"type:text"`
	ExpiresAt     time.Time     `json:"expires_at"     gorm:"index;not null"`
	RevokedAt     *time.Time    `json:"revoked_at"     gorm:"index"`
}

func (UserSession) TableName() string { return "user_sessions" }
