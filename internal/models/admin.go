package models

import "time"

// AdminModel is a provisioned back-office account. Admin identity is
// confirmed by an upstream identity provider; Password is only kept for the
// manual login fallback.
type AdminModel struct {
	Base
	Name     string      `json:"name"  gorm:"not null"`
	Email    string      `json:"email" gorm:"uniqueIndex;not null"`
	Password string      `json:"-"`
	Roles    []RoleModel `json:"roles,omitempty" gorm:"many2many:admin_role;"`
}

func (AdminModel) TableName() string { return "admins" }

// SuperAdminSlug names the protected system role. It cannot be edited or
// deleted, and its slug passes every capability gate.
const SuperAdminSlug = "super-admin"

// RoleModel is a named capability bundle. Slug doubles as the capability
// string carried in admin tokens.
type RoleModel struct {
	Base
	Name        string       `json:"name"        gorm:"uniqueIndex;not null"`
	Slug        string       `json:"slug"        gorm:"uniqueIndex;not null"`
	Description string       `json:"description" gorm:"type:text"`
	Admins      []AdminModel `json:"admins,omitempty" gorm:"many2many:admin_role;"`
}

func (RoleModel) TableName() string { return "roles" }

// BlockModel records one block action against a user. A block is active while
// UnblockerID is null and EndTime (if set) has not passed; unblocking fills in
// UnblockerID on the same row instead of deleting it.
type BlockModel struct {
	Base
	BlockerID     string      `json:"blocker_id"      gorm:"index;not null"`
	Blocker       *AdminModel `json:"blocker,omitempty" gorm:"foreignKey:BlockerID"`
	UnblockerID   *string     `json:"unblocker_id"    gorm:"index"`
	Unblocker     *AdminModel `json:"unblocker,omitempty" gorm:"foreignKey:UnblockerID"`
	BlockedUserID string      `json:"blocked_user_id" gorm:"index;not null"`
	BlockedUser   *UserModel  `json:"blocked_user,omitempty" gorm:"foreignKey:BlockedUserID"`
	EndTime       *time.Time  `json:"end_time"`
}

func (BlockModel) TableName() string { return "blocks" }
