package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is the base model for all entities.
// ID is a UUID string, matching the identifiers the public API exposes.
type Base struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// SoftDeleteBase extends Base with a recoverable delete marker, used by
// user-generated content that admins can restore.
type SoftDeleteBase struct {
	Base
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
