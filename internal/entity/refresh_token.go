package entity

import (
	"time"
)

type RefreshToken struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`

	Token string `gorm:"type:varchar(64);uniqueIndex;not null"`

	ExpiresAt time.Time
	CreatedAt time.Time
}
