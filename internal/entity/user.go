package entity

import (
	"time"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Username     string   `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string   `gorm:"type:text;not null"`
	Role         UserRole `gorm:"type:varchar(16);default:'user';not null"`

	FullName *string `gorm:"type:varchar(255)"`
	Email    *string `gorm:"type:varchar(255);uniqueIndex"`

	CreatedAt time.Time
	UpdatedAt time.Time

	RefreshTokens []RefreshToken
}
