package entity

import (
	"time"

	"gorm.io/datatypes"
)

type AuthAction string

const (
	LoginSuccess  AuthAction = "login_success"
	LoginFailed   AuthAction = "login_failed"
	Logout        AuthAction = "logout"
	PasswordReset AuthAction = "password_reset"
	RoleChanged   AuthAction = "role_changed"
	CodeIssued    AuthAction = "code_issued"
)

type AuthEvent struct {
	ID uint `gorm:"primaryKey"`

	UserID *uint `gorm:"index"`
	User   *User `gorm:"constraint:OnDelete:SET NULL"`

	IPAddress *string    `gorm:"type:varchar(45)"`
	Action    AuthAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
