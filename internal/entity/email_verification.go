package entity

import (
	"time"
)

type VerificationPurpose string

const (
	PurposeRegister VerificationPurpose = "register"
	PurposeReset    VerificationPurpose = "reset"
	PurposeProfile  VerificationPurpose = "profile"
)

type EmailVerification struct {
	ID uint `gorm:"primaryKey"`

	Email   string              `gorm:"type:varchar(255);not null;index:idx_verification_target"`
	Code    string              `gorm:"type:varchar(6);not null"`
	Purpose VerificationPurpose `gorm:"type:varchar(16);not null;index:idx_verification_target"`

	// Set for profile-change codes; register and reset codes are addressed
	// by email only since no authenticated user is involved.
	UserID *uint `gorm:"index"`

	ExpiresAt time.Time
	CreatedAt time.Time
}
