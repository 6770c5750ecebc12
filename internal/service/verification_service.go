package service

import (
	"context"
	"time"

	"edufolio/internal/entity"
	"edufolio/internal/repository"
	"edufolio/internal/utils"
)

// VerificationService manages the one-time email codes gating registration,
// password reset and profile-email changes. A target holds at most one live
// code per purpose; re-issuing supersedes, consuming or expiring deletes.
type VerificationService struct {
	users  repository.UserRepository
	codes  repository.EmailVerificationRepository
	emails EmailSender
	clock  Clock
	config AuthConfig
}

func NewVerificationService(
	users repository.UserRepository,
	codes repository.EmailVerificationRepository,
	emails EmailSender,
	clock Clock,
	config AuthConfig,
) *VerificationService {
	return &VerificationService{
		users:  users,
		codes:  codes,
		emails: emails,
		clock:  clock,
		config: config,
	}
}

// IssueCode creates a fresh code for (target, purpose) and mails it.
// userID is required for profile codes and ignored otherwise.
//
// For reset codes an unknown email returns success without creating
// anything, so the endpoint does not leak which accounts exist.
func (s *VerificationService) IssueCode(ctx context.Context, target string, purpose entity.VerificationPurpose, userID *uint) error {
	email := utils.NormalizeEmail(target)
	if email == "" {
		return ErrInvalidInput
	}

	switch purpose {
	case entity.PurposeRegister:
		existing, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
	case entity.PurposeReset:
		existing, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
	case entity.PurposeProfile:
		if userID == nil {
			return ErrInvalidInput
		}
		user, err := s.users.FindByID(ctx, *userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.Email == nil || *user.Email != email {
			owner, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return err
			}
			if owner != nil && owner.ID != user.ID {
				return ErrEmailTaken
			}
		}
	default:
		return ErrInvalidInput
	}

	if purpose == entity.PurposeProfile {
		if err := s.codes.DeleteByUser(ctx, *userID, purpose); err != nil {
			return err
		}
	} else {
		if err := s.codes.DeleteByEmail(ctx, email, purpose); err != nil {
			return err
		}
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return err
	}
	row := &entity.EmailVerification{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.codeTTL()),
	}
	if purpose == entity.PurposeProfile {
		row.UserID = userID
	}
	if err := s.codes.Create(ctx, row); err != nil {
		return err
	}

	// A failed send propagates: the caller has no other way to learn the
	// code never arrived.
	return s.emails.SendVerificationCode(ctx, email, code, purpose)
}

// ConsumeCodeByEmail validates and deletes a register or reset code. The
// same error covers "wrong code" and "no code requested".
func (s *VerificationService) ConsumeCodeByEmail(ctx context.Context, target string, purpose entity.VerificationPurpose, code string) (*entity.EmailVerification, error) {
	email := utils.NormalizeEmail(target)
	row, err := s.codes.FindByEmailAndCode(ctx, email, code, purpose)
	if err != nil {
		return nil, err
	}
	return s.consume(ctx, row)
}

// ConsumeCodeByUser validates and deletes a profile code.
func (s *VerificationService) ConsumeCodeByUser(ctx context.Context, userID uint, code string) (*entity.EmailVerification, error) {
	row, err := s.codes.FindByUserAndCode(ctx, userID, code, entity.PurposeProfile)
	if err != nil {
		return nil, err
	}
	return s.consume(ctx, row)
}

func (s *VerificationService) consume(ctx context.Context, row *entity.EmailVerification) (*entity.EmailVerification, error) {
	if row == nil {
		return nil, ErrInvalidCode
	}
	if row.ExpiresAt.Before(s.now()) {
		if err := s.codes.Delete(ctx, row.ID); err != nil {
			return nil, err
		}
		return nil, ErrCodeExpired
	}
	if err := s.codes.Delete(ctx, row.ID); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *VerificationService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *VerificationService) codeTTL() time.Duration {
	if s.config.VerificationCodeTTL > 0 {
		return s.config.VerificationCodeTTL
	}
	return 15 * time.Minute
}
