package repository

import (
	"context"
	"errors"

	"edufolio/internal/entity"

	"gorm.io/gorm"
)

type EmailVerificationRepository interface {
	Create(ctx context.Context, v *entity.EmailVerification) error
	FindByEmailAndCode(ctx context.Context, email, code string, purpose entity.VerificationPurpose) (*entity.EmailVerification, error)
	FindByUserAndCode(ctx context.Context, userID uint, code string, purpose entity.VerificationPurpose) (*entity.EmailVerification, error)
	Delete(ctx context.Context, id uint) error
	DeleteByEmail(ctx context.Context, email string, purpose entity.VerificationPurpose) error
	DeleteByUser(ctx context.Context, userID uint, purpose entity.VerificationPurpose) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type emailVerificationRepository struct {
	db *gorm.DB
}

func NewEmailVerificationRepository(db *gorm.DB) EmailVerificationRepository {
	return &emailVerificationRepository{db: db}
}

func (r *emailVerificationRepository) Create(ctx context.Context, v *entity.EmailVerification) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *emailVerificationRepository) FindByEmailAndCode(
	ctx context.Context,
	email, code string,
	purpose entity.VerificationPurpose,
) (*entity.EmailVerification, error) {

	var row entity.EmailVerification
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ? AND purpose = ?", email, code, purpose).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &row, err
}

func (r *emailVerificationRepository) FindByUserAndCode(
	ctx context.Context,
	userID uint,
	code string,
	purpose entity.VerificationPurpose,
) (*entity.EmailVerification, error) {

	var row entity.EmailVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND purpose = ?", userID, code, purpose).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &row, err
}

func (r *emailVerificationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.EmailVerification{}).
		Error
}

func (r *emailVerificationRepository) DeleteByEmail(ctx context.Context, email string, purpose entity.VerificationPurpose) error {
	return r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&entity.EmailVerification{}).
		Error
}

func (r *emailVerificationRepository) DeleteByUser(ctx context.Context, userID uint, purpose entity.VerificationPurpose) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Delete(&entity.EmailVerification{}).
		Error
}

func (r *emailVerificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < NOW()").
		Delete(&entity.EmailVerification{})
	return result.RowsAffected, result.Error
}
