package service

import (
	"context"
	"encoding/json"
	"strings"

	"edufolio/internal/entity"
	"edufolio/internal/repository"
	"edufolio/internal/utils"

	"gorm.io/datatypes"
)

// Compared against when the username is unknown so login timing does not
// reveal which usernames exist.
const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type RegisterInput struct {
	Username string
	Password string
	Email    *string
}

type ProfileUpdate struct {
	FullName *string
	Email    *string
}

type VerifiedProfileUpdate struct {
	FullName    *string
	NewPassword *string
}

// AuthService is the single entry point for the identity surface: login,
// registration (direct and code-verified), password reset, profile
// management, token refresh/revocation and the admin user operations.
type AuthService struct {
	users  repository.UserRepository
	events repository.AuthEventRepository

	tokens        *TokenService
	verifications *VerificationService
	passwordHash  PasswordHasher
}

func NewAuthService(
	users repository.UserRepository,
	events repository.AuthEventRepository,
	tokens *TokenService,
	verifications *VerificationService,
	passwordHash PasswordHasher,
) *AuthService {
	return &AuthService{
		users:         users,
		events:        events,
		tokens:        tokens,
		verifications: verifications,
		passwordHash:  passwordHash,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string, ipAddress *string) (*entity.User, *TokenPair, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, nil, ErrInvalidInput
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, password)
		_ = s.logEvent(ctx, nil, ipAddress, entity.LoginFailed, map[string]any{"username": username})
		return nil, nil, ErrWrongCredentials
	}
	if !s.passwordHash.Verify(user.PasswordHash, password) {
		_ = s.logEvent(ctx, &user.ID, ipAddress, entity.LoginFailed, nil)
		return nil, nil, ErrWrongCredentials
	}

	pair, err := s.tokens.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	_ = s.logEvent(ctx, &user.ID, ipAddress, entity.LoginSuccess, nil)
	return user, pair, nil
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*entity.User, *TokenPair, error) {
	if strings.TrimSpace(input.Username) == "" || strings.TrimSpace(input.Password) == "" {
		return nil, nil, ErrInvalidInput
	}

	existing, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrUsernameTaken
	}

	var email *string
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		normalized := utils.NormalizeEmail(*input.Email)
		owner, err := s.users.FindByEmail(ctx, normalized)
		if err != nil {
			return nil, nil, err
		}
		if owner != nil {
			return nil, nil, ErrEmailTaken
		}
		email = &normalized
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &entity.User{
		Username:     input.Username,
		PasswordHash: hash,
		Role:         entity.UserRoleUser,
		Email:        email,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) SendRegisterCode(ctx context.Context, email string) error {
	if err := s.verifications.IssueCode(ctx, email, entity.PurposeRegister, nil); err != nil {
		return err
	}
	_ = s.logEvent(ctx, nil, nil, entity.CodeIssued, map[string]any{"purpose": entity.PurposeRegister})
	return nil
}

// VerifyAndRegister consumes a register code and creates the account with
// the verified email as both login and email.
func (s *AuthService) VerifyAndRegister(ctx context.Context, email, code, password string) (*entity.User, *TokenPair, error) {
	row, err := s.verifications.ConsumeCodeByEmail(ctx, email, entity.PurposeRegister, code)
	if err != nil {
		return nil, nil, err
	}
	verified := row.Email
	return s.Register(ctx, RegisterInput{
		Username: verified,
		Password: password,
		Email:    &verified,
	})
}

func (s *AuthService) SendResetCode(ctx context.Context, email string) error {
	return s.verifications.IssueCode(ctx, email, entity.PurposeReset, nil)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrInvalidInput
	}
	row, err := s.verifications.ConsumeCodeByEmail(ctx, email, entity.PurposeReset, code)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, row.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	_ = s.logEvent(ctx, &user.ID, nil, entity.PasswordReset, nil)
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AccessGrant, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidRefreshToken
	}
	return s.tokens.RefreshAccessToken(ctx, refreshToken)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string, userID *uint, ipAddress *string) error {
	if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		return err
	}
	_ = s.logEvent(ctx, userID, ipAddress, entity.Logout, nil)
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, userID uint, ipAddress *string) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	_ = s.logEvent(ctx, &userID, ipAddress, entity.Logout, map[string]any{"scope": "all"})
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile is the direct, unverified profile path. It may change the
// email without a code but never touches the login name.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, change ProfileUpdate) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if change.Email != nil && strings.TrimSpace(*change.Email) != "" {
		normalized := utils.NormalizeEmail(*change.Email)
		if user.Email == nil || *user.Email != normalized {
			owner, err := s.users.FindByEmail(ctx, normalized)
			if err != nil {
				return nil, err
			}
			if owner != nil && owner.ID != user.ID {
				return nil, ErrEmailTaken
			}
		}
		user.Email = &normalized
	}
	if change.FullName != nil {
		user.FullName = change.FullName
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) SendProfileCode(ctx context.Context, userID uint, email string) error {
	return s.verifications.IssueCode(ctx, email, entity.PurposeProfile, &userID)
}

// VerifyProfileUpdate consumes a profile code and applies the change set.
// The verified email becomes the user's email, and also the login name
// unless another account already uses it as one; in that case nothing is
// applied.
func (s *AuthService) VerifyProfileUpdate(ctx context.Context, userID uint, code string, change VerifiedProfileUpdate) (*entity.User, error) {
	row, err := s.verifications.ConsumeCodeByUser(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	verified := row.Email
	if verified != user.Username {
		owner, err := s.users.FindByUsername(ctx, verified)
		if err != nil {
			return nil, err
		}
		if owner != nil && owner.ID != user.ID {
			return nil, ErrEmailLoginTaken
		}
	}

	if change.FullName != nil {
		user.FullName = change.FullName
	}
	user.Email = &verified
	if verified != user.Username {
		user.Username = verified
	}
	if change.NewPassword != nil && strings.TrimSpace(*change.NewPassword) != "" {
		hash, err := s.passwordHash.Hash(*change.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetAllUsers(ctx context.Context) ([]entity.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) UpdateUserRole(ctx context.Context, userID uint, role entity.UserRole) (*entity.User, error) {
	if role != entity.UserRoleUser && role != entity.UserRoleAdmin {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	_ = s.logEvent(ctx, &user.ID, nil, entity.RoleChanged, map[string]any{"role": role})
	return user, nil
}

func (s *AuthService) logEvent(
	ctx context.Context,
	userID *uint,
	ipAddress *string,
	action entity.AuthAction,
	metadata map[string]any,
) error {
	if s.events == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	event := &entity.AuthEvent{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	return s.events.Log(ctx, event)
}
