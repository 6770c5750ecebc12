package service

import (
	"context"
	"time"

	"edufolio/internal/entity"
	"edufolio/internal/repository"
	"edufolio/internal/utils"
)

type TokenPair struct {
	AccessToken      string
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresIn int64
}

type AccessGrant struct {
	AccessToken string
	ExpiresIn   int64
}

type TokenService struct {
	tokens repository.RefreshTokenRepository
	jwt    *utils.JWTManager
	clock  Clock
	config AuthConfig
}

func NewTokenService(
	tokens repository.RefreshTokenRepository,
	jwt *utils.JWTManager,
	clock Clock,
	config AuthConfig,
) *TokenService {
	return &TokenService{
		tokens: tokens,
		jwt:    jwt,
		clock:  clock,
		config: config,
	}
}

// IssueTokens mints an access token for the user and persists a fresh
// refresh-token row. Every call creates a new row, so a user may hold
// several live sessions at once.
func (s *TokenService) IssueTokens(ctx context.Context, user *entity.User) (*TokenPair, error) {
	accessToken, accessTTL, err := s.jwt.IssueAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}

	secret, err := utils.GenerateRefreshTokenSecret()
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.refreshTokenTTL())
	row := &entity.RefreshToken{
		UserID:    user.ID,
		Token:     secret,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		ExpiresIn:        int64(accessTTL.Seconds()),
		RefreshToken:     secret,
		RefreshExpiresIn: int64(expiresAt.Sub(s.now()).Seconds()),
	}, nil
}

// RefreshAccessToken exchanges a live refresh token for a new access token.
// The refresh-token row is neither rotated nor extended; an expired row is
// deleted on sight.
func (s *TokenService) RefreshAccessToken(ctx context.Context, refreshToken string) (*AccessGrant, error) {
	row, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrInvalidRefreshToken
	}
	if !row.ExpiresAt.After(s.now()) {
		if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	// Claims come from the row's eagerly loaded owner, so username and role
	// changes since the original login are picked up.
	accessToken, accessTTL, err := s.jwt.IssueAccessToken(row.User.ID, row.User.Username, string(row.User.Role))
	if err != nil {
		return nil, err
	}
	return &AccessGrant{
		AccessToken: accessToken,
		ExpiresIn:   int64(accessTTL.Seconds()),
	}, nil
}

// RevokeToken deletes the refresh-token row if it exists. Revoking an
// unknown token is not an error.
func (s *TokenService) RevokeToken(ctx context.Context, refreshToken string) error {
	return s.tokens.DeleteByToken(ctx, refreshToken)
}

func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uint) error {
	return s.tokens.DeleteAllByUser(ctx, userID)
}

func (s *TokenService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *TokenService) refreshTokenTTL() time.Duration {
	if s.config.RefreshTokenTTL > 0 {
		return s.config.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}
