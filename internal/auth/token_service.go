package auth

import (
	"context"
	"fmt"

	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/model"
)

// TokenService issues token pairs and rotates them. Issuing a pair also writes
// the user snapshot into the session store, so cache presence and refresh
// lifetime move together.
type TokenService struct {
	jwt      *JWTService
	sessions SessionStoreInterface
}

// NewTokenService creates a new token service.
func NewTokenService(jwt *JWTService, sessions SessionStoreInterface) *TokenService {
	return &TokenService{jwt: jwt, sessions: sessions}
}

// IssueTokenPair signs an access/refresh pair for the user and stores the
// session snapshot under the user's id with the refresh TTL.
func (s *TokenService) IssueTokenPair(ctx context.Context, user *model.User) (accessToken, refreshToken string, err error) {
	accessToken, err = s.jwt.GenerateAccessToken(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err = s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.sessions.Save(ctx, user, s.jwt.RefreshTTL()); err != nil {
		return "", "", fmt.Errorf("save session snapshot: %w", err)
	}
	return accessToken, refreshToken, nil
}

// Refresh verifies a refresh token and issues a fresh pair. Rotation is
// stateless: the old refresh token is not recorded as revoked, because a
// missing session snapshot is the real revocation mechanism. A structurally
// valid token whose snapshot is gone forces re-login.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (newAccess, newRefresh string, user *model.User, err error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", "", nil, errors.ErrInvalidToken
	}
	user, err = s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		return "", "", nil, fmt.Errorf("read session snapshot: %w", err)
	}
	if user == nil {
		return "", "", nil, errors.ErrSessionNotFound
	}
	newAccess, newRefresh, err = s.IssueTokenPair(ctx, user)
	if err != nil {
		return "", "", nil, err
	}
	return newAccess, newRefresh, user, nil
}
