package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestJWTService() *JWTService {
	return NewJWTService("access-secret", "refresh-secret", "activation-secret", "reset-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestJWTService_AccessAndRefreshAreNotInterchangeable(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	access, err := svc.GenerateAccessToken(userID)
	assert.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(userID)
	assert.NoError(t, err)

	claims, err := svc.ValidateAccessToken(access)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	claims, err = svc.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	// Each token only verifies against its own secret.
	_, err = svc.ValidateAccessToken(refresh)
	assert.Error(t, err)
	_, err = svc.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestJWTService_ValidateRejectsTamperedToken(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateAccessToken(uuid.New())
	assert.NoError(t, err)

	_, err = svc.ValidateAccessToken(token + "x")
	assert.Error(t, err)

	other := NewJWTService("other-secret", "refresh-secret", "a", "r", time.Minute, time.Hour)
	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_ActivationToken(t *testing.T) {
	svc := newTestJWTService()
	candidate := Candidate{Name: "New User", Email: "new@example.com", PasswordHash: "hash"}

	token, code, err := svc.CreateActivationToken(candidate)
	assert.NoError(t, err)
	assert.Len(t, code, 6)

	t.Run("matching code returns the candidate", func(t *testing.T) {
		got, err := svc.VerifyActivationToken(token, code)
		assert.NoError(t, err)
		assert.Equal(t, candidate.Email, got.Email)
		assert.Equal(t, candidate.PasswordHash, got.PasswordHash)
	})

	t.Run("mismatched code fails", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "111111"
		}
		_, err := svc.VerifyActivationToken(token, wrong)
		assert.Error(t, err)
	})
}

func TestJWTService_PasswordResetToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.CreatePasswordResetToken(userID)
	assert.NoError(t, err)

	claims, err := svc.VerifyPasswordResetToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	// A reset token is not an access token.
	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}
