package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	// ActivationTokenExpiry bounds the registration-to-activation window.
	ActivationTokenExpiry = 10 * time.Minute
	// ResetTokenExpiry bounds the forgot-password window.
	ResetTokenExpiry = 10 * time.Minute
)

// Claims represents identity claims carried by access and refresh tokens.
type Claims struct {
	UserID uuid.UUID `json:"id"`
	jwt.RegisteredClaims
}

// Candidate holds the not-yet-persisted user fields embedded in an activation
// token. The password is hashed before signing; plaintext never enters a token.
type Candidate struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// ActivationClaims carry a candidate user plus the emailed confirmation code.
type ActivationClaims struct {
	User Candidate `json:"user"`
	Code string    `json:"code"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies all token flavors. Access and refresh tokens
// use two distinct secrets and two distinct expirations; activation and
// password-reset tokens use their own secrets again.
type JWTService struct {
	accessSecret     []byte
	refreshSecret    []byte
	activationSecret []byte
	resetSecret      []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
}

// NewJWTService creates a new JWT service.
func NewJWTService(accessSecret, refreshSecret, activationSecret, resetSecret string, accessTTL, refreshTTL time.Duration) *JWTService {
	return &JWTService{
		accessSecret:     []byte(accessSecret),
		refreshSecret:    []byte(refreshSecret),
		activationSecret: []byte(activationSecret),
		resetSecret:      []byte(resetSecret),
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
	}
}

// AccessTTL returns the access token lifetime.
func (s *JWTService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime. Session snapshots share it.
func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken signs a short-lived access token for the user.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID) (string, error) {
	return s.generate(userID, s.accessSecret, s.accessTTL)
}

// GenerateRefreshToken signs a long-lived refresh token for the user.
func (s *JWTService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return s.generate(userID, s.refreshSecret, s.refreshTTL)
}

func (s *JWTService) generate(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccessToken verifies signature and expiry of an access token.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.accessSecret)
}

// ValidateRefreshToken verifies signature and expiry of a refresh token.
// Signature mismatch and expiry are not distinguished to the caller.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.refreshSecret)
}

func (s *JWTService) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// CreateActivationToken signs a short-lived token embedding the candidate user
// fields and a random 6-digit code. Activation requires possession of both the
// token and the emailed code.
func (s *JWTService) CreateActivationToken(candidate Candidate) (token string, code string, err error) {
	code, err = generateNumericCode()
	if err != nil {
		return "", "", fmt.Errorf("generate activation code: %w", err)
	}
	claims := &ActivationClaims{
		User: candidate,
		Code: code,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ActivationTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = tokenObj.SignedString(s.activationSecret)
	return token, code, err
}

// VerifyActivationToken verifies an activation token and returns the embedded
// candidate. The code must match the one signed into the token.
func (s *JWTService) VerifyActivationToken(tokenString, code string) (*Candidate, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActivationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.activationSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*ActivationClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Code != code {
		return nil, errors.New("activation code mismatch")
	}
	return &claims.User, nil
}

// CreatePasswordResetToken signs a short-lived reset token for the user.
func (s *JWTService) CreatePasswordResetToken(userID uuid.UUID) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ResetTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.resetSecret)
}

// VerifyPasswordResetToken verifies a reset token and returns its claims.
func (s *JWTService) VerifyPasswordResetToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.resetSecret)
}

// generateNumericCode returns a random 6-digit code as a string.
func generateNumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
