package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/HK9750/LMS-BACKEND/internal/auth"
	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/mail"
	"github.com/HK9750/LMS-BACKEND/internal/model"
	"github.com/HK9750/LMS-BACKEND/internal/repository"
)

const bcryptCost = 10

// UserService handles registration, authentication and profile operations.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (activationToken string, err error)
	Activate(ctx context.Context, activationToken, code string) (accessToken, refreshToken string, user *model.User, err error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error)
	SocialAuth(ctx context.Context, name, email string) (accessToken, refreshToken string, user *model.User, err error)
	Refresh(ctx context.Context, refreshToken string) (newAccess, newRefresh string, user *model.User, err error)
	Logout(ctx context.Context, userID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) (resetToken string, err error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	users    repository.UserRepository
	jwt      *auth.JWTService
	tokens   *auth.TokenService
	sessions auth.SessionStoreInterface
	mailer   mail.Mailer
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	jwt *auth.JWTService,
	tokens *auth.TokenService,
	sessions auth.SessionStoreInterface,
	mailer mail.Mailer,
) UserService {
	return &userService{
		users:    users,
		jwt:      jwt,
		tokens:   tokens,
		sessions: sessions,
		mailer:   mailer,
	}
}

// Register issues a provisional activation token for a candidate user. No user
// row is created until activation. The activation email is the one send that
// hard-fails the request: without the emailed code the token is useless.
func (s *userService) Register(ctx context.Context, name, email, password string) (string, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", errors.ErrEmailExists
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return "", fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	candidate := auth.Candidate{Name: name, Email: email, PasswordHash: string(hashed)}
	token, code, err := s.jwt.CreateActivationToken(candidate)
	if err != nil {
		return "", fmt.Errorf("create activation token: %w", err)
	}

	mailData := map[string]string{"Name": name, "Code": code}
	if err := s.mailer.Send(ctx, email, "Account Activation", "activation.html", mailData); err != nil {
		return "", fmt.Errorf("send activation mail: %w", err)
	}
	return token, nil
}

// Activate verifies the activation token and emailed code, creates the user
// and logs them in.
func (s *userService) Activate(ctx context.Context, activationToken, code string) (string, string, *model.User, error) {
	candidate, err := s.jwt.VerifyActivationToken(activationToken, code)
	if err != nil {
		return "", "", nil, errors.ErrInvalidActivationCode
	}

	// The email may have been taken between registration and activation.
	existing, err := s.users.FindByEmail(ctx, candidate.Email)
	if err == nil && existing != nil {
		return "", "", nil, errors.ErrEmailExists
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return "", "", nil, fmt.Errorf("check user existence: %w", err)
	}

	user := &model.User{
		Name:         candidate.Name,
		Email:        candidate.Email,
		PasswordHash: candidate.PasswordHash,
		Role:         model.RoleUser,
		IsVerified:   true,
		Courses:      []model.Enrollment{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", "", nil, fmt.Errorf("create user: %w", err)
	}

	accessToken, refreshToken, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, refreshToken, user, nil
}

// Login authenticates a user and issues a token pair.
func (s *userService) Login(ctx context.Context, email, password string) (string, string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", "", nil, errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, errors.ErrInvalidCredentials
	}
	accessToken, refreshToken, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, refreshToken, user, nil
}

// SocialAuth logs in an existing user by email or creates a verified account
// without a password path.
func (s *userService) SocialAuth(ctx context.Context, name, email string) (string, string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return "", "", nil, fmt.Errorf("find user: %w", err)
		}
		user = &model.User{
			Name:       name,
			Email:      email,
			Role:       model.RoleUser,
			IsVerified: true,
			Courses:    []model.Enrollment{},
		}
		if err := s.users.Create(ctx, user); err != nil {
			return "", "", nil, fmt.Errorf("create user: %w", err)
		}
	}
	accessToken, refreshToken, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, refreshToken, user, nil
}

// Refresh rotates a token pair. See auth.TokenService for the revocation model.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (string, string, *model.User, error) {
	return s.tokens.Refresh(ctx, refreshToken)
}

// Logout evicts the session snapshot. The tokens themselves are not revoked;
// without a snapshot they no longer resolve an identity.
func (s *userService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.Delete(ctx, userID)
}

// GetByID returns the persisted user.
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile updates name and/or email and refreshes the session snapshot.
func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	if email != "" && email != user.Email {
		existing, err := s.users.FindByEmail(ctx, email)
		if err == nil && existing != nil {
			return nil, errors.ErrEmailExists
		}
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = email
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := s.sessions.Save(ctx, user, s.jwt.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("refresh session snapshot: %w", err)
	}
	return user, nil
}

// UpdatePassword verifies the old password, stores the new hash and refreshes
// the session snapshot.
func (s *userService) UpdatePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		// Social accounts have no password to verify against.
		return errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return errors.ErrInvalidCredentials
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := s.sessions.Save(ctx, user, s.jwt.RefreshTTL()); err != nil {
		return fmt.Errorf("refresh session snapshot: %w", err)
	}
	return nil
}

// ForgotPassword emails a short-lived reset token to the user.
func (s *userService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrUserNotFound
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	token, err := s.jwt.CreatePasswordResetToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("create reset token: %w", err)
	}
	mailData := map[string]string{"Name": user.Name, "Token": token}
	if err := s.mailer.Send(ctx, email, "Password Reset", "password_reset.html", mailData); err != nil {
		return "", fmt.Errorf("send reset mail: %w", err)
	}
	return token, nil
}

// ResetPassword verifies the reset token, stores the new hash and refreshes
// the session snapshot.
func (s *userService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.jwt.VerifyPasswordResetToken(resetToken)
	if err != nil {
		return errors.ErrInvalidToken
	}
	user, err := s.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := s.sessions.Save(ctx, user, s.jwt.RefreshTTL()); err != nil {
		return fmt.Errorf("refresh session snapshot: %w", err)
	}
	return nil
}

// Delete removes the user row and evicts the session. Enrollment references
// elsewhere are intentionally not cleaned up.
func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return s.sessions.Delete(ctx, id)
}
