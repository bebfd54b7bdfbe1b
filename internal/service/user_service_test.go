package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/HK9750/LMS-BACKEND/internal/auth"
	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/model"
)

func newJWTServiceForTest() *auth.JWTService {
	return auth.NewJWTService("access-secret", "refresh-secret", "activation-secret", "reset-secret", 15*time.Minute, 7*24*time.Hour)
}

func newUserServiceForTest(users *MockUserRepository, sessions *MockSessionStore, mailer *MockMailer) (UserService, *auth.JWTService) {
	jwtService := newJWTServiceForTest()
	tokens := auth.NewTokenService(jwtService, sessions)
	return NewUserService(users, jwtService, tokens, sessions, mailer), jwtService
}

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		setupMocks    func(*MockUserRepository, *MockMailer)
		expectedError error
	}{
		{
			name:  "successful registration emails the activation code",
			email: "new@example.com",
			setupMocks: func(users *MockUserRepository, mailer *MockMailer) {
				users.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
				mailer.On("Send", mock.Anything, "new@example.com", "Account Activation", "activation.html", mock.Anything).Return(nil)
			},
		},
		{
			name:  "existing email is rejected",
			email: "taken@example.com",
			setupMocks: func(users *MockUserRepository, mailer *MockMailer) {
				users.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{Email: "taken@example.com"}, nil)
			},
			expectedError: errors.ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			mailer := new(MockMailer)
			tt.setupMocks(users, mailer)

			svc, _ := newUserServiceForTest(users, new(MockSessionStore), mailer)
			token, err := svc.Register(context.Background(), "New User", tt.email, "password123")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				// No user row exists until activation.
				users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
			users.AssertExpectations(t)
			mailer.AssertExpectations(t)
		})
	}
}

func TestUserService_Activate(t *testing.T) {
	t.Run("correct code creates the user and logs in", func(t *testing.T) {
		users := new(MockUserRepository)
		sessions := new(MockSessionStore)
		mailer := new(MockMailer)

		users.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
		users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
		sessions.On("Save", mock.Anything, mock.AnythingOfType("*model.User"), mock.Anything).Return(nil)

		svc, jwtService := newUserServiceForTest(users, sessions, mailer)
		hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		token, code, err := jwtService.CreateActivationToken(auth.Candidate{
			Name: "New User", Email: "new@example.com", PasswordHash: string(hash),
		})
		assert.NoError(t, err)

		access, refresh, user, err := svc.Activate(context.Background(), token, code)

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, "new@example.com", user.Email)
		assert.True(t, user.IsVerified)
		users.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("wrong code never creates a user", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, jwtService := newUserServiceForTest(users, new(MockSessionStore), new(MockMailer))

		token, _, err := jwtService.CreateActivationToken(auth.Candidate{
			Name: "New User", Email: "new@example.com", PasswordHash: "x",
		})
		assert.NoError(t, err)

		access, refresh, user, err := svc.Activate(context.Background(), token, "000000")

		assert.ErrorIs(t, err, errors.ErrInvalidActivationCode)
		assert.Empty(t, access)
		assert.Empty(t, refresh)
		assert.Nil(t, user)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUserService_Login(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcryptCost)
	stored := &model.User{
		ID:           uuid.New(),
		Email:        "test@example.com",
		PasswordHash: string(hash),
	}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMocks    func(*MockUserRepository, *MockSessionStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMocks: func(users *MockUserRepository, sessions *MockSessionStore) {
				users.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
				sessions.On("Save", mock.Anything, stored, mock.Anything).Return(nil)
			},
		},
		{
			name:     "unknown email",
			email:    "missing@example.com",
			password: "password123",
			setupMocks: func(users *MockUserRepository, sessions *MockSessionStore) {
				users.On("FindByEmail", mock.Anything, "missing@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "nope",
			setupMocks: func(users *MockUserRepository, sessions *MockSessionStore) {
				users.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
			expectedError: errors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			sessions := new(MockSessionStore)
			tt.setupMocks(users, sessions)

			svc, _ := newUserServiceForTest(users, sessions, new(MockMailer))
			access, refresh, user, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, access)
				assert.Empty(t, refresh)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, access)
				assert.NotEmpty(t, refresh)
				assert.Equal(t, tt.email, user.Email)
			}
			users.AssertExpectations(t)
			sessions.AssertExpectations(t)
		})
	}
}

func TestUserService_Refresh(t *testing.T) {
	stored := &model.User{ID: uuid.New(), Email: "test@example.com"}

	t.Run("live session rotates the pair", func(t *testing.T) {
		sessions := new(MockSessionStore)
		sessions.On("Get", mock.Anything, stored.ID).Return(stored, nil)
		sessions.On("Save", mock.Anything, stored, mock.Anything).Return(nil)

		svc, jwtService := newUserServiceForTest(new(MockUserRepository), sessions, new(MockMailer))
		refreshToken, err := jwtService.GenerateRefreshToken(stored.ID)
		assert.NoError(t, err)

		access, refresh, user, err := svc.Refresh(context.Background(), refreshToken)

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, stored.ID, user.ID)
	})

	t.Run("valid token with no session snapshot forces re-login", func(t *testing.T) {
		sessions := new(MockSessionStore)
		sessions.On("Get", mock.Anything, stored.ID).Return(nil, nil)

		svc, jwtService := newUserServiceForTest(new(MockUserRepository), sessions, new(MockMailer))
		refreshToken, err := jwtService.GenerateRefreshToken(stored.ID)
		assert.NoError(t, err)

		access, refresh, user, err := svc.Refresh(context.Background(), refreshToken)

		assert.ErrorIs(t, err, errors.ErrSessionNotFound)
		assert.Empty(t, access)
		assert.Empty(t, refresh)
		assert.Nil(t, user)
	})

	t.Run("access token is not accepted as a refresh token", func(t *testing.T) {
		sessions := new(MockSessionStore)
		svc, jwtService := newUserServiceForTest(new(MockUserRepository), sessions, new(MockMailer))
		accessToken, err := jwtService.GenerateAccessToken(stored.ID)
		assert.NoError(t, err)

		_, _, _, err = svc.Refresh(context.Background(), accessToken)
		assert.ErrorIs(t, err, errors.ErrInvalidToken)
	})
}

func TestUserService_UpdatePassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcryptCost)
	userID := uuid.New()

	t.Run("stores a new hash and refreshes the snapshot", func(t *testing.T) {
		users := new(MockUserRepository)
		sessions := new(MockSessionStore)
		users.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID: userID, Email: "test@example.com", PasswordHash: string(hash),
		}, nil)
		users.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
		sessions.On("Save", mock.Anything, mock.AnythingOfType("*model.User"), mock.Anything).Return(nil)

		svc, _ := newUserServiceForTest(users, sessions, new(MockMailer))
		err := svc.UpdatePassword(context.Background(), userID, "old-password", "new-password")

		assert.NoError(t, err)
		users.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("wrong old password is rejected", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", mock.Anything, userID).Return(&model.User{
			ID: userID, PasswordHash: string(hash),
		}, nil)

		svc, _ := newUserServiceForTest(users, new(MockSessionStore), new(MockMailer))
		err := svc.UpdatePassword(context.Background(), userID, "guess", "new-password")

		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUserService_SocialAuth(t *testing.T) {
	t.Run("creates a verified account on first sign-in", func(t *testing.T) {
		users := new(MockUserRepository)
		sessions := new(MockSessionStore)
		users.On("FindByEmail", mock.Anything, "social@example.com").Return(nil, gorm.ErrRecordNotFound)
		users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
		sessions.On("Save", mock.Anything, mock.AnythingOfType("*model.User"), mock.Anything).Return(nil)

		svc, _ := newUserServiceForTest(users, sessions, new(MockMailer))
		access, _, user, err := svc.SocialAuth(context.Background(), "Social User", "social@example.com")

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.True(t, user.IsVerified)
		assert.Empty(t, user.PasswordHash)
		users.AssertExpectations(t)
	})
}
