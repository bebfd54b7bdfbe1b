package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/HK9750/LMS-BACKEND/internal/auth"
	"github.com/HK9750/LMS-BACKEND/internal/model"
)

// mockSessionStore is a mock implementation of auth.SessionStoreInterface.
type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Save(ctx context.Context, user *model.User, ttl time.Duration) error {
	args := m.Called(ctx, user, ttl)
	return args.Error(0)
}

func (m *mockSessionStore) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockSessionStore) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("access-secret", "refresh-secret", "activation-secret", "reset-secret", 15*time.Minute, 7*24*time.Hour)
}

func runMiddleware(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	_ = handler(c)
	return rec, c
}

func TestAuthenticate(t *testing.T) {
	jwtService := newTestJWTService()
	userID := uuid.New()
	user := &model.User{ID: userID, Email: "test@example.com", Role: model.RoleUser}

	t.Run("valid token with live session passes", func(t *testing.T) {
		sessions := new(mockSessionStore)
		sessions.On("Get", mock.Anything, userID).Return(user, nil)

		token, err := jwtService.GenerateAccessToken(userID)
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		rec, c := runMiddleware(Authenticate(jwtService, sessions), req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user, CurrentUser(c))
	})

	t.Run("bearer header works without a cookie", func(t *testing.T) {
		sessions := new(mockSessionStore)
		sessions.On("Get", mock.Anything, userID).Return(user, nil)

		token, err := jwtService.GenerateAccessToken(userID)
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec, _ := runMiddleware(Authenticate(jwtService, sessions), req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("valid token without a session snapshot is rejected", func(t *testing.T) {
		sessions := new(mockSessionStore)
		sessions.On("Get", mock.Anything, userID).Return(nil, nil)

		token, err := jwtService.GenerateAccessToken(userID)
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		rec, _ := runMiddleware(Authenticate(jwtService, sessions), req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec, _ := runMiddleware(Authenticate(jwtService, new(mockSessionStore)), req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "not-a-token"})
		rec, _ := runMiddleware(Authenticate(jwtService, new(mockSessionStore)), req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		roles    []string
		wantCode int
	}{
		{
			name:     "admin passes the admin gate",
			user:     &model.User{ID: uuid.New(), Role: model.RoleAdmin},
			roles:    []string{model.RoleAdmin},
			wantCode: http.StatusOK,
		},
		{
			name:     "regular user is forbidden",
			user:     &model.User{ID: uuid.New(), Role: model.RoleUser},
			roles:    []string{model.RoleAdmin},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "no identity is forbidden",
			user:     nil,
			roles:    []string{model.RoleAdmin},
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.user != nil {
				c.Set(userContextKey, tt.user)
			}

			handler := Authorize(tt.roles...)(func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})
			_ = handler(c)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
