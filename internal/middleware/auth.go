package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/HK9750/LMS-BACKEND/internal/auth"
	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/model"
)

// userContextKey is where Authenticate stores the resolved identity.
const userContextKey = "current_user"

// AccessTokenCookie is the transport cookie carrying the access token.
const AccessTokenCookie = "access_token"

// RefreshTokenCookie is the transport cookie carrying the refresh token.
const RefreshTokenCookie = "refresh_token"

// Authenticate resolves the caller's identity from the access token and the
// session cache. A token that verifies but has no session snapshot behind it
// is rejected: the cache, not token expiry, decides whether a session is
// alive. On success the full user snapshot (including role) lands in the echo
// context for downstream authorization.
func Authenticate(jwtService *auth.JWTService, sessions auth.SessionStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractAccessToken(c)
			if token == "" {
				return unauthenticated(c)
			}
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				return unauthenticated(c)
			}
			user, err := sessions.Get(c.Request().Context(), claims.UserID)
			if err != nil || user == nil {
				return unauthenticated(c)
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// Authorize enforces that the authenticated user's role is in the allow-list.
// It must run after Authenticate has populated the identity.
func Authorize(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || !allowed[user.Role] {
				httpErr := errors.MapErrorToHTTP(errors.ErrForbidden)
				return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}

// CurrentUser returns the identity resolved by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
	if user, ok := c.Get(userContextKey).(*model.User); ok {
		return user
	}
	return nil
}

func extractAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func unauthenticated(c echo.Context) error {
	httpErr := errors.MapErrorToHTTP(errors.ErrUnauthenticated)
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}
