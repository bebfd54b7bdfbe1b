package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HK9750/LMS-BACKEND/internal/auth"
	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/middleware"
	"github.com/HK9750/LMS-BACKEND/internal/service"
)

// UserHandler handles registration, authentication and profile endpoints.
type UserHandler struct {
	userService service.UserService
	jwt         *auth.JWTService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService, jwt *auth.JWTService) *UserHandler {
	return &UserHandler{userService: userService, jwt: jwt}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ActivateRequest represents an account activation request.
type ActivateRequest struct {
	ActivationToken string `json:"activation_token" validate:"required"`
	ActivationCode  string `json:"activation_code" validate:"required,len=6"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SocialAuthRequest represents a social login request.
type SocialAuthRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// UpdateProfileRequest represents a profile update request.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdatePasswordRequest represents a password change request.
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ForgotPasswordRequest represents a password reset request.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents a password reset confirmation.
type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *UserHandler) setAuthCookies(c echo.Context, accessToken, refreshToken string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Expires:  time.Now().Add(h.jwt.AccessTTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
	c.SetCookie(&http.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    refreshToken,
		Expires:  time.Now().Add(h.jwt.RefreshTTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

func (h *UserHandler) clearAuthCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now(),
			HttpOnly: true,
			Path:     "/",
		})
	}
}

// Register godoc
// @Summary Register a candidate user and email an activation code
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	token, err := h.userService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "account activation email sent successfully to " + req.Email,
		"token":   token,
	})
}

// Activate godoc
// @Summary Activate an account with the emailed code
// @Tags users
// @Accept json
// @Produce json
// @Param request body ActivateRequest true "Activation data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /activate [post]
func (h *UserHandler) Activate(c echo.Context) error {
	var req ActivateRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	accessToken, refreshToken, user, err := h.userService.Activate(c.Request().Context(), req.ActivationToken, req.ActivationCode)
	if err != nil {
		return mapped(c, err)
	}
	h.setAuthCookies(c, accessToken, refreshToken)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":      true,
		"message":      "account activated and logged in successfully",
		"user":         user,
		"access_token": accessToken,
	})
}

// Login godoc
// @Summary Login with email and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	accessToken, refreshToken, user, err := h.userService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapped(c, err)
	}
	h.setAuthCookies(c, accessToken, refreshToken)
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      "logged in successfully",
		"user":         user,
		"access_token": accessToken,
	})
}

// SocialAuth godoc
// @Summary Login or create an account through a social provider
// @Tags users
// @Accept json
// @Produce json
// @Param request body SocialAuthRequest true "Social identity"
// @Success 200 {object} map[string]interface{}
// @Router /social [post]
func (h *UserHandler) SocialAuth(c echo.Context) error {
	var req SocialAuthRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	accessToken, refreshToken, user, err := h.userService.SocialAuth(c.Request().Context(), req.Name, req.Email)
	if err != nil {
		return mapped(c, err)
	}
	h.setAuthCookies(c, accessToken, refreshToken)
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      "logged in successfully",
		"user":         user,
		"access_token": accessToken,
	})
}

// Logout godoc
// @Summary Logout and end the session everywhere
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user != nil {
		if err := h.userService.Logout(c.Request().Context(), user.ID); err != nil {
			return mapped(c, err)
		}
	}
	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "logged out successfully",
	})
}

// RefreshToken godoc
// @Summary Rotate the access/refresh token pair
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /update/token [put]
func (h *UserHandler) RefreshToken(c echo.Context) error {
	refreshToken := ""
	if cookie, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		return mapped(c, errors.ErrUnauthenticated)
	}

	accessToken, newRefresh, _, err := h.userService.Refresh(c.Request().Context(), refreshToken)
	if err != nil {
		return mapped(c, err)
	}
	h.setAuthCookies(c, accessToken, newRefresh)
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      "access token updated successfully",
		"access_token": accessToken,
	})
}

// Me godoc
// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	profile, err := h.userService.GetByID(c.Request().Context(), user.ID)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    profile,
	})
}

// UpdateProfile godoc
// @Summary Update name and/or email
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} errors.ErrorResponse
// @Router /update [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	user := middleware.CurrentUser(c)
	updated, err := h.userService.UpdateProfile(c.Request().Context(), user.ID, req.Name, req.Email)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "user updated successfully",
		"user":    updated,
	})
}

// UpdatePassword godoc
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdatePasswordRequest true "Old and new password"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /update/password [put]
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	var req UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	user := middleware.CurrentUser(c)
	if err := h.userService.UpdatePassword(c.Request().Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "password updated successfully",
	})
}

// ForgotPassword godoc
// @Summary Email a password reset token
// @Tags users
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /forgot [post]
func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	token, err := h.userService.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"message":     "password reset email sent successfully to " + req.Email,
		"reset_token": token,
	})
}

// ResetPassword godoc
// @Summary Reset password with an emailed token
// @Tags users
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /reset [post]
func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	if err := h.userService.ResetPassword(c.Request().Context(), req.ResetToken, req.NewPassword); err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "password reset successfully",
	})
}

// Delete godoc
// @Summary Delete the authenticated user's account
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /delete [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if err := h.userService.Delete(c.Request().Context(), user.ID); err != nil {
		return mapped(c, err)
	}
	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "user deleted successfully",
	})
}
