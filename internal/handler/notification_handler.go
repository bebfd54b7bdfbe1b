package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/HK9750/LMS-BACKEND/internal/service"
)

// NotificationHandler handles admin notification endpoints.
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// @Summary List all notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	notifications, err := h.notificationService.List(c.Request().Context())
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"notifications": notifications,
	})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /notification/update/{id} [put]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidInput(c, "invalid notification id")
	}
	notification, err := h.notificationService.MarkRead(c.Request().Context(), id)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"notification": notification,
	})
}
