package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/HK9750/LMS-BACKEND/internal/middleware"
	"github.com/HK9750/LMS-BACKEND/internal/service"
)

// OrderHandler handles enrollment purchases and payment endpoints.
type OrderHandler struct {
	orderService   service.OrderService
	publishableKey string
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService, publishableKey string) *OrderHandler {
	return &OrderHandler{orderService: orderService, publishableKey: publishableKey}
}

// CreateOrderRequest represents a purchase of a course.
type CreateOrderRequest struct {
	CourseID   string `json:"course_id" validate:"required,uuid"`
	PaymentRef string `json:"payment_info" validate:"required"`
}

// PaymentIntentRequest asks the payment provider for a client secret.
type PaymentIntentRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

// CreateOrder godoc
// @Summary Purchase a course
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order data"
// @Success 201 {object} map[string]interface{}
// @Failure 402 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /order/create [post]
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return invalidInput(c, "invalid course id")
	}

	user := middleware.CurrentUser(c)
	order, course, err := h.orderService.CreateOrder(c.Request().Context(), user.ID, courseID, req.PaymentRef)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"order":   order,
		"course":  course.PublicView(),
	})
}

// ListOrders godoc
// @Summary List all orders
// @Tags orders
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context())
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"orders":  orders,
	})
}

// StripeKey godoc
// @Summary Get the publishable payment key
// @Tags orders
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stripeapi [get]
func (h *OrderHandler) StripeKey(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"publishable_key": h.publishableKey,
	})
}

// PaymentIntent godoc
// @Summary Create a payment intent for a course
// @Tags orders
// @Accept json
// @Produce json
// @Param request body PaymentIntentRequest true "Payment data"
// @Success 201 {object} map[string]interface{}
// @Failure 503 {object} errors.ErrorResponse
// @Router /stripepayment [post]
func (h *OrderHandler) PaymentIntent(c echo.Context) error {
	var req PaymentIntentRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return invalidInput(c, "invalid course id")
	}

	clientSecret, err := h.orderService.CreatePaymentIntent(c.Request().Context(), courseID)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":       true,
		"client_secret": clientSecret,
	})
}

// Reconcile godoc
// @Summary Recompute purchase counters from recorded orders
// @Tags orders
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Router /orders/reconcile [post]
func (h *OrderHandler) Reconcile(c echo.Context) error {
	updated, err := h.orderService.ReconcilePurchases(c.Request().Context())
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"updated": updated,
	})
}
