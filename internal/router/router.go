package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/HK9750/LMS-BACKEND/internal/auth"
	"github.com/HK9750/LMS-BACKEND/internal/handler"
	"github.com/HK9750/LMS-BACKEND/internal/middleware"
	"github.com/HK9750/LMS-BACKEND/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	sessions auth.SessionStoreInterface,
	userHandler *handler.UserHandler,
	courseHandler *handler.CourseHandler,
	orderHandler *handler.OrderHandler,
	notificationHandler *handler.NotificationHandler,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1")

	// Public routes
	api.POST("/register", userHandler.Register)
	api.POST("/activate", userHandler.Activate)
	api.POST("/login", userHandler.Login)
	api.POST("/social", userHandler.SocialAuth)
	api.POST("/forgot", userHandler.ForgotPassword)
	api.POST("/reset", userHandler.ResetPassword)
	api.GET("/courses", courseHandler.List)
	api.GET("/course/:id", courseHandler.GetByID)
	api.GET("/courses/reviews", courseHandler.TopReviews)
	api.GET("/courses/search/name", courseHandler.Search)
	api.GET("/stripeapi", orderHandler.StripeKey)

	// Token refresh authenticates with the refresh cookie, not the
	// access token, so it stays outside the secured group.
	api.PUT("/update/token", userHandler.RefreshToken)

	// Routes requiring a valid access token and a live session
	secured := api.Group("", middleware.Authenticate(jwtService, sessions))

	secured.POST("/logout", userHandler.Logout)
	secured.GET("/me", userHandler.Me)
	secured.PUT("/update", userHandler.UpdateProfile)
	secured.PUT("/update/password", userHandler.UpdatePassword)
	secured.DELETE("/delete", userHandler.Delete)

	secured.GET("/courses/user/:id", courseHandler.Content)
	secured.PUT("/course/question", courseHandler.AddQuestion)
	secured.PUT("/course/answer/:id", courseHandler.AddAnswer)
	secured.PUT("/course/review/:id", courseHandler.AddReview)

	secured.POST("/order/create", orderHandler.CreateOrder)
	secured.POST("/stripepayment", orderHandler.PaymentIntent)

	// Admin-only routes
	admin := secured.Group("", middleware.Authorize(model.RoleAdmin))

	admin.POST("/course/create", courseHandler.Create)
	admin.PUT("/course/edit/:id", courseHandler.Update)
	admin.GET("/courses/admin", courseHandler.ListAdmin)
	admin.DELETE("/course/delete/:id", courseHandler.Delete)
	admin.PUT("/course/review/reply/:id", courseHandler.ReplyToReview)

	admin.GET("/orders", orderHandler.ListOrders)
	admin.POST("/orders/reconcile", orderHandler.Reconcile)

	admin.GET("/notifications", notificationHandler.List)
	admin.PUT("/notification/update/:id", notificationHandler.MarkRead)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
