package main

import (
	"context"
	"log"
	"net/http"
	"time"

	_ "github.com/HK9750/LMS-BACKEND/docs" // swagger docs

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/HK9750/LMS-BACKEND/internal/auth"
	"github.com/HK9750/LMS-BACKEND/internal/cache"
	"github.com/HK9750/LMS-BACKEND/internal/config"
	"github.com/HK9750/LMS-BACKEND/internal/db"
	"github.com/HK9750/LMS-BACKEND/internal/handler"
	"github.com/HK9750/LMS-BACKEND/internal/mail"
	"github.com/HK9750/LMS-BACKEND/internal/model"
	"github.com/HK9750/LMS-BACKEND/internal/payment"
	"github.com/HK9750/LMS-BACKEND/internal/queue"
	"github.com/HK9750/LMS-BACKEND/internal/repository"
	"github.com/HK9750/LMS-BACKEND/internal/router"
	"github.com/HK9750/LMS-BACKEND/internal/service"
)

// @title LMS Backend API
// @version 1.0
// @description Learning management backend with course catalog, enrollment orders, and cookie-based JWT sessions.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := config.Load()

	gormDB, err := db.NewMySQLWithRetry(cfg.MySQLDSN, 10)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Order{},
		&model.Notification{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Auth components
	jwtService := auth.NewJWTService(
		cfg.AccessSecret,
		cfg.RefreshSecret,
		cfg.ActivationSecret,
		cfg.ResetSecret,
		time.Duration(cfg.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour,
	)
	sessions := auth.NewSessionStore(cacheClient)
	tokens := auth.NewTokenService(jwtService, sessions)

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	notificationRepo := repository.NewNotificationRepository(gormDB)

	// Side-effect infrastructure
	mailer, err := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	if err != nil {
		log.Fatalf("mailer init: %v", err)
	}
	publisher := queue.NewAMQPPublisher(cfg.AMQPURL)
	consumer := queue.NewConsumer(cfg.AMQPURL, mailer)
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := consumer.Start(consumerCtx); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	stripeProvider := payment.NewStripeProvider(cfg.StripeSecretKey)

	// Services
	userService := service.NewUserService(userRepo, jwtService, tokens, sessions, mailer)
	courseService := service.NewCourseService(courseRepo, notificationRepo, cacheClient, publisher)
	orderService := service.NewOrderService(userRepo, courseRepo, orderRepo, notificationRepo, cacheClient, stripeProvider, publisher)
	notificationService := service.NewNotificationService(notificationRepo)

	// Handlers
	userHandler := handler.NewUserHandler(userService, jwtService)
	courseHandler := handler.NewCourseHandler(courseService)
	orderHandler := handler.NewOrderHandler(orderService, cfg.StripePublishableKey)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	e := echo.New()
	router.Register(e, jwtService, sessions, userHandler, courseHandler, orderHandler, notificationHandler)

	if cfg.SwaggerHost != "" {
		log.Printf("Swagger documentation available at: http://%s/swagger/index.html", cfg.SwaggerHost)
	} else {
		log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
