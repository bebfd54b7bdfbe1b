package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/HK9750/LMS-BACKEND/internal/config"
	"github.com/HK9750/LMS-BACKEND/internal/db"
	"github.com/HK9750/LMS-BACKEND/internal/model"
	"github.com/HK9750/LMS-BACKEND/internal/repository"
)

const (
	adminEmail    = "admin@lms.local"
	adminPassword = "change-me-now"
)

func main() {
	log.Println("Starting seed script...")

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Course{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	users := repository.NewUserRepository(gormDB)
	courses := repository.NewCourseRepository(gormDB)

	if err := seedAdmin(ctx, users); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	created, err := seedCourses(ctx, courses)
	if err != nil {
		log.Fatalf("Failed to seed courses: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Demo courses created: %d", created)
}

// seedAdmin ensures a verified admin account exists.
func seedAdmin(ctx context.Context, users repository.UserRepository) error {
	existing, err := users.FindByEmail(ctx, adminEmail)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if existing != nil {
		log.Printf("Admin user %s already exists, skipping", adminEmail)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &model.User{
		Name:         "Administrator",
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsVerified:   true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("Created admin user %s", adminEmail)
	return nil
}

// seedCourses inserts demo catalog entries, skipping names already present.
func seedCourses(ctx context.Context, courses repository.CourseRepository) (int, error) {
	demo := []model.Course{
		{
			Name:           "Go for Backend Engineers",
			Description:    "Build production HTTP services in Go, from routing to deployment.",
			Price:          decimal.NewFromInt(49),
			EstimatedPrice: decimal.NewFromInt(89),
			Tags:           "go,backend,http",
			Level:          "intermediate",
			Benefits:       []model.Titled{{Title: "Ship a production-grade API"}},
			Prerequisites:  []model.Titled{{Title: "Basic programming experience"}},
		},
		{
			Name:           "MySQL Performance Fundamentals",
			Description:    "Indexes, locking and query plans explained with real workloads.",
			Price:          decimal.NewFromInt(39),
			EstimatedPrice: decimal.NewFromInt(59),
			Tags:           "mysql,database,performance",
			Level:          "beginner",
			Benefits:       []model.Titled{{Title: "Read and act on EXPLAIN output"}},
			Prerequisites:  []model.Titled{{Title: "Basic SQL"}},
		},
	}

	created := 0
	for i := range demo {
		existing, err := courses.SearchByName(ctx, demo[i].Name)
		if err != nil {
			return created, err
		}
		if len(existing) > 0 {
			log.Printf("Course %q already exists, skipping", demo[i].Name)
			continue
		}
		if err := courses.Create(ctx, &demo[i]); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
