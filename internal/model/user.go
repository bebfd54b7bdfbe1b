package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role values stored on User.Role and carried in resolved identities.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Enrollment records a purchased course on the user document. The title is a
// denormalized snapshot taken at purchase time.
type Enrollment struct {
	CourseID    uuid.UUID `json:"course_id"`
	CourseTitle string    `json:"course_title"`
}

// User represents an activated account. Users are created at activation, not
// registration; registration only issues a provisional activation token.
type User struct {
	ID           uuid.UUID                       `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string                          `json:"name" gorm:"size:255;not null"`
	Email        string                          `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string                          `json:"-" gorm:"size:255"` // Never expose in JSON
	Role         string                          `json:"role" gorm:"size:50;default:'user';index"`
	IsVerified   bool                            `json:"is_verified" gorm:"default:false"`
	Courses      datatypes.JSONSlice[Enrollment] `json:"courses" gorm:"type:json"`
	CreatedAt    time.Time                       `json:"created_at"`
	UpdatedAt    time.Time                       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt                  `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsEnrolled reports whether the user holds an enrollment for the course.
func (u *User) IsEnrolled(courseID uuid.UUID) bool {
	for _, e := range u.Courses {
		if e.CourseID == courseID {
			return true
		}
	}
	return false
}

// Author is the denormalized identity snapshot embedded in questions, answers
// and reviews. It is copied at write time, not a live reference; the email is
// kept so reply notifications can reach the author without a user lookup.
type Author struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// AuthorOf snapshots the identity fields used inside course documents.
func AuthorOf(u *User) Author {
	return Author{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
