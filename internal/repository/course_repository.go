package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/HK9750/LMS-BACKEND/internal/model"
)

// CourseRepository defines course persistence operations. Nested-array
// mutations go through WithTransaction + FindByIDForUpdate so the whole
// read-modify-write of a course document holds the row lock.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Course, error)
	FindAll(ctx context.Context) ([]model.Course, error)
	SearchByName(ctx context.Context, name string) ([]model.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementPurchased(ctx context.Context, id uuid.UUID) error
	SetPurchased(ctx context.Context, id uuid.UUID, count int64) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo CourseRepository) error) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

// Create creates a new course.
func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

// Update persists the whole course document.
func (r *courseRepository) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

// FindByID finds a course by ID.
func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDForUpdate finds a course by ID with a row-level lock.
func (r *courseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// FindAll lists all courses, newest first.
func (r *courseRepository) FindAll(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

// SearchByName lists courses whose name contains the given fragment.
func (r *courseRepository) SearchByName(ctx context.Context, name string) ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.WithContext(ctx).Where("name LIKE ?", "%"+name+"%").
		Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

// Delete removes a course by ID.
func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Course{}).Error
}

// IncrementPurchased bumps the denormalized purchase counter atomically in
// SQL, never from a possibly stale in-memory value.
func (r *courseRepository) IncrementPurchased(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ?", id).
		UpdateColumn("purchased", gorm.Expr("purchased + 1")).Error
}

// SetPurchased overwrites the purchase counter. Used by reconciliation only.
func (r *courseRepository) SetPurchased(ctx context.Context, id uuid.UUID, count int64) error {
	return r.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ?", id).
		UpdateColumn("purchased", count).Error
}

// WithTransaction executes a function within a database transaction.
func (r *courseRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo CourseRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &courseRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
