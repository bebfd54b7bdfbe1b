package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/HK9750/LMS-BACKEND/internal/cache"
	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/model"
	"github.com/HK9750/LMS-BACKEND/internal/payment"
	"github.com/HK9750/LMS-BACKEND/internal/queue"
	"github.com/HK9750/LMS-BACKEND/internal/repository"
)

// OrderService records purchases: enrollment grant, purchase counter and the
// immutable order row, coordinated with payment confirmation.
type OrderService interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, courseID uuid.UUID, paymentRef string) (*model.Order, *model.Course, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	CreatePaymentIntent(ctx context.Context, courseID uuid.UUID) (clientSecret string, err error)
	ReconcilePurchases(ctx context.Context) (fixed int, err error)
}

type orderService struct {
	users     repository.UserRepository
	courses   repository.CourseRepository
	orders    repository.OrderRepository
	notifs    repository.NotificationRepository
	cache     *cache.Client
	provider  payment.Provider
	publisher queue.Publisher
}

// NewOrderService creates a new order service.
func NewOrderService(
	users repository.UserRepository,
	courses repository.CourseRepository,
	orders repository.OrderRepository,
	notifs repository.NotificationRepository,
	cache *cache.Client,
	provider payment.Provider,
	publisher queue.Publisher,
) OrderService {
	return &orderService{
		users:     users,
		courses:   courses,
		orders:    orders,
		notifs:    notifs,
		cache:     cache,
		provider:  provider,
		publisher: publisher,
	}
}

// CreateOrder grants course access to the buyer. The enrollment append runs
// under a row lock on the user, so a double submission finds the first
// enrollment already present and fails with ErrAlreadyPurchased. The purchase
// counter increments as an atomic SQL expression; drift against the orders
// table is repaired by ReconcilePurchases.
func (s *orderService) CreateOrder(ctx context.Context, buyerID, courseID uuid.UUID, paymentRef string) (*model.Order, *model.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errors.ErrCourseNotFound
		}
		return nil, nil, err
	}

	// Pre-check against the caller's snapshot to fail fast; the authoritative
	// check repeats under the lock below.
	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errors.ErrUserNotFound
		}
		return nil, nil, err
	}
	if buyer.IsEnrolled(courseID) {
		return nil, nil, errors.ErrAlreadyPurchased
	}

	if paymentRef != "" {
		status, err := s.provider.RetrievePaymentStatus(ctx, paymentRef)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errors.ErrDependencyFailure, err)
		}
		if status != payment.StatusSucceeded {
			return nil, nil, errors.ErrPaymentNotConfirmed
		}
	}

	err = s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		locked, err := repo.FindByIDForUpdate(ctx, buyerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrUserNotFound
			}
			return err
		}
		if locked.IsEnrolled(courseID) {
			return errors.ErrAlreadyPurchased
		}
		locked.Courses = append(locked.Courses, model.Enrollment{
			CourseID:    courseID,
			CourseTitle: course.Name,
		})
		if err := repo.Update(ctx, locked); err != nil {
			return fmt.Errorf("persist enrollment: %w", err)
		}
		buyer = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.courses.IncrementPurchased(ctx, courseID); err != nil {
		// Enrollment is already durable; the counter catches up at reconcile.
		log.Printf("increment purchased for %s: %v", courseID, err)
	}

	order := &model.Order{
		UserID:     buyerID,
		CourseID:   courseID,
		Amount:     course.Price,
		PaymentRef: paymentRef,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}

	// Buyer snapshot changed and the course counter moved.
	_ = s.cache.Delete(ctx, fmt.Sprintf("course:%s", courseID.String()))

	if err := s.notifs.Create(ctx, &model.Notification{
		UserID:  buyerID,
		Title:   "Order Placed",
		Message: fmt.Sprintf("%s purchased %s", buyer.Name, course.Name),
	}); err != nil {
		log.Printf("create order notification: %v", err)
	}

	event := queue.Event{
		Kind:      queue.KindOrderPlaced,
		Recipient: buyer.Email,
		Subject:   "Order Placed",
		Template:  "order_confirmation.html",
		Data: map[string]string{
			"Name":       buyer.Name,
			"CourseName": course.Name,
			"Amount":     course.Price.StringFixed(2),
			"Date":       time.Now().UTC().Format("January 2, 2006"),
		},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish order event: %v", err)
	}

	return order, course, nil
}

// ListOrders lists all orders, newest first.
func (s *orderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.orders.FindAll(ctx)
}

// CreatePaymentIntent opens a payment intent for a course's price and returns
// the client secret.
func (s *orderService) CreatePaymentIntent(ctx context.Context, courseID uuid.UUID) (string, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrCourseNotFound
		}
		return "", err
	}
	amountCents := course.Price.Mul(decimal.NewFromInt(100)).IntPart()
	secret, err := s.provider.CreatePaymentIntent(ctx, amountCents, map[string]string{
		"course_id": courseID.String(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrDependencyFailure, err)
	}
	return secret, nil
}

// ReconcilePurchases recounts each course's purchases from the authoritative
// orders table and rewrites drifted counters. Returns how many were fixed.
func (s *orderService) ReconcilePurchases(ctx context.Context) (int, error) {
	courses, err := s.courses.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, course := range courses {
		count, err := s.orders.CountByCourse(ctx, course.ID)
		if err != nil {
			return fixed, fmt.Errorf("count orders for %s: %w", course.ID, err)
		}
		if count != course.Purchased {
			if err := s.courses.SetPurchased(ctx, course.ID, count); err != nil {
				return fixed, fmt.Errorf("set purchased for %s: %w", course.ID, err)
			}
			_ = s.cache.Delete(ctx, fmt.Sprintf("course:%s", course.ID.String()))
			fixed++
		}
	}
	return fixed, nil
}
