package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/model"
	"github.com/HK9750/LMS-BACKEND/internal/payment"
)

type orderServiceMocks struct {
	users     *MockUserRepository
	courses   *MockCourseRepository
	orders    *MockOrderRepository
	notifs    *MockNotificationRepository
	provider  *MockProvider
	publisher *MockPublisher
}

func newOrderServiceForTest() (OrderService, orderServiceMocks) {
	m := orderServiceMocks{
		users:     new(MockUserRepository),
		courses:   new(MockCourseRepository),
		orders:    new(MockOrderRepository),
		notifs:    new(MockNotificationRepository),
		provider:  new(MockProvider),
		publisher: new(MockPublisher),
	}
	svc := NewOrderService(m.users, m.courses, m.orders, m.notifs, nil, m.provider, m.publisher)
	return svc, m
}

func TestOrderService_CreateOrder(t *testing.T) {
	courseID := uuid.New()
	buyerID := uuid.New()
	course := &model.Course{ID: courseID, Name: "Test Course", Price: decimal.NewFromInt(49)}

	t.Run("successful purchase enrolls the buyer and records the order", func(t *testing.T) {
		svc, m := newOrderServiceForTest()
		buyer := &model.User{ID: buyerID, Name: "Buyer", Email: "buyer@example.com", Courses: []model.Enrollment{}}

		m.courses.On("FindByID", mock.Anything, courseID).Return(course, nil)
		m.users.On("FindByID", mock.Anything, buyerID).Return(buyer, nil)
		m.provider.On("RetrievePaymentStatus", mock.Anything, "pi_123").Return(payment.StatusSucceeded, nil)
		m.users.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		m.users.On("FindByIDForUpdate", mock.Anything, buyerID).Return(buyer, nil)
		m.users.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
		m.courses.On("IncrementPurchased", mock.Anything, courseID).Return(nil)
		m.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).Return(nil)
		m.notifs.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)
		m.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		order, got, err := svc.CreateOrder(context.Background(), buyerID, courseID, "pi_123")

		assert.NoError(t, err)
		assert.Equal(t, courseID, order.CourseID)
		assert.Equal(t, buyerID, order.UserID)
		assert.True(t, order.Amount.Equal(course.Price))
		assert.Equal(t, course.Name, got.Name)
		assert.True(t, buyer.IsEnrolled(courseID))
		m.users.AssertExpectations(t)
		m.orders.AssertExpectations(t)
	})

	t.Run("repeat purchase fails on the snapshot pre-check", func(t *testing.T) {
		svc, m := newOrderServiceForTest()
		enrolled := &model.User{ID: buyerID, Courses: []model.Enrollment{{CourseID: courseID}}}

		m.courses.On("FindByID", mock.Anything, courseID).Return(course, nil)
		m.users.On("FindByID", mock.Anything, buyerID).Return(enrolled, nil)

		order, _, err := svc.CreateOrder(context.Background(), buyerID, courseID, "pi_123")

		assert.ErrorIs(t, err, errors.ErrAlreadyPurchased)
		assert.Nil(t, order)
		m.provider.AssertNotCalled(t, "RetrievePaymentStatus", mock.Anything, mock.Anything)
		m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("concurrent double submit loses under the row lock", func(t *testing.T) {
		svc, m := newOrderServiceForTest()
		snapshot := &model.User{ID: buyerID, Courses: []model.Enrollment{}}
		locked := &model.User{ID: buyerID, Courses: []model.Enrollment{{CourseID: courseID}}}

		m.courses.On("FindByID", mock.Anything, courseID).Return(course, nil)
		m.users.On("FindByID", mock.Anything, buyerID).Return(snapshot, nil)
		m.provider.On("RetrievePaymentStatus", mock.Anything, "pi_123").Return(payment.StatusSucceeded, nil)
		m.users.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		m.users.On("FindByIDForUpdate", mock.Anything, buyerID).Return(locked, nil)

		order, _, err := svc.CreateOrder(context.Background(), buyerID, courseID, "pi_123")

		assert.ErrorIs(t, err, errors.ErrAlreadyPurchased)
		assert.Nil(t, order)
		m.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("pending payment is not an enrollment", func(t *testing.T) {
		svc, m := newOrderServiceForTest()
		buyer := &model.User{ID: buyerID, Courses: []model.Enrollment{}}

		m.courses.On("FindByID", mock.Anything, courseID).Return(course, nil)
		m.users.On("FindByID", mock.Anything, buyerID).Return(buyer, nil)
		m.provider.On("RetrievePaymentStatus", mock.Anything, "pi_pending").Return(payment.StatusPending, nil)

		order, _, err := svc.CreateOrder(context.Background(), buyerID, courseID, "pi_pending")

		assert.ErrorIs(t, err, errors.ErrPaymentNotConfirmed)
		assert.Nil(t, order)
		m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("provider outage surfaces as a dependency failure", func(t *testing.T) {
		svc, m := newOrderServiceForTest()
		buyer := &model.User{ID: buyerID, Courses: []model.Enrollment{}}

		m.courses.On("FindByID", mock.Anything, courseID).Return(course, nil)
		m.users.On("FindByID", mock.Anything, buyerID).Return(buyer, nil)
		m.provider.On("RetrievePaymentStatus", mock.Anything, "pi_123").Return(payment.StatusFailed, assert.AnError)

		_, _, err := svc.CreateOrder(context.Background(), buyerID, courseID, "pi_123")

		assert.ErrorIs(t, err, errors.ErrDependencyFailure)
	})

	t.Run("unknown course", func(t *testing.T) {
		svc, m := newOrderServiceForTest()
		m.courses.On("FindByID", mock.Anything, courseID).Return(nil, gorm.ErrRecordNotFound)

		_, _, err := svc.CreateOrder(context.Background(), buyerID, courseID, "pi_123")

		assert.ErrorIs(t, err, errors.ErrCourseNotFound)
	})
}

func TestOrderService_CreatePaymentIntent(t *testing.T) {
	courseID := uuid.New()

	t.Run("charges the course price in cents", func(t *testing.T) {
		svc, m := newOrderServiceForTest()
		m.courses.On("FindByID", mock.Anything, courseID).Return(&model.Course{
			ID:    courseID,
			Price: decimal.NewFromFloat(49.99),
		}, nil)
		m.provider.On("CreatePaymentIntent", mock.Anything, int64(4999), mock.Anything).Return("secret_abc", nil)

		secret, err := svc.CreatePaymentIntent(context.Background(), courseID)

		assert.NoError(t, err)
		assert.Equal(t, "secret_abc", secret)
		m.provider.AssertExpectations(t)
	})

	t.Run("provider failure maps to dependency failure", func(t *testing.T) {
		svc, m := newOrderServiceForTest()
		m.courses.On("FindByID", mock.Anything, courseID).Return(&model.Course{
			ID:    courseID,
			Price: decimal.NewFromInt(10),
		}, nil)
		m.provider.On("CreatePaymentIntent", mock.Anything, int64(1000), mock.Anything).Return("", assert.AnError)

		_, err := svc.CreatePaymentIntent(context.Background(), courseID)

		assert.ErrorIs(t, err, errors.ErrDependencyFailure)
	})
}

func TestOrderService_ReconcilePurchases(t *testing.T) {
	driftedID := uuid.New()
	correctID := uuid.New()

	svc, m := newOrderServiceForTest()
	m.courses.On("FindAll", mock.Anything).Return([]model.Course{
		{ID: driftedID, Purchased: 3},
		{ID: correctID, Purchased: 7},
	}, nil)
	m.orders.On("CountByCourse", mock.Anything, driftedID).Return(int64(5), nil)
	m.orders.On("CountByCourse", mock.Anything, correctID).Return(int64(7), nil)
	m.courses.On("SetPurchased", mock.Anything, driftedID, int64(5)).Return(nil)

	fixed, err := svc.ReconcilePurchases(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, fixed)
	m.courses.AssertNotCalled(t, "SetPurchased", mock.Anything, correctID, mock.Anything)
	m.courses.AssertExpectations(t)
}
