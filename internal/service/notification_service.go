package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/model"
	"github.com/HK9750/LMS-BACKEND/internal/repository"
)

// NotificationService exposes the durable notification records to the admin
// listing endpoint.
type NotificationService interface {
	List(ctx context.Context) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*model.Notification, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notifications repository.NotificationRepository) NotificationService {
	return &notificationService{notifications: notifications}
}

// List lists all notifications, newest first.
func (s *notificationService) List(ctx context.Context) ([]model.Notification, error) {
	return s.notifications.FindAll(ctx)
}

// MarkRead marks a notification as read.
func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	notification, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotificationNotFound
		}
		return nil, err
	}
	notification.IsRead = true
	if err := s.notifications.Update(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}
