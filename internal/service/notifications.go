package service

import (
	"context"
	"errors"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"

	"github.com/google/uuid"
)

type NotificationService struct {
	repo NotificationRepository
	bus  *EventBus
}

func NewNotificationService(repo NotificationRepository, bus *EventBus) *NotificationService {
	return &NotificationService{
		repo: repo,
		bus:  bus,
	}
}

func (s *NotificationService) Emit(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, metadata map[string]any) (*model.Notification, error) {
	n := &model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.InsertNotification(ctx, n); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(string(kind), userID, metadata)
	}

	return n, nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	return s.repo.ListNotifications(ctx, userID, unreadOnly, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.repo.MarkNotificationRead(ctx, userID, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.repo.DeleteNotification(ctx, userID, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}
