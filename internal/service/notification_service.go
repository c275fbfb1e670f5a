package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/websocket"
)

// NotificationService stores in-app notifications and pushes them to connected clients
type NotificationService struct {
	notificationRepo domain.NotificationRepository
	eventPublisher   websocket.EventPublisher
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo domain.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *NotificationService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// NotifyInput holds the content of a new notification
type NotifyInput struct {
	Type     domain.NotificationType
	Title    string
	Message  string
	BudgetID *int32
}

// Notify stores a notification and then publishes notification.created
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, input NotifyInput) (*domain.Notification, error) {
	notification, err := s.notificationRepo.Create(ctx, &domain.Notification{
		UserID:   userID,
		Type:     input.Type,
		Title:    input.Title,
		Message:  input.Message,
		BudgetID: input.BudgetID,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Str("type", string(input.Type)).Msg("Failed to create notification")
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, websocket.NotificationCreated(notification))
	}
	return notification, nil
}

// List returns the user's notifications newest first
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, pageSize int32) (*domain.PaginatedNotifications, error) {
	return s.notificationRepo.GetByUser(ctx, userID, unreadOnly, domain.NormalizePage(page, pageSize))
}

// UnreadCount returns how many notifications the user has not read
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, id int32) (*domain.Notification, error) {
	return s.notificationRepo.MarkRead(ctx, userID, id)
}

// MarkAllRead marks every unread notification as read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Delete removes a notification
func (s *NotificationService) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	return s.notificationRepo.Delete(ctx, userID, id)
}
