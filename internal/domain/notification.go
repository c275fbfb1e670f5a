package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBudgetWarning  NotificationType = "budget_warning"
	NotificationBudgetExceeded NotificationType = "budget_exceeded"
	NotificationSystem         NotificationType = "system"
)

type Notification struct {
	ID        int32            `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	BudgetID  *int32           `json:"budgetId,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

type PaginatedNotifications struct {
	Data       []*Notification `json:"data"`
	Page       int32           `json:"page"`
	PageSize   int32           `json:"pageSize"`
	TotalItems int64           `json:"totalItems"`
	TotalPages int32           `json:"totalPages"`
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) (*Notification, error)
	GetByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page Page) (*PaginatedNotifications, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID uuid.UUID, id int32) (*Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID uuid.UUID, id int32) error
}
