package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendly/spendly-backend/internal/domain"
)

const notificationColumns = `id, user_id, type, title, message, budget_id, is_read, created_at`

// NotificationRepository implements domain.NotificationRepository using PostgreSQL
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, budget_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+notificationColumns,
		pgUUID(n.UserID), string(n.Type), n.Title, n.Message, n.BudgetID,
	)
	return scanNotification(row)
}

// GetByUser lists notifications newest first
func (r *NotificationRepository) GetByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page domain.Page) (*domain.PaginatedNotifications, error) {
	q := db(ctx, r.pool)

	var totalItems int64
	if err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)`,
		pgUUID(userID), unreadOnly,
	).Scan(&totalItems); err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		pgUUID(userID), unreadOnly, page.PageSize, page.Offset(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		data = append(data, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.PaginatedNotifications{
		Data:       data,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: totalItems,
		TotalPages: page.TotalPages(totalItems),
	}, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`,
		pgUUID(userID),
	).Scan(&count)
	return count, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID uuid.UUID, id int32) (*domain.Notification, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = $1 AND id = $2
		RETURNING `+notificationColumns,
		pgUUID(userID), id,
	)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

// MarkAllRead marks every unread notification as read and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`,
		pgUUID(userID),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM notifications WHERE user_id = $1 AND id = $2`, pgUUID(userID), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n      domain.Notification
		userID pgtype.UUID
		nType  string
	)
	if err := row.Scan(&n.ID, &userID, &nType, &n.Title, &n.Message, &n.BudgetID, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.UserID = uuid.UUID(userID.Bytes)
	n.Type = domain.NotificationType(nType)
	return &n, nil
}
