package repository

import (
	"context"
	"fmt"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type notification struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Type      string    `db:"type"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Metadata  []byte    `db:"metadata"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (n *notification) toModel() (*model.Notification, error) {
	metadata := make(map[string]any)
	if len(n.Metadata) > 0 {
		if err := json.Unmarshal(n.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for notification %s: %w", n.ID, err)
		}
	}

	return &model.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      model.NotificationType(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}, nil
}

func (r *Repository) InsertNotification(ctx context.Context, n *model.Notification) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode notification metadata: %w", err)
	}

	query, args, err := squirrel.
		Insert("notifications").
		SetMap(map[string]interface{}{
			"id":         n.ID,
			"user_id":    n.UserID,
			"type":       string(n.Type),
			"title":      n.Title,
			"message":    n.Message,
			"metadata":   metadata,
			"is_read":    n.IsRead,
			"created_at": n.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build notification insert query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	builder := squirrel.
		Select("*").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)
	if unreadOnly {
		builder = builder.Where(squirrel.Eq{"is_read": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []notification
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	notifications := make([]*model.Notification, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, nil
}

// Mutations below are scoped to the owning user: the user_id predicate means
// one user can never touch another's notifications.

func (r *Repository) MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": notificationID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"user_id": userID, "is_read": false}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) DeleteNotification(ctx context.Context, userID, notificationID uuid.UUID) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Delete("notifications").
		Where(squirrel.Eq{"id": notificationID, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
