package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type User struct {
	ID           uuid.UUID  `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	Role         string     `db:"role"`
	SchoolID     *uuid.UUID `db:"school_id"`
	ClassID      *uuid.UUID `db:"class_id"`
	RegisteredAt time.Time  `db:"registered_at"`
	LastSeenAt   time.Time  `db:"last_seen_at"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         model.Role(u.Role),
		SchoolID:     u.SchoolID,
		ClassID:      u.ClassID,
		RegisteredAt: u.RegisteredAt,
		LastSeenAt:   u.LastSeenAt,
	}
}

// CreateUser inserts the user together with its empty progress and streak
// rows, so every later mutation finds its row present.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"id":            user.ID,
				"username":      user.Username,
				"email":         user.Email,
				"role":          string(user.Role),
				"school_id":     user.SchoolID,
				"class_id":      user.ClassID,
				"registered_at": user.RegisteredAt,
				"last_seen_at":  user.LastSeenAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err, "") {
				return ErrDuplicateUser
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		progressQuery, progressArgs, err := squirrel.
			Insert("user_progress").
			SetMap(map[string]interface{}{
				"user_id":           user.ID,
				"total_points":      0,
				"level":             1,
				"completed_lessons": 0,
				"approved_tasks":    0,
				"quiz_attempts":     0,
				"best_quiz_score":   0,
				"updated_at":        user.RegisteredAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build progress insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, progressQuery, progressArgs...); err != nil {
			return fmt.Errorf("failed to insert user progress: %w", err)
		}

		streakQuery, streakArgs, err := squirrel.
			Insert("user_streaks").
			SetMap(map[string]interface{}{
				"user_id":        user.ID,
				"current_streak": 0,
				"longest_streak": 0,
				"multiplier":     model.BaseMultiplier,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build streak insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, streakQuery, streakArgs...); err != nil {
			return fmt.Errorf("failed to insert user streak: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) UpdateUserRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Update("users").
		Set("role", string(role)).
		Where(squirrel.Eq{"id": userID}).
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

func (r *Repository) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Update("users").
		Set("last_seen_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("id").
		From("users").
		OrderBy("registered_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, err
	}

	return ids, nil
}
