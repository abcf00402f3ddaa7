package repository

import (
	"context"
	"database/sql"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type userStreak struct {
	UserID           uuid.UUID  `db:"user_id"`
	CurrentStreak    int        `db:"current_streak"`
	LongestStreak    int        `db:"longest_streak"`
	LastActivityDate *time.Time `db:"last_activity_date"`
	Multiplier       float64    `db:"multiplier"`
}

func (s *userStreak) toModel() *model.UserStreak {
	return &model.UserStreak{
		UserID:           s.UserID,
		CurrentStreak:    s.CurrentStreak,
		LongestStreak:    s.LongestStreak,
		LastActivityDate: s.LastActivityDate,
		Multiplier:       s.Multiplier,
	}
}

func (r *Repository) GetStreak(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("*").
		From("user_streaks").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var streak userStreak
	err = r.db.GetContext(ctx, &streak, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return streak.toModel(), nil
}

// AdvanceStreak writes the computed streak state guarded on the activity
// date: the row only moves if last_activity_date is still behind day.
// Returns false when a concurrent touch already claimed today, which is the
// compare-and-set that keeps same-day replays idempotent.
func (r *Repository) AdvanceStreak(ctx context.Context, userID uuid.UUID, day time.Time, current, longest int, multiplier float64) (bool, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Update("user_streaks").
		SetMap(map[string]interface{}{
			"current_streak":     current,
			"longest_streak":     longest,
			"last_activity_date": day,
			"multiplier":         multiplier,
		}).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Expr("(last_activity_date IS NULL OR last_activity_date < ?)", day)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
