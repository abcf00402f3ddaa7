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

type pointsLogEntry struct {
	ID           uuid.UUID  `db:"id"`
	UserID       uuid.UUID  `db:"user_id"`
	Delta        int        `db:"delta"`
	Reason       string     `db:"reason"`
	ActivityType string     `db:"activity_type"`
	ActivityID   *uuid.UUID `db:"activity_id"`
	CreatedAt    time.Time  `db:"created_at"`
}

type userProgress struct {
	UserID           uuid.UUID `db:"user_id"`
	TotalPoints      int       `db:"total_points"`
	Level            int       `db:"level"`
	CompletedLessons int       `db:"completed_lessons"`
	ApprovedTasks    int       `db:"approved_tasks"`
	QuizAttempts     int       `db:"quiz_attempts"`
	BestQuizScore    float64   `db:"best_quiz_score"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (p *userProgress) toModel() *model.UserProgress {
	return &model.UserProgress{
		UserID:           p.UserID,
		TotalPoints:      p.TotalPoints,
		Level:            p.Level,
		CompletedLessons: p.CompletedLessons,
		ApprovedTasks:    p.ApprovedTasks,
		QuizAttempts:     p.QuizAttempts,
		BestQuizScore:    p.BestQuizScore,
		UpdatedAt:        p.UpdatedAt,
	}
}

// AppendPoints writes one immutable log entry and the matching projection
// update in a single transaction. The progress row is locked first so
// concurrent appends for the same user serialize instead of losing updates.
func (r *Repository) AppendPoints(ctx context.Context, entry *model.PointsLogEntry) (*model.AwardResult, error) {
	var result model.AwardResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		lockQuery, lockArgs, err := squirrel.
			Select("*").
			From("user_progress").
			Where(squirrel.Eq{"user_id": entry.UserID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var progress userProgress
		err = tx.GetContext(ctx, &progress, lockQuery, lockArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock user progress: %w", err)
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("points_log").
			SetMap(map[string]interface{}{
				"id":            entry.ID,
				"user_id":       entry.UserID,
				"delta":         entry.Delta,
				"reason":        entry.Reason,
				"activity_type": string(entry.ActivityType),
				"activity_id":   entry.ActivityID,
				"created_at":    entry.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build points log insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			if isUniqueViolation(err, "points_log_user_activity_key") {
				return ErrDuplicateActivity
			}
			return fmt.Errorf("failed to insert points log entry: %w", err)
		}

		newTotal := progress.TotalPoints + entry.Delta
		newLevel := model.LevelForPoints(newTotal)

		update := map[string]interface{}{
			"total_points": newTotal,
			"level":        newLevel,
			"updated_at":   entry.CreatedAt,
		}
		switch entry.ActivityType {
		case model.ActivityLessonCompleted:
			update["completed_lessons"] = progress.CompletedLessons + 1
		case model.ActivityTaskApproved:
			update["approved_tasks"] = progress.ApprovedTasks + 1
		}

		updateQuery, updateArgs, err := squirrel.
			Update("user_progress").
			SetMap(update).
			Where(squirrel.Eq{"user_id": entry.UserID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build progress update query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to update user progress: %w", err)
		}

		result = model.AwardResult{
			NewTotal:  newTotal,
			NewLevel:  newLevel,
			LeveledUp: newLevel > progress.Level,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *Repository) GetProgress(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("*").
		From("user_progress").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var progress userProgress
	err = r.db.GetContext(ctx, &progress, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return progress.toModel(), nil
}

// RecordQuizScore bumps the attempt counter and keeps the best score. The
// points for the quiz travel through AppendPoints separately.
func (r *Repository) RecordQuizScore(ctx context.Context, userID uuid.UUID, score float64) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Update("user_progress").
		Set("quiz_attempts", squirrel.Expr("quiz_attempts + 1")).
		Set("best_quiz_score", squirrel.Expr("GREATEST(best_quiz_score, ?)", score)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"user_id": userID}).
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

func (r *Repository) PointsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PointsLogEntry, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("id", "user_id", "delta", "reason", "activity_type", "activity_id", "created_at").
		From("points_log").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []pointsLogEntry
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	entries := make([]*model.PointsLogEntry, len(rows))
	for i, row := range rows {
		entries[i] = &model.PointsLogEntry{
			ID:           row.ID,
			UserID:       row.UserID,
			Delta:        row.Delta,
			Reason:       row.Reason,
			ActivityType: model.ActivityType(row.ActivityType),
			ActivityID:   row.ActivityID,
			CreatedAt:    row.CreatedAt,
		}
	}

	return entries, nil
}

// RecomputeProgress re-derives the cached total from the log and reports the
// drift that was corrected. The reconciler calls this to self-heal the
// projection; it is idempotent on replay.
func (r *Repository) RecomputeProgress(ctx context.Context, userID uuid.UUID) (int, error) {
	var drift int

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		lockQuery, lockArgs, err := squirrel.
			Select("*").
			From("user_progress").
			Where(squirrel.Eq{"user_id": userID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var progress userProgress
		err = tx.GetContext(ctx, &progress, lockQuery, lockArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		sumQuery, sumArgs, err := squirrel.
			Select("COALESCE(SUM(delta), 0)").
			From("points_log").
			Where(squirrel.Eq{"user_id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var total int
		if err := tx.GetContext(ctx, &total, sumQuery, sumArgs...); err != nil {
			return err
		}

		drift = total - progress.TotalPoints
		if drift == 0 {
			return nil
		}

		updateQuery, updateArgs, err := squirrel.
			Update("user_progress").
			SetMap(map[string]interface{}{
				"total_points": total,
				"level":        model.LevelForPoints(total),
			}).
			Where(squirrel.Eq{"user_id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		return err
	})
	if err != nil {
		return 0, err
	}

	return drift, nil
}
