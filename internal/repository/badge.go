package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type badge struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Criteria     []byte    `db:"criteria"`
	RewardPoints int       `db:"reward_points"`
	Rarity       string    `db:"rarity"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
}

func (b *badge) toModel() (*model.Badge, error) {
	var criteria model.BadgeCriteria
	if err := json.Unmarshal(b.Criteria, &criteria); err != nil {
		return nil, fmt.Errorf("failed to decode criteria for badge %s: %w", b.ID, err)
	}

	return &model.Badge{
		ID:           b.ID,
		Name:         b.Name,
		Description:  b.Description,
		Criteria:     criteria,
		RewardPoints: b.RewardPoints,
		Rarity:       b.Rarity,
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
	}, nil
}

func (r *Repository) CreateBadge(ctx context.Context, b *model.Badge) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	criteria, err := json.Marshal(b.Criteria)
	if err != nil {
		return fmt.Errorf("failed to encode badge criteria: %w", err)
	}

	query, args, err := squirrel.
		Insert("badges").
		SetMap(map[string]interface{}{
			"id":            b.ID,
			"name":          b.Name,
			"description":   b.Description,
			"criteria":      criteria,
			"reward_points": b.RewardPoints,
			"rarity":        b.Rarity,
			"is_active":     b.IsActive,
			"created_at":    b.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build badge insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert badge: %w", err)
	}

	return nil
}

func (r *Repository) UpdateBadge(ctx context.Context, b *model.Badge) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	criteria, err := json.Marshal(b.Criteria)
	if err != nil {
		return fmt.Errorf("failed to encode badge criteria: %w", err)
	}

	query, args, err := squirrel.
		Update("badges").
		SetMap(map[string]interface{}{
			"name":          b.Name,
			"description":   b.Description,
			"criteria":      criteria,
			"reward_points": b.RewardPoints,
			"rarity":        b.Rarity,
			"is_active":     b.IsActive,
		}).
		Where(squirrel.Eq{"id": b.ID}).
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

func (r *Repository) GetBadge(ctx context.Context, badgeID uuid.UUID) (*model.Badge, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("*").
		From("badges").
		Where(squirrel.Eq{"id": badgeID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var b badge
	err = r.db.GetContext(ctx, &b, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return b.toModel()
}

func (r *Repository) listBadges(ctx context.Context, activeOnly bool) ([]*model.Badge, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	builder := squirrel.
		Select("*").
		From("badges").
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar)
	if activeOnly {
		builder = builder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []badge
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	return collectBadges(rows), nil
}

// collectBadges decodes catalog rows, dropping any row whose stored
// criteria no longer decode. One corrupt badge must not take the whole
// catalog down with it.
func collectBadges(rows []badge) []*model.Badge {
	badges := make([]*model.Badge, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toModel()
		if err != nil {
			logger.Logger().Error("skipping undecodable badge row",
				zap.String("badge_id", rows[i].ID.String()),
				zap.Error(err))
			continue
		}
		badges = append(badges, b)
	}
	return badges
}

func (r *Repository) ListBadges(ctx context.Context) ([]*model.Badge, error) {
	return r.listBadges(ctx, false)
}

func (r *Repository) ListActiveBadges(ctx context.Context) ([]*model.Badge, error) {
	return r.listBadges(ctx, true)
}

type userBadge struct {
	UserID   uuid.UUID `db:"user_id"`
	BadgeID  uuid.UUID `db:"badge_id"`
	EarnedAt time.Time `db:"earned_at"`
}

func (r *Repository) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("user_id", "badge_id", "earned_at").
		From("user_badges").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("earned_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []userBadge
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	owned := make([]*model.UserBadge, len(rows))
	for i, row := range rows {
		owned[i] = &model.UserBadge{
			UserID:   row.UserID,
			BadgeID:  row.BadgeID,
			EarnedAt: row.EarnedAt,
		}
	}

	return owned, nil
}

func (r *Repository) ListUserBadgeIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	badges, err := r.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make(map[uuid.UUID]struct{}, len(badges))
	for _, b := range badges {
		ids[b.BadgeID] = struct{}{}
	}

	return ids, nil
}

// InsertUserBadge awards at most once: the (user_id, badge_id) primary key
// plus ON CONFLICT DO NOTHING makes concurrent evaluations race safely, and
// the loser learns it lost through ErrBadgeAlreadyOwned.
func (r *Repository) InsertUserBadge(ctx context.Context, ub *model.UserBadge) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Insert("user_badges").
		SetMap(map[string]interface{}{
			"user_id":   ub.UserID,
			"badge_id":  ub.BadgeID,
			"earned_at": ub.EarnedAt,
		}).
		Suffix("ON CONFLICT (user_id, badge_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user badge insert query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert user badge: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBadgeAlreadyOwned
	}

	return nil
}

// GetProgressSnapshot assembles the aggregate view the badge evaluator
// needs: projection counters, streak state, per-category approved tasks and
// accumulated impact metrics.
func (r *Repository) GetProgressSnapshot(ctx context.Context, userID uuid.UUID) (*model.ProgressSnapshot, error) {
	progress, err := r.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak, err := r.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Task counts come from the submissions table rather than the
	// projection, so they always agree with the per-category breakdown.
	approvedTasks, err := r.CountApprovedTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &model.ProgressSnapshot{
		TotalPoints:      progress.TotalPoints,
		Level:            progress.Level,
		CompletedLessons: progress.CompletedLessons,
		ApprovedTasks:    approvedTasks,
		ApprovedByCat:    make(map[string]int),
		BestQuizScore:    progress.BestQuizScore,
		CurrentStreak:    streak.CurrentStreak,
		LongestStreak:    streak.LongestStreak,
		Impact:           make(map[string]float64),
	}

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	catQuery, catArgs, err := squirrel.
		Select("t.category", "COUNT(*) AS approved").
		From("task_submissions ts").
		Join("tasks t ON t.id = ts.task_id").
		Where(squirrel.Eq{"ts.user_id": userID, "ts.status": string(model.SubmissionApproved)}).
		GroupBy("t.category").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var catRows []struct {
		Category string `db:"category"`
		Approved int    `db:"approved"`
	}
	if err := r.db.SelectContext(ctx, &catRows, catQuery, catArgs...); err != nil {
		return nil, err
	}
	for _, row := range catRows {
		snapshot.ApprovedByCat[row.Category] = row.Approved
	}

	impactQuery, impactArgs, err := squirrel.
		Select("metric", "total").
		From("user_impact").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var impactRows []struct {
		Metric string  `db:"metric"`
		Total  float64 `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &impactRows, impactQuery, impactArgs...); err != nil {
		return nil, err
	}
	for _, row := range impactRows {
		snapshot.Impact[row.Metric] = row.Total
	}

	return snapshot, nil
}
