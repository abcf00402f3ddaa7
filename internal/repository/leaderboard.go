package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type leaderboardRow struct {
	UserID   uuid.UUID `db:"user_id"`
	Username string    `db:"username"`
	Points   int       `db:"points"`
	Level    int       `db:"level"`
}

func scopeFilter(scope model.LeaderboardScope, scopeID *uuid.UUID) squirrel.Sqlizer {
	switch scope {
	case model.ScopeSchool:
		return squirrel.Eq{"u.school_id": scopeID}
	case model.ScopeClass:
		return squirrel.Eq{"u.class_id": scopeID}
	default:
		return nil
	}
}

// AggregateScores ranks users by points within the period window. All-time
// reads the cached projection; bounded periods sum log deltas inside the
// window, which is what keeps daily/weekly/monthly boards honest. The log
// join is outer so users without window activity rank at zero, matching
// UserRank. Ties break on earliest projection update so the order is
// deterministic.
func (r *Repository) AggregateScores(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod, limit int, now time.Time) ([]model.LeaderboardEntry, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var builder squirrel.SelectBuilder

	since, windowed := period.WindowStart(now)
	if windowed {
		builder = squirrel.
			Select(
				"u.id AS user_id",
				"u.username",
				"COALESCE(SUM(pl.delta), 0) AS points",
				"up.level",
			).
			From("users u").
			Join("user_progress up ON up.user_id = u.id").
			LeftJoin("points_log pl ON pl.user_id = u.id AND pl.created_at >= ?", since).
			GroupBy("u.id", "u.username", "up.level", "up.updated_at").
			OrderBy("points DESC", "up.updated_at ASC")
	} else {
		builder = squirrel.
			Select(
				"up.user_id",
				"u.username",
				"up.total_points AS points",
				"up.level",
			).
			From("user_progress up").
			Join("users u ON u.id = up.user_id").
			OrderBy("points DESC", "up.updated_at ASC")
	}

	if filter := scopeFilter(scope, scopeID); filter != nil {
		builder = builder.Where(filter)
	}

	query, args, err := builder.
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard query: %w", err)
	}

	var rows []leaderboardRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = model.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   row.UserID,
			Username: row.Username,
			Points:   row.Points,
			Level:    row.Level,
		}
	}

	return entries, nil
}

// UserRank counts users strictly ahead of the target under the same
// ordering AggregateScores uses.
func (r *Repository) UserRank(ctx context.Context, userID uuid.UUID, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod, now time.Time) (int, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	scopeClause := ""
	args := []interface{}{userID}
	switch scope {
	case model.ScopeSchool:
		scopeClause = "AND u.school_id = $2"
		args = append(args, scopeID)
	case model.ScopeClass:
		scopeClause = "AND u.class_id = $2"
		args = append(args, scopeID)
	}

	var query string
	since, windowed := period.WindowStart(now)
	if windowed {
		next := len(args) + 1
		query = fmt.Sprintf(`
WITH scores AS (
    SELECT u.id AS user_id, COALESCE(SUM(pl.delta), 0) AS points, up.updated_at
    FROM users u
    JOIN user_progress up ON up.user_id = u.id
    LEFT JOIN points_log pl ON pl.user_id = u.id AND pl.created_at >= $%d
    WHERE true %s
    GROUP BY u.id, up.updated_at
)
SELECT COUNT(*) + 1
FROM scores s, scores me
WHERE me.user_id = $1
  AND s.user_id <> $1
  AND (s.points > me.points OR (s.points = me.points AND s.updated_at < me.updated_at))`,
			next, scopeClause)
		args = append(args, since)
	} else {
		query = fmt.Sprintf(`
WITH scores AS (
    SELECT u.id AS user_id, up.total_points AS points, up.updated_at
    FROM users u
    JOIN user_progress up ON up.user_id = u.id
    WHERE true %s
)
SELECT COUNT(*) + 1
FROM scores s, scores me
WHERE me.user_id = $1
  AND s.user_id <> $1
  AND (s.points > me.points OR (s.points = me.points AND s.updated_at < me.updated_at))`,
			scopeClause)
	}

	var rank int
	err := r.db.GetContext(ctx, &rank, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	return rank, nil
}

type leaderboardSnapshot struct {
	Period      string    `db:"period"`
	Scope       string    `db:"scope"`
	ScopeID     uuid.UUID `db:"scope_id"`
	Entries     []byte    `db:"entries"`
	LastUpdated time.Time `db:"last_updated"`
}

func snapshotScopeID(scopeID *uuid.UUID) uuid.UUID {
	if scopeID == nil {
		return uuid.Nil
	}
	return *scopeID
}

func (r *Repository) GetSnapshot(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod) (*model.LeaderboardSnapshot, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("*").
		From("leaderboard_snapshots").
		Where(squirrel.Eq{
			"period":   string(period),
			"scope":    string(scope),
			"scope_id": snapshotScopeID(scopeID),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var snap leaderboardSnapshot
	err = r.db.GetContext(ctx, &snap, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var entries []model.LeaderboardEntry
	if err := json.Unmarshal(snap.Entries, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot entries: %w", err)
	}

	return &model.LeaderboardSnapshot{
		Period:      period,
		Scope:       scope,
		ScopeID:     scopeID,
		Entries:     entries,
		LastUpdated: snap.LastUpdated,
	}, nil
}

// UpsertSnapshot overwrites the cached board wholesale; concurrent
// recomputes are safe because the latest write wins.
func (r *Repository) UpsertSnapshot(ctx context.Context, snap *model.LeaderboardSnapshot) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	entries, err := json.Marshal(snap.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot entries: %w", err)
	}

	query, args, err := squirrel.
		Insert("leaderboard_snapshots").
		SetMap(map[string]interface{}{
			"period":       string(snap.Period),
			"scope":        string(snap.Scope),
			"scope_id":     snapshotScopeID(snap.ScopeID),
			"entries":      entries,
			"last_updated": snap.LastUpdated,
		}).
		Suffix("ON CONFLICT (period, scope, scope_id) DO UPDATE SET entries = EXCLUDED.entries, last_updated = EXCLUDED.last_updated").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build snapshot upsert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
