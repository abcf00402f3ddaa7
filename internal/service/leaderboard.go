package service

import (
	"context"
	"errors"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"
	"ecolearn_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type LeaderboardService struct {
	repo        LeaderboardRepository
	snapshotTTL time.Duration
	bus         *EventBus
}

func NewLeaderboardService(repo LeaderboardRepository, snapshotTTL time.Duration, bus *EventBus) *LeaderboardService {
	return &LeaderboardService{
		repo:        repo,
		snapshotTTL: snapshotTTL,
		bus:         bus,
	}
}

func validateBoard(scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	if !period.Valid() {
		return ErrInvalidPeriod
	}
	if scope != model.ScopeGlobal && scopeID == nil {
		return ErrScopeIDRequired
	}
	return nil
}

// GetLeaderboard serves the cached snapshot while it is within the
// staleness bound, otherwise recomputes from the ledger and refreshes the
// snapshot. A snapshot write failure only degrades caching, never the read.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod, limit int) ([]model.LeaderboardEntry, error) {
	if err := validateBoard(scope, scopeID, period); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	now := time.Now().UTC()

	// Snapshots are always computed at maxLeaderboardLimit and limit is
	// capped there, so a short fresh snapshot holds the entire board and
	// is served as-is.
	snap, err := s.repo.GetSnapshot(ctx, scope, scopeID, period)
	if err == nil && now.Sub(snap.LastUpdated) <= s.snapshotTTL {
		entries := snap.Entries
		if len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Logger().Error("failed to read leaderboard snapshot, falling back to live aggregation",
			zap.Error(err))
	}

	entries, err := s.repo.AggregateScores(ctx, scope, scopeID, period, maxLeaderboardLimit, now)
	if err != nil {
		return nil, err
	}

	err = s.repo.UpsertSnapshot(ctx, &model.LeaderboardSnapshot{
		Period:      period,
		Scope:       scope,
		ScopeID:     scopeID,
		Entries:     entries,
		LastUpdated: now,
	})
	if err != nil {
		logger.Logger().Error("failed to refresh leaderboard snapshot", zap.Error(err))
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *LeaderboardService) GetUserRank(ctx context.Context, userID uuid.UUID, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod) (int, error) {
	if err := validateBoard(scope, scopeID, period); err != nil {
		return 0, err
	}

	rank, err := s.repo.UserRank(ctx, userID, scope, scopeID, period, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	return rank, nil
}

// Refresh recomputes one board immediately, regardless of snapshot age.
func (s *LeaderboardService) Refresh(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod) error {
	if err := validateBoard(scope, scopeID, period); err != nil {
		return err
	}

	now := time.Now().UTC()
	entries, err := s.repo.AggregateScores(ctx, scope, scopeID, period, maxLeaderboardLimit, now)
	if err != nil {
		return err
	}

	err = s.repo.UpsertSnapshot(ctx, &model.LeaderboardSnapshot{
		Period:      period,
		Scope:       scope,
		ScopeID:     scopeID,
		Entries:     entries,
		LastUpdated: now,
	})
	if err != nil {
		return err
	}

	if s.bus != nil {
		s.bus.Publish("leaderboard_updated", uuid.Nil, map[string]any{
			"scope":  string(scope),
			"period": string(period),
		})
	}

	return nil
}

// RunSnapshotJob periodically recomputes the global boards. Overlapping runs
// are harmless: each overwrites the snapshot wholesale and the latest wins.
func (s *LeaderboardService) RunSnapshotJob(ctx context.Context, interval time.Duration) {
	log := logger.Logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	periods := []model.LeaderboardPeriod{
		model.PeriodDaily,
		model.PeriodWeekly,
		model.PeriodMonthly,
		model.PeriodAllTime,
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("leaderboard snapshot job stopped")
			return
		case <-ticker.C:
			for _, period := range periods {
				if err := s.Refresh(ctx, model.ScopeGlobal, nil, period); err != nil {
					log.Error("failed to refresh leaderboard snapshot",
						zap.String("period", string(period)),
						zap.Error(err))
				}
			}
		}
	}
}
