package service

import (
	"context"
	"testing"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"
	"ecolearn_backend/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func boardEntries(n int) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, n)
	for i := range entries {
		entries[i] = model.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   uuid.New(),
			Username: "user",
			Points:   1000 - i*10,
			Level:    10,
		}
	}
	return entries
}

func TestLeaderboardService_GetLeaderboard(t *testing.T) {
	t.Run("Fresh snapshot is served without aggregation", func(t *testing.T) {
		mockRepo := &mocks.MockLeaderboardRepository{}
		mockRepo.On("GetSnapshot", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil), model.PeriodAllTime).
			Return(&model.LeaderboardSnapshot{
				Period:      model.PeriodAllTime,
				Scope:       model.ScopeGlobal,
				Entries:     boardEntries(50),
				LastUpdated: time.Now().UTC().Add(-10 * time.Second),
			}, nil)

		service := NewLeaderboardService(mockRepo, time.Minute, nil)
		entries, err := service.GetLeaderboard(context.Background(),
			model.ScopeGlobal, nil, model.PeriodAllTime, 10)

		assert.NoError(t, err)
		assert.Len(t, entries, 10)
		mockRepo.AssertNotCalled(t, "AggregateScores",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Fresh snapshot shorter than the limit is still served", func(t *testing.T) {
		mockRepo := &mocks.MockLeaderboardRepository{}
		mockRepo.On("GetSnapshot", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil), model.PeriodAllTime).
			Return(&model.LeaderboardSnapshot{
				Period:      model.PeriodAllTime,
				Scope:       model.ScopeGlobal,
				Entries:     boardEntries(4),
				LastUpdated: time.Now().UTC().Add(-10 * time.Second),
			}, nil)

		service := NewLeaderboardService(mockRepo, time.Minute, nil)
		entries, err := service.GetLeaderboard(context.Background(),
			model.ScopeGlobal, nil, model.PeriodAllTime, 10)

		assert.NoError(t, err)
		assert.Len(t, entries, 4)
		mockRepo.AssertNotCalled(t, "AggregateScores",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Expired snapshot triggers recomputation and refresh", func(t *testing.T) {
		mockRepo := &mocks.MockLeaderboardRepository{}
		mockRepo.On("GetSnapshot", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil), model.PeriodAllTime).
			Return(&model.LeaderboardSnapshot{
				Period:      model.PeriodAllTime,
				Scope:       model.ScopeGlobal,
				Entries:     boardEntries(50),
				LastUpdated: time.Now().UTC().Add(-5 * time.Minute),
			}, nil)

		fresh := boardEntries(30)
		mockRepo.On("AggregateScores", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil),
			model.PeriodAllTime, maxLeaderboardLimit, mock.Anything).
			Return(fresh, nil)
		mockRepo.On("UpsertSnapshot", mock.Anything, mock.MatchedBy(func(snap *model.LeaderboardSnapshot) bool {
			return snap.Period == model.PeriodAllTime && len(snap.Entries) == 30
		})).Return(nil)

		service := NewLeaderboardService(mockRepo, time.Minute, nil)
		entries, err := service.GetLeaderboard(context.Background(),
			model.ScopeGlobal, nil, model.PeriodAllTime, 10)

		assert.NoError(t, err)
		assert.Len(t, entries, 10)
		assert.Equal(t, fresh[0].UserID, entries[0].UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Missing snapshot falls through to aggregation", func(t *testing.T) {
		mockRepo := &mocks.MockLeaderboardRepository{}
		mockRepo.On("GetSnapshot", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil), model.PeriodWeekly).
			Return(nil, repository.ErrNotFound)
		mockRepo.On("AggregateScores", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil),
			model.PeriodWeekly, maxLeaderboardLimit, mock.Anything).
			Return(boardEntries(5), nil)
		mockRepo.On("UpsertSnapshot", mock.Anything, mock.Anything).Return(nil)

		service := NewLeaderboardService(mockRepo, time.Minute, nil)
		entries, err := service.GetLeaderboard(context.Background(),
			model.ScopeGlobal, nil, model.PeriodWeekly, 10)

		assert.NoError(t, err)
		assert.Len(t, entries, 5)
	})

	t.Run("Snapshot write failure does not degrade the read", func(t *testing.T) {
		mockRepo := &mocks.MockLeaderboardRepository{}
		mockRepo.On("GetSnapshot", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil), model.PeriodDaily).
			Return(nil, repository.ErrNotFound)
		mockRepo.On("AggregateScores", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil),
			model.PeriodDaily, maxLeaderboardLimit, mock.Anything).
			Return(boardEntries(3), nil)
		mockRepo.On("UpsertSnapshot", mock.Anything, mock.Anything).Return(assert.AnError)

		service := NewLeaderboardService(mockRepo, time.Minute, nil)
		entries, err := service.GetLeaderboard(context.Background(),
			model.ScopeGlobal, nil, model.PeriodDaily, 10)

		assert.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("Validation", func(t *testing.T) {
		service := NewLeaderboardService(&mocks.MockLeaderboardRepository{}, time.Minute, nil)

		_, err := service.GetLeaderboard(context.Background(), "galaxy", nil, model.PeriodDaily, 10)
		assert.ErrorIs(t, err, ErrInvalidScope)

		_, err = service.GetLeaderboard(context.Background(), model.ScopeGlobal, nil, "hourly", 10)
		assert.ErrorIs(t, err, ErrInvalidPeriod)

		_, err = service.GetLeaderboard(context.Background(), model.ScopeSchool, nil, model.PeriodDaily, 10)
		assert.ErrorIs(t, err, ErrScopeIDRequired)

		_, err = service.GetUserRank(context.Background(), uuid.New(), model.ScopeClass, nil, model.PeriodDaily)
		assert.ErrorIs(t, err, ErrScopeIDRequired)
	})
}

func TestLeaderboardService_GetUserRank(t *testing.T) {
	userID := uuid.New()

	mockRepo := &mocks.MockLeaderboardRepository{}
	mockRepo.On("UserRank", mock.Anything, userID, model.ScopeGlobal, (*uuid.UUID)(nil),
		model.PeriodMonthly, mock.Anything).
		Return(7, nil)

	service := NewLeaderboardService(mockRepo, time.Minute, nil)
	rank, err := service.GetUserRank(context.Background(), userID, model.ScopeGlobal, nil, model.PeriodMonthly)

	assert.NoError(t, err)
	assert.Equal(t, 7, rank)
}

func TestLeaderboardService_Refresh(t *testing.T) {
	mockRepo := &mocks.MockLeaderboardRepository{}
	mockRepo.On("AggregateScores", mock.Anything, model.ScopeGlobal, (*uuid.UUID)(nil),
		model.PeriodWeekly, maxLeaderboardLimit, mock.Anything).
		Return(boardEntries(2), nil)
	mockRepo.On("UpsertSnapshot", mock.Anything, mock.Anything).Return(nil)

	bus := NewEventBus()
	events := bus.Subscribe()
	defer bus.Unsubscribe(events)

	service := NewLeaderboardService(mockRepo, time.Minute, bus)
	err := service.Refresh(context.Background(), model.ScopeGlobal, nil, model.PeriodWeekly)

	assert.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, "leaderboard_updated", event.Type)
		assert.Equal(t, "weekly", event.Data["period"])
	default:
		t.Fatal("expected a leaderboard_updated event")
	}
}

func TestLeaderboardPeriod_WindowStart(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period   model.LeaderboardPeriod
		windowed bool
		start    time.Time
	}{
		{model.PeriodDaily, true, now.Add(-24 * time.Hour)},
		{model.PeriodWeekly, true, now.AddDate(0, 0, -7)},
		{model.PeriodMonthly, true, now.AddDate(0, -1, 0)},
		{model.PeriodAllTime, false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, windowed := tt.period.WindowStart(now)
			assert.Equal(t, tt.windowed, windowed)
			if tt.windowed {
				assert.Equal(t, tt.start, start)
			}
		})
	}
}
