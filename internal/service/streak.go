package service

import (
	"context"
	"errors"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"

	"github.com/google/uuid"
)

// StreakService runs the per-user daily activity state machine. Day
// boundaries are UTC calendar days (see model.DayOf); at most one transition
// happens per day per user.
type StreakService struct {
	repo StreakRepository
}

func NewStreakService(repo StreakRepository) *StreakService {
	return &StreakService{
		repo: repo,
	}
}

func (s *StreakService) GetStreak(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error) {
	streak, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return streak, nil
}

// TouchActivity records activity for asOf's day. Same day: no-op. Previous
// day recorded yesterday: streak extends. Anything else: streak restarts at
// one. The guarded write in the repository makes concurrent same-day touches
// land exactly one transition; the loser just re-reads.
func (s *StreakService) TouchActivity(ctx context.Context, userID uuid.UUID, asOf time.Time) (*model.UserStreak, error) {
	streak, err := s.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := model.DayOf(asOf)

	if streak.LastActivityDate != nil && model.SameDay(*streak.LastActivityDate, day) {
		return streak, nil
	}

	next := 1
	if streak.LastActivityDate != nil && model.IsYesterdayOf(*streak.LastActivityDate, day) {
		next = streak.CurrentStreak + 1
	}

	longest := streak.LongestStreak
	if next > longest {
		longest = next
	}
	multiplier := model.StreakMultiplier(next)

	advanced, err := s.repo.AdvanceStreak(ctx, userID, day, next, longest, multiplier)
	if err != nil {
		return nil, err
	}
	if !advanced {
		// Concurrent touch claimed today first; its transition stands.
		return s.GetStreak(ctx, userID)
	}

	return &model.UserStreak{
		UserID:           userID,
		CurrentStreak:    next,
		LongestStreak:    longest,
		LastActivityDate: &day,
		Multiplier:       multiplier,
	}, nil
}
