package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"
	"ecolearn_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLessonPoints  = 10
	defaultQuizMaxPoints = 20
)

// PointsConfig fixes the point values point-earning endpoints pay out.
// Values are resolved here, never taken from the client, so a student
// cannot mint arbitrary deltas.
type PointsConfig struct {
	LessonPoints  int
	QuizMaxPoints int
}

func (c *PointsConfig) normalize() {
	if c.LessonPoints <= 0 {
		c.LessonPoints = defaultLessonPoints
	}
	if c.QuizMaxPoints <= 0 {
		c.QuizMaxPoints = defaultQuizMaxPoints
	}
}

type PointsService struct {
	repo     PointsRepository
	notifier Notifier
	cfg      PointsConfig
}

func NewPointsService(repo PointsRepository, notifier Notifier, cfg PointsConfig) *PointsService {
	cfg.normalize()
	return &PointsService{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Award appends one immutable log entry and its co-committed projection
// update. A non-nil activityID makes the award idempotent: replays surface
// ErrDuplicateActivity instead of crediting twice.
func (s *PointsService) Award(ctx context.Context, userID uuid.UUID, delta int, reason string, activityType model.ActivityType, activityID *uuid.UUID) (*model.AwardResult, error) {
	entry := &model.PointsLogEntry{
		ID:           uuid.New(),
		UserID:       userID,
		Delta:        delta,
		Reason:       reason,
		ActivityType: activityType,
		ActivityID:   activityID,
		CreatedAt:    time.Now().UTC(),
	}

	result, err := s.repo.AppendPoints(ctx, entry)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateActivity):
			return nil, ErrDuplicateActivity
		default:
			return nil, &LedgerWriteError{Err: err}
		}
	}

	if result.LeveledUp {
		_, nErr := s.notifier.Emit(ctx, userID,
			model.NotificationLevelUp,
			"Level up!",
			fmt.Sprintf("You reached level %d", result.NewLevel),
			map[string]any{"level": result.NewLevel, "total_points": result.NewTotal},
		)
		if nErr != nil {
			logger.Logger().Error("failed to emit level-up notification",
				zap.String("user_id", userID.String()),
				zap.Int("level", result.NewLevel),
				zap.Error(nErr))
		}
	}

	return result, nil
}

func (s *PointsService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PointsLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.PointsHistory(ctx, userID, limit)
}

// CompleteLesson credits the configured lesson value, keyed by lessonID so
// a replayed completion cannot double-credit.
func (s *PointsService) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*model.AwardResult, error) {
	return s.Award(ctx, userID, s.cfg.LessonPoints,
		"lesson completed", model.ActivityLessonCompleted, &lessonID)
}

// RecordQuizResult stores the score for badge evaluation and awards the
// score's share of the configured quiz maximum, keyed by quizID so a
// retried submit cannot double-credit.
func (s *PointsService) RecordQuizResult(ctx context.Context, userID uuid.UUID, score float64, quizID uuid.UUID) (*model.AwardResult, error) {
	if score < 0 || score > 100 {
		return nil, ErrInvalidQuizScore
	}

	points := int(math.Round(float64(s.cfg.QuizMaxPoints) * score / 100))

	if err := s.repo.RecordQuizScore(ctx, userID, score); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if points <= 0 {
		progress, err := s.repo.GetProgress(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		return &model.AwardResult{NewTotal: progress.TotalPoints, NewLevel: progress.Level}, nil
	}

	return s.Award(ctx, userID, points, "quiz passed", model.ActivityQuizPassed, &quizID)
}
