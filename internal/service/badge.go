package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"
	"ecolearn_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BadgeService struct {
	repo     BadgeRepository
	points   PointsAwarder
	notifier Notifier
}

func NewBadgeService(repo BadgeRepository, points PointsAwarder, notifier Notifier) *BadgeService {
	return &BadgeService{
		repo:     repo,
		points:   points,
		notifier: notifier,
	}
}

func (s *BadgeService) CreateBadge(ctx context.Context, b *model.Badge) error {
	if b.Criteria.Target <= 0 {
		return ErrInvalidBadgeTarget
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return s.repo.CreateBadge(ctx, b)
}

func (s *BadgeService) UpdateBadge(ctx context.Context, b *model.Badge) error {
	if b.Criteria.Target <= 0 {
		return ErrInvalidBadgeTarget
	}
	err := s.repo.UpdateBadge(ctx, b)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBadgeNotFound
	}
	return err
}

func (s *BadgeService) ListBadges(ctx context.Context) ([]*model.Badge, error) {
	return s.repo.ListBadges(ctx)
}

func (s *BadgeService) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error) {
	return s.repo.ListUserBadges(ctx, userID)
}

// Evaluate awards every active badge the user newly qualifies for and
// returns those badges. Safe to call redundantly after any point-earning
// event: the unique user-badge constraint makes the insert at-most-once, and
// reward points keyed by badge id cannot be paid twice. A failure on one
// badge is logged and skipped so the rest still apply.
func (s *BadgeService) Evaluate(ctx context.Context, userID uuid.UUID) ([]*model.Badge, error) {
	log := logger.Logger()

	snapshot, err := s.repo.GetProgressSnapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load progress snapshot: %w", err)
	}

	owned, err := s.repo.ListUserBadgeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned badges: %w", err)
	}

	catalog, err := s.repo.ListActiveBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}

	var awarded []*model.Badge
	for _, badge := range catalog {
		if _, ok := owned[badge.ID]; ok {
			continue
		}

		qualifies, err := badge.Criteria.Qualifies(snapshot)
		if err != nil {
			log.Error("skipping badge with unevaluable criteria",
				zap.String("badge_id", badge.ID.String()),
				zap.Error(err))
			continue
		}
		if !qualifies {
			continue
		}

		err = s.repo.InsertUserBadge(ctx, &model.UserBadge{
			UserID:   userID,
			BadgeID:  badge.ID,
			EarnedAt: time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, repository.ErrBadgeAlreadyOwned) {
				// A concurrent evaluation won the insert; it owns the
				// reward and notification too.
				continue
			}
			log.Error("failed to award badge",
				zap.String("user_id", userID.String()),
				zap.String("badge_id", badge.ID.String()),
				zap.Error(err))
			continue
		}

		if badge.RewardPoints > 0 {
			badgeID := badge.ID
			_, err = s.points.Award(ctx, userID, badge.RewardPoints,
				fmt.Sprintf("badge reward: %s", badge.Name),
				model.ActivityBadgeReward, &badgeID)
			if err != nil && !errors.Is(err, ErrDuplicateActivity) {
				log.Error("failed to award badge reward points",
					zap.String("user_id", userID.String()),
					zap.String("badge_id", badge.ID.String()),
					zap.Error(err))
			}
		}

		_, err = s.notifier.Emit(ctx, userID,
			model.NotificationBadgeEarned,
			"Badge earned!",
			fmt.Sprintf("You earned the %q badge", badge.Name),
			map[string]any{"badge_id": badge.ID.String(), "badge_name": badge.Name},
		)
		if err != nil {
			log.Error("failed to emit badge notification",
				zap.String("user_id", userID.String()),
				zap.String("badge_id", badge.ID.String()),
				zap.Error(err))
		}

		awarded = append(awarded, badge)
	}

	return awarded, nil
}
