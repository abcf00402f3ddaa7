package service

import (
	"context"
	"testing"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"
	"ecolearn_backend/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBadgeService_Evaluate(t *testing.T) {
	userID := uuid.New()

	snapshot := &model.ProgressSnapshot{
		TotalPoints:      250,
		Level:            3,
		CompletedLessons: 12,
		ApprovedTasks:    5,
		ApprovedByCat:    map[string]int{"recycling": 3},
		BestQuizScore:    88,
		CurrentStreak:    4,
		LongestStreak:    9,
		Impact:           map[string]float64{"trees_planted": 15},
	}

	pointsBadge := &model.Badge{
		ID:           uuid.New(),
		Name:         "Point Collector",
		Criteria:     model.BadgeCriteria{Kind: model.CriteriaPoints, Target: 200},
		RewardPoints: 50,
		IsActive:     true,
	}
	streakBadge := &model.Badge{
		ID:       uuid.New(),
		Name:     "Week Warrior",
		Criteria: model.BadgeCriteria{Kind: model.CriteriaStreak, Target: 7},
		IsActive: true,
	}
	outOfReachBadge := &model.Badge{
		ID:       uuid.New(),
		Name:     "Forest Guardian",
		Criteria: model.BadgeCriteria{Kind: model.CriteriaImpact, Target: 100, Metric: "trees_planted"},
		IsActive: true,
	}

	t.Run("Awards qualifying badges and pays rewards keyed by badge id", func(t *testing.T) {
		mockRepo := &mocks.MockBadgeRepository{}
		mockPoints := &mocks.MockPointsAwarder{}
		mockNotifier := &mocks.MockNotifier{}

		mockRepo.On("GetProgressSnapshot", mock.Anything, userID).Return(snapshot, nil)
		mockRepo.On("ListUserBadgeIDs", mock.Anything, userID).
			Return(map[uuid.UUID]struct{}{}, nil)
		mockRepo.On("ListActiveBadges", mock.Anything).
			Return([]*model.Badge{pointsBadge, streakBadge, outOfReachBadge}, nil)

		mockRepo.On("InsertUserBadge", mock.Anything, mock.MatchedBy(func(ub *model.UserBadge) bool {
			return ub.UserID == userID && ub.BadgeID == pointsBadge.ID
		})).Return(nil)
		mockRepo.On("InsertUserBadge", mock.Anything, mock.MatchedBy(func(ub *model.UserBadge) bool {
			return ub.UserID == userID && ub.BadgeID == streakBadge.ID
		})).Return(nil)

		mockPoints.On("Award", mock.Anything, userID, 50, mock.Anything,
			model.ActivityBadgeReward, &pointsBadge.ID).
			Return(&model.AwardResult{NewTotal: 300, NewLevel: 4, LeveledUp: true}, nil)

		mockNotifier.On("Emit", mock.Anything, userID, model.NotificationBadgeEarned,
			mock.Anything, mock.Anything, mock.Anything).
			Return(&model.Notification{}, nil).Twice()

		service := NewBadgeService(mockRepo, mockPoints, mockNotifier)
		awarded, err := service.Evaluate(context.Background(), userID)

		assert.NoError(t, err)
		assert.Len(t, awarded, 2)
		assert.Equal(t, pointsBadge.ID, awarded[0].ID)
		assert.Equal(t, streakBadge.ID, awarded[1].ID)

		mockRepo.AssertExpectations(t)
		mockPoints.AssertExpectations(t)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("Already-owned badges are never re-awarded", func(t *testing.T) {
		mockRepo := &mocks.MockBadgeRepository{}
		mockPoints := &mocks.MockPointsAwarder{}
		mockNotifier := &mocks.MockNotifier{}

		mockRepo.On("GetProgressSnapshot", mock.Anything, userID).Return(snapshot, nil)
		mockRepo.On("ListUserBadgeIDs", mock.Anything, userID).
			Return(map[uuid.UUID]struct{}{
				pointsBadge.ID: {},
				streakBadge.ID: {},
			}, nil)
		mockRepo.On("ListActiveBadges", mock.Anything).
			Return([]*model.Badge{pointsBadge, streakBadge}, nil)

		service := NewBadgeService(mockRepo, mockPoints, mockNotifier)
		awarded, err := service.Evaluate(context.Background(), userID)

		assert.NoError(t, err)
		assert.Empty(t, awarded)
		mockRepo.AssertNotCalled(t, "InsertUserBadge", mock.Anything, mock.Anything)
		mockPoints.AssertNotCalled(t, "Award",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Losing a concurrent insert skips reward and notification", func(t *testing.T) {
		mockRepo := &mocks.MockBadgeRepository{}
		mockPoints := &mocks.MockPointsAwarder{}
		mockNotifier := &mocks.MockNotifier{}

		mockRepo.On("GetProgressSnapshot", mock.Anything, userID).Return(snapshot, nil)
		mockRepo.On("ListUserBadgeIDs", mock.Anything, userID).
			Return(map[uuid.UUID]struct{}{}, nil)
		mockRepo.On("ListActiveBadges", mock.Anything).
			Return([]*model.Badge{pointsBadge}, nil)
		mockRepo.On("InsertUserBadge", mock.Anything, mock.Anything).
			Return(repository.ErrBadgeAlreadyOwned)

		service := NewBadgeService(mockRepo, mockPoints, mockNotifier)
		awarded, err := service.Evaluate(context.Background(), userID)

		assert.NoError(t, err)
		assert.Empty(t, awarded)
		mockPoints.AssertNotCalled(t, "Award",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockNotifier.AssertNotCalled(t, "Emit",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Duplicate reward points are tolerated", func(t *testing.T) {
		mockRepo := &mocks.MockBadgeRepository{}
		mockPoints := &mocks.MockPointsAwarder{}
		mockNotifier := &mocks.MockNotifier{}

		mockRepo.On("GetProgressSnapshot", mock.Anything, userID).Return(snapshot, nil)
		mockRepo.On("ListUserBadgeIDs", mock.Anything, userID).
			Return(map[uuid.UUID]struct{}{}, nil)
		mockRepo.On("ListActiveBadges", mock.Anything).
			Return([]*model.Badge{pointsBadge}, nil)
		mockRepo.On("InsertUserBadge", mock.Anything, mock.Anything).Return(nil)

		mockPoints.On("Award", mock.Anything, userID, 50, mock.Anything,
			model.ActivityBadgeReward, &pointsBadge.ID).
			Return(nil, ErrDuplicateActivity)

		mockNotifier.On("Emit", mock.Anything, userID, model.NotificationBadgeEarned,
			mock.Anything, mock.Anything, mock.Anything).
			Return(&model.Notification{}, nil)

		service := NewBadgeService(mockRepo, mockPoints, mockNotifier)
		awarded, err := service.Evaluate(context.Background(), userID)

		assert.NoError(t, err)
		assert.Len(t, awarded, 1)
	})

	t.Run("A badge with unknown criteria is skipped, the rest still apply", func(t *testing.T) {
		brokenBadge := &model.Badge{
			ID:       uuid.New(),
			Name:     "Mystery",
			Criteria: model.BadgeCriteria{Kind: "mystery", Target: 1},
			IsActive: true,
		}

		mockRepo := &mocks.MockBadgeRepository{}
		mockPoints := &mocks.MockPointsAwarder{}
		mockNotifier := &mocks.MockNotifier{}

		mockRepo.On("GetProgressSnapshot", mock.Anything, userID).Return(snapshot, nil)
		mockRepo.On("ListUserBadgeIDs", mock.Anything, userID).
			Return(map[uuid.UUID]struct{}{}, nil)
		mockRepo.On("ListActiveBadges", mock.Anything).
			Return([]*model.Badge{brokenBadge, streakBadge}, nil)
		mockRepo.On("InsertUserBadge", mock.Anything, mock.MatchedBy(func(ub *model.UserBadge) bool {
			return ub.BadgeID == streakBadge.ID
		})).Return(nil)
		mockNotifier.On("Emit", mock.Anything, userID, model.NotificationBadgeEarned,
			mock.Anything, mock.Anything, mock.Anything).
			Return(&model.Notification{}, nil)

		service := NewBadgeService(mockRepo, mockPoints, mockNotifier)
		awarded, err := service.Evaluate(context.Background(), userID)

		assert.NoError(t, err)
		assert.Len(t, awarded, 1)
		assert.Equal(t, streakBadge.ID, awarded[0].ID)
	})

	t.Run("Unknown user", func(t *testing.T) {
		mockRepo := &mocks.MockBadgeRepository{}
		mockRepo.On("GetProgressSnapshot", mock.Anything, userID).
			Return(nil, repository.ErrNotFound)

		service := NewBadgeService(mockRepo, &mocks.MockPointsAwarder{}, &mocks.MockNotifier{})
		awarded, err := service.Evaluate(context.Background(), userID)

		assert.Nil(t, awarded)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestBadgeService_CreateBadge(t *testing.T) {
	t.Run("Rejects non-positive criteria target", func(t *testing.T) {
		service := NewBadgeService(&mocks.MockBadgeRepository{}, &mocks.MockPointsAwarder{}, &mocks.MockNotifier{})

		err := service.CreateBadge(context.Background(), &model.Badge{
			Name:     "Broken",
			Criteria: model.BadgeCriteria{Kind: model.CriteriaPoints, Target: 0},
		})

		assert.ErrorIs(t, err, ErrInvalidBadgeTarget)
	})

	t.Run("Fills id and creation time", func(t *testing.T) {
		mockRepo := &mocks.MockBadgeRepository{}
		mockRepo.On("CreateBadge", mock.Anything, mock.MatchedBy(func(b *model.Badge) bool {
			return b.ID != uuid.Nil && !b.CreatedAt.IsZero()
		})).Return(nil)

		service := NewBadgeService(mockRepo, &mocks.MockPointsAwarder{}, &mocks.MockNotifier{})
		err := service.CreateBadge(context.Background(), &model.Badge{
			Name:     "Point Collector",
			Criteria: model.BadgeCriteria{Kind: model.CriteriaPoints, Target: 200},
		})

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}
