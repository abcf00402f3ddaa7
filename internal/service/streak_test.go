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

func TestStreakService_TouchActivity(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	today := model.DayOf(now)
	yesterday := today.AddDate(0, 0, -1)
	threeDaysAgo := today.AddDate(0, 0, -3)

	tests := []struct {
		name          string
		setupMocks    func(repo *mocks.MockStreakRepository)
		expectedError error
		check         func(t *testing.T, streak *model.UserStreak)
	}{
		{
			name: "First activity ever starts streak at one",
			setupMocks: func(repo *mocks.MockStreakRepository) {
				repo.On("GetStreak", mock.Anything, userID).
					Return(&model.UserStreak{UserID: userID}, nil)
				repo.On("AdvanceStreak", mock.Anything, userID, today, 1, 1, model.StreakMultiplier(1)).
					Return(true, nil)
			},
			check: func(t *testing.T, streak *model.UserStreak) {
				assert.Equal(t, 1, streak.CurrentStreak)
				assert.Equal(t, 1, streak.LongestStreak)
				assert.InDelta(t, model.BaseMultiplier, streak.Multiplier, 1e-9)
			},
		},
		{
			name: "Second touch on the same day changes nothing",
			setupMocks: func(repo *mocks.MockStreakRepository) {
				repo.On("GetStreak", mock.Anything, userID).
					Return(&model.UserStreak{
						UserID:           userID,
						CurrentStreak:    4,
						LongestStreak:    6,
						LastActivityDate: &today,
						Multiplier:       model.StreakMultiplier(4),
					}, nil)
			},
			check: func(t *testing.T, streak *model.UserStreak) {
				assert.Equal(t, 4, streak.CurrentStreak)
				assert.Equal(t, 6, streak.LongestStreak)
			},
		},
		{
			name: "Activity the day after extends the streak",
			setupMocks: func(repo *mocks.MockStreakRepository) {
				repo.On("GetStreak", mock.Anything, userID).
					Return(&model.UserStreak{
						UserID:           userID,
						CurrentStreak:    4,
						LongestStreak:    6,
						LastActivityDate: &yesterday,
					}, nil)
				repo.On("AdvanceStreak", mock.Anything, userID, today, 5, 6, model.StreakMultiplier(5)).
					Return(true, nil)
			},
			check: func(t *testing.T, streak *model.UserStreak) {
				assert.Equal(t, 5, streak.CurrentStreak)
				assert.Equal(t, 6, streak.LongestStreak)
				assert.InDelta(t, 1.4, streak.Multiplier, 1e-9)
			},
		},
		{
			name: "Extension past the previous record raises the record",
			setupMocks: func(repo *mocks.MockStreakRepository) {
				repo.On("GetStreak", mock.Anything, userID).
					Return(&model.UserStreak{
						UserID:           userID,
						CurrentStreak:    6,
						LongestStreak:    6,
						LastActivityDate: &yesterday,
					}, nil)
				repo.On("AdvanceStreak", mock.Anything, userID, today, 7, 7, model.StreakMultiplier(7)).
					Return(true, nil)
			},
			check: func(t *testing.T, streak *model.UserStreak) {
				assert.Equal(t, 7, streak.CurrentStreak)
				assert.Equal(t, 7, streak.LongestStreak)
			},
		},
		{
			name: "A multi-day gap restarts the streak at one",
			setupMocks: func(repo *mocks.MockStreakRepository) {
				repo.On("GetStreak", mock.Anything, userID).
					Return(&model.UserStreak{
						UserID:           userID,
						CurrentStreak:    9,
						LongestStreak:    9,
						LastActivityDate: &threeDaysAgo,
					}, nil)
				repo.On("AdvanceStreak", mock.Anything, userID, today, 1, 9, model.StreakMultiplier(1)).
					Return(true, nil)
			},
			check: func(t *testing.T, streak *model.UserStreak) {
				assert.Equal(t, 1, streak.CurrentStreak)
				assert.Equal(t, 9, streak.LongestStreak)
				assert.InDelta(t, model.BaseMultiplier, streak.Multiplier, 1e-9)
			},
		},
		{
			name: "Losing the concurrent advance re-reads the winner's state",
			setupMocks: func(repo *mocks.MockStreakRepository) {
				repo.On("GetStreak", mock.Anything, userID).
					Return(&model.UserStreak{
						UserID:           userID,
						CurrentStreak:    4,
						LongestStreak:    6,
						LastActivityDate: &yesterday,
					}, nil).Once()
				repo.On("AdvanceStreak", mock.Anything, userID, today, 5, 6, model.StreakMultiplier(5)).
					Return(false, nil)
				repo.On("GetStreak", mock.Anything, userID).
					Return(&model.UserStreak{
						UserID:           userID,
						CurrentStreak:    5,
						LongestStreak:    6,
						LastActivityDate: &today,
						Multiplier:       model.StreakMultiplier(5),
					}, nil).Once()
			},
			check: func(t *testing.T, streak *model.UserStreak) {
				assert.Equal(t, 5, streak.CurrentStreak)
			},
		},
		{
			name: "Unknown user",
			setupMocks: func(repo *mocks.MockStreakRepository) {
				repo.On("GetStreak", mock.Anything, userID).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockStreakRepository{}
			tt.setupMocks(mockRepo)

			service := NewStreakService(mockRepo)
			streak, err := service.TouchActivity(context.Background(), userID, now)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, streak)
			if tt.check != nil {
				tt.check(t, streak)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestStreakService_TouchActivity_DayBoundary(t *testing.T) {
	userID := uuid.New()

	// 23:59 and 00:01 around a UTC midnight are consecutive days even
	// though they are two minutes apart.
	lastDay := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	justAfterMidnight := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)

	mockRepo := &mocks.MockStreakRepository{}
	mockRepo.On("GetStreak", mock.Anything, userID).
		Return(&model.UserStreak{
			UserID:           userID,
			CurrentStreak:    2,
			LongestStreak:    2,
			LastActivityDate: &lastDay,
		}, nil)
	mockRepo.On("AdvanceStreak", mock.Anything, userID, model.DayOf(justAfterMidnight), 3, 3, model.StreakMultiplier(3)).
		Return(true, nil)

	service := NewStreakService(mockRepo)
	streak, err := service.TouchActivity(context.Background(), userID, justAfterMidnight)

	assert.NoError(t, err)
	assert.Equal(t, 3, streak.CurrentStreak)
	mockRepo.AssertExpectations(t)
}
