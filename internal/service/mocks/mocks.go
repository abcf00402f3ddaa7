package mocks

import (
	"context"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUserRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) GetProgress(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProgress), args.Error(1)
}

type MockPointsRepository struct {
	mock.Mock
}

func (m *MockPointsRepository) AppendPoints(ctx context.Context, entry *model.PointsLogEntry) (*model.AwardResult, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

func (m *MockPointsRepository) GetProgress(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProgress), args.Error(1)
}

func (m *MockPointsRepository) PointsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PointsLogEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PointsLogEntry), args.Error(1)
}

func (m *MockPointsRepository) RecordQuizScore(ctx context.Context, userID uuid.UUID, score float64) error {
	args := m.Called(ctx, userID, score)
	return args.Error(0)
}

func (m *MockPointsRepository) RecomputeProgress(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockStreakRepository struct {
	mock.Mock
}

func (m *MockStreakRepository) GetStreak(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserStreak), args.Error(1)
}

func (m *MockStreakRepository) AdvanceStreak(ctx context.Context, userID uuid.UUID, day time.Time, current, longest int, multiplier float64) (bool, error) {
	args := m.Called(ctx, userID, day, current, longest, multiplier)
	return args.Bool(0), args.Error(1)
}

type MockBadgeRepository struct {
	mock.Mock
}

func (m *MockBadgeRepository) CreateBadge(ctx context.Context, b *model.Badge) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBadgeRepository) UpdateBadge(ctx context.Context, b *model.Badge) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBadgeRepository) GetBadge(ctx context.Context, badgeID uuid.UUID) (*model.Badge, error) {
	args := m.Called(ctx, badgeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Badge), args.Error(1)
}

func (m *MockBadgeRepository) ListBadges(ctx context.Context) ([]*model.Badge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Badge), args.Error(1)
}

func (m *MockBadgeRepository) ListActiveBadges(ctx context.Context) ([]*model.Badge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Badge), args.Error(1)
}

func (m *MockBadgeRepository) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserBadge), args.Error(1)
}

func (m *MockBadgeRepository) ListUserBadgeIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]struct{}), args.Error(1)
}

func (m *MockBadgeRepository) InsertUserBadge(ctx context.Context, ub *model.UserBadge) error {
	args := m.Called(ctx, ub)
	return args.Error(0)
}

func (m *MockBadgeRepository) GetProgressSnapshot(ctx context.Context, userID uuid.UUID) (*model.ProgressSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProgressSnapshot), args.Error(1)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, t *model.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateTask(ctx context.Context, t *model.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListTasks(ctx context.Context, activeOnly bool) ([]*model.Task, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Task), args.Error(1)
}

func (m *MockTaskRepository) CreateSubmission(ctx context.Context, s *model.TaskSubmission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockTaskRepository) GetSubmission(ctx context.Context, submissionID uuid.UUID) (*model.TaskSubmission, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaskSubmission), args.Error(1)
}

func (m *MockTaskRepository) ListSubmissionsByUser(ctx context.Context, userID uuid.UUID) ([]*model.TaskSubmission, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TaskSubmission), args.Error(1)
}

func (m *MockTaskRepository) ListPendingSubmissions(ctx context.Context, limit int) ([]*model.TaskSubmission, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TaskSubmission), args.Error(1)
}

func (m *MockTaskRepository) ReviewSubmission(ctx context.Context, submissionID, reviewerID uuid.UUID, decision model.ReviewDecision, feedback string, reviewedAt time.Time) (*model.TaskSubmission, error) {
	args := m.Called(ctx, submissionID, reviewerID, decision, feedback, reviewedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaskSubmission), args.Error(1)
}

func (m *MockTaskRepository) AddImpact(ctx context.Context, userID uuid.UUID, metric string, value float64) error {
	args := m.Called(ctx, userID, metric, value)
	return args.Error(0)
}

type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) AggregateScores(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod, limit int, now time.Time) ([]model.LeaderboardEntry, error) {
	args := m.Called(ctx, scope, scopeID, period, limit, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardRepository) UserRank(ctx context.Context, userID uuid.UUID, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod, now time.Time) (int, error) {
	args := m.Called(ctx, userID, scope, scopeID, period, now)
	return args.Int(0), args.Error(1)
}

func (m *MockLeaderboardRepository) GetSnapshot(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod) (*model.LeaderboardSnapshot, error) {
	args := m.Called(ctx, scope, scopeID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaderboardSnapshot), args.Error(1)
}

func (m *MockLeaderboardRepository) UpsertSnapshot(ctx context.Context, snap *model.LeaderboardSnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) InsertNotification(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) DeleteNotification(ctx context.Context, userID, notificationID uuid.UUID) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

type MockPointsAwarder struct {
	mock.Mock
}

func (m *MockPointsAwarder) Award(ctx context.Context, userID uuid.UUID, delta int, reason string, activityType model.ActivityType, activityID *uuid.UUID) (*model.AwardResult, error) {
	args := m.Called(ctx, userID, delta, reason, activityType, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

type MockStreakToucher struct {
	mock.Mock
}

func (m *MockStreakToucher) TouchActivity(ctx context.Context, userID uuid.UUID, asOf time.Time) (*model.UserStreak, error) {
	args := m.Called(ctx, userID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserStreak), args.Error(1)
}

type MockBadgeEvaluator struct {
	mock.Mock
}

func (m *MockBadgeEvaluator) Evaluate(ctx context.Context, userID uuid.UUID) ([]*model.Badge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Badge), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Emit(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, metadata map[string]any) (*model.Notification, error) {
	args := m.Called(ctx, userID, kind, title, message, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

type MockPointsService struct {
	mock.Mock
}

func (m *MockPointsService) Award(ctx context.Context, userID uuid.UUID, delta int, reason string, activityType model.ActivityType, activityID *uuid.UUID) (*model.AwardResult, error) {
	args := m.Called(ctx, userID, delta, reason, activityType, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

func (m *MockPointsService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PointsLogEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PointsLogEntry), args.Error(1)
}

func (m *MockPointsService) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*model.AwardResult, error) {
	args := m.Called(ctx, userID, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

func (m *MockPointsService) RecordQuizResult(ctx context.Context, userID uuid.UUID, score float64, quizID uuid.UUID) (*model.AwardResult, error) {
	args := m.Called(ctx, userID, score, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AwardResult), args.Error(1)
}

type MockStreakService struct {
	mock.Mock
}

func (m *MockStreakService) TouchActivity(ctx context.Context, userID uuid.UUID, asOf time.Time) (*model.UserStreak, error) {
	args := m.Called(ctx, userID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserStreak), args.Error(1)
}

func (m *MockStreakService) GetStreak(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserStreak), args.Error(1)
}
