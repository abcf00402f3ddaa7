package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskInactive         = errors.New("task is not active")
	ErrBadgeNotFound        = errors.New("badge not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrAlreadyReviewed            = errors.New("submission already reviewed")
	ErrDuplicatePendingSubmission = errors.New("a pending submission for this task already exists")
	ErrDuplicateActivity          = errors.New("points for this activity were already credited")

	ErrInvalidDecision    = errors.New("review decision must be approved or rejected")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidPeriod      = errors.New("invalid leaderboard period")
	ErrInvalidScope       = errors.New("invalid leaderboard scope")
	ErrScopeIDRequired    = errors.New("scope id is required for non-global scopes")
	ErrInvalidBadgeTarget = errors.New("badge criteria target must be positive")
	ErrInvalidQuizScore   = errors.New("quiz score must be between 0 and 100")
)

// ValidationError carries every violated requirement, not just the first, so
// the caller can correct the whole input in one pass.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// LedgerWriteError marks a transactional ledger write that did not commit.
// Nothing was partially applied; the caller may retry once.
type LedgerWriteError struct {
	Err error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("ledger write failed: %v", e.Err)
}

func (e *LedgerWriteError) Unwrap() error {
	return e.Err
}

type Service struct {
	*UserService
	*PointsService
	*StreakService
	*BadgeService
	*TaskService
	*LeaderboardService
	*NotificationService
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role model.Role) error
	UpdateLastSeen(ctx context.Context, userID uuid.UUID) error
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	GetProgress(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error)
}

type PointsRepository interface {
	AppendPoints(ctx context.Context, entry *model.PointsLogEntry) (*model.AwardResult, error)
	GetProgress(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error)
	PointsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PointsLogEntry, error)
	RecordQuizScore(ctx context.Context, userID uuid.UUID, score float64) error
	RecomputeProgress(ctx context.Context, userID uuid.UUID) (int, error)
}

type StreakRepository interface {
	GetStreak(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error)
	AdvanceStreak(ctx context.Context, userID uuid.UUID, day time.Time, current, longest int, multiplier float64) (bool, error)
}

type BadgeRepository interface {
	CreateBadge(ctx context.Context, b *model.Badge) error
	UpdateBadge(ctx context.Context, b *model.Badge) error
	GetBadge(ctx context.Context, badgeID uuid.UUID) (*model.Badge, error)
	ListBadges(ctx context.Context) ([]*model.Badge, error)
	ListActiveBadges(ctx context.Context) ([]*model.Badge, error)
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error)
	ListUserBadgeIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error)
	InsertUserBadge(ctx context.Context, ub *model.UserBadge) error
	GetProgressSnapshot(ctx context.Context, userID uuid.UUID) (*model.ProgressSnapshot, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t *model.Task) error
	GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error)
	ListTasks(ctx context.Context, activeOnly bool) ([]*model.Task, error)
	CreateSubmission(ctx context.Context, s *model.TaskSubmission) error
	GetSubmission(ctx context.Context, submissionID uuid.UUID) (*model.TaskSubmission, error)
	ListSubmissionsByUser(ctx context.Context, userID uuid.UUID) ([]*model.TaskSubmission, error)
	ListPendingSubmissions(ctx context.Context, limit int) ([]*model.TaskSubmission, error)
	ReviewSubmission(ctx context.Context, submissionID, reviewerID uuid.UUID, decision model.ReviewDecision, feedback string, reviewedAt time.Time) (*model.TaskSubmission, error)
	AddImpact(ctx context.Context, userID uuid.UUID, metric string, value float64) error
}

type LeaderboardRepository interface {
	AggregateScores(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod, limit int, now time.Time) ([]model.LeaderboardEntry, error)
	UserRank(ctx context.Context, userID uuid.UUID, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod, now time.Time) (int, error)
	GetSnapshot(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod) (*model.LeaderboardSnapshot, error)
	UpsertSnapshot(ctx context.Context, snap *model.LeaderboardSnapshot) error
}

type NotificationRepository interface {
	InsertNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
	DeleteNotification(ctx context.Context, userID, notificationID uuid.UUID) error
}

// Narrow seams the composed services depend on, so each can be mocked on its
// own in tests.

type PointsAwarder interface {
	Award(ctx context.Context, userID uuid.UUID, delta int, reason string, activityType model.ActivityType, activityID *uuid.UUID) (*model.AwardResult, error)
}

type StreakToucher interface {
	TouchActivity(ctx context.Context, userID uuid.UUID, asOf time.Time) (*model.UserStreak, error)
}

type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID) ([]*model.Badge, error)
}

type Notifier interface {
	Emit(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, metadata map[string]any) (*model.Notification, error)
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
	GetProgress(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) error
	TouchLastSeen(ctx context.Context, userID uuid.UUID) error
}

type PointsServiceI interface {
	PointsAwarder
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*model.PointsLogEntry, error)
	CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*model.AwardResult, error)
	RecordQuizResult(ctx context.Context, userID uuid.UUID, score float64, quizID uuid.UUID) (*model.AwardResult, error)
}

type StreakServiceI interface {
	StreakToucher
	GetStreak(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error)
}

type BadgeServiceI interface {
	BadgeEvaluator
	CreateBadge(ctx context.Context, b *model.Badge) error
	UpdateBadge(ctx context.Context, b *model.Badge) error
	ListBadges(ctx context.Context) ([]*model.Badge, error)
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*model.UserBadge, error)
}

type TaskServiceI interface {
	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t *model.Task) error
	ListTasks(ctx context.Context, activeOnly bool) ([]*model.Task, error)
	SubmitTask(ctx context.Context, userID, taskID uuid.UUID, payload model.SubmissionPayload) (*model.TaskSubmission, error)
	GetSubmission(ctx context.Context, submissionID uuid.UUID) (*model.TaskSubmission, error)
	ReviewSubmission(ctx context.Context, submissionID, reviewerID uuid.UUID, decision model.ReviewDecision, feedback string) (*model.ReviewResult, error)
	ListSubmissionsByUser(ctx context.Context, userID uuid.UUID) ([]*model.TaskSubmission, error)
	ListPendingSubmissions(ctx context.Context, limit int) ([]*model.TaskSubmission, error)
}

type LeaderboardServiceI interface {
	GetLeaderboard(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod, limit int) ([]model.LeaderboardEntry, error)
	GetUserRank(ctx context.Context, userID uuid.UUID, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod) (int, error)
	Refresh(ctx context.Context, scope model.LeaderboardScope, scopeID *uuid.UUID, period model.LeaderboardPeriod) error
}

type NotificationServiceI interface {
	Notifier
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
}
