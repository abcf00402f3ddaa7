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

// retryBackoff is the single backoff applied before the one ledger-write
// retry a review performs. The award is keyed by submission id, so the retry
// can never double-credit.
const retryBackoff = 150 * time.Millisecond

type TaskService struct {
	repo     TaskRepository
	points   PointsAwarder
	streaks  StreakToucher
	badges   BadgeEvaluator
	notifier Notifier
}

func NewTaskService(repo TaskRepository, points PointsAwarder, streaks StreakToucher, badges BadgeEvaluator, notifier Notifier) *TaskService {
	return &TaskService{
		repo:     repo,
		points:   points,
		streaks:  streaks,
		badges:   badges,
		notifier: notifier,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, t *model.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return s.repo.CreateTask(ctx, t)
}

func (s *TaskService) UpdateTask(ctx context.Context, t *model.Task) error {
	err := s.repo.UpdateTask(ctx, t)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

func (s *TaskService) ListTasks(ctx context.Context, activeOnly bool) ([]*model.Task, error) {
	return s.repo.ListTasks(ctx, activeOnly)
}

func validatePayload(task *model.Task, payload model.SubmissionPayload) *ValidationError {
	var violations []string

	reqs := task.Requirements
	if reqs.PhotoRequired && len(payload.PhotoURLs) == 0 {
		violations = append(violations, "at least one photo is required")
	}
	if reqs.LocationRequired && payload.Location == nil {
		violations = append(violations, "location coordinates are required")
	}
	if payload.Description == "" {
		violations = append(violations, "description is required")
	} else if reqs.MinDescriptionLen > 0 && len(payload.Description) < reqs.MinDescriptionLen {
		violations = append(violations,
			fmt.Sprintf("description must be at least %d characters", reqs.MinDescriptionLen))
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// SubmitTask validates the payload against the task's requirements,
// reporting every violated requirement at once, and creates the pending
// submission. At most one pending submission may exist per (user, task).
func (s *TaskService) SubmitTask(ctx context.Context, userID, taskID uuid.UUID, payload model.SubmissionPayload) (*model.TaskSubmission, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if !task.IsActive {
		return nil, ErrTaskInactive
	}

	if vErr := validatePayload(task, payload); vErr != nil {
		return nil, vErr
	}

	submission := &model.TaskSubmission{
		ID:          uuid.New(),
		UserID:      userID,
		TaskID:      taskID,
		Status:      model.SubmissionPending,
		Payload:     payload,
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		if errors.Is(err, repository.ErrDuplicatePendingSubmission) {
			return nil, ErrDuplicatePendingSubmission
		}
		return nil, err
	}

	return submission, nil
}

func (s *TaskService) GetSubmission(ctx context.Context, submissionID uuid.UUID) (*model.TaskSubmission, error) {
	submission, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return submission, nil
}

func (s *TaskService) ListSubmissionsByUser(ctx context.Context, userID uuid.UUID) ([]*model.TaskSubmission, error) {
	return s.repo.ListSubmissionsByUser(ctx, userID)
}

func (s *TaskService) ListPendingSubmissions(ctx context.Context, limit int) ([]*model.TaskSubmission, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListPendingSubmissions(ctx, limit)
}

// ReviewSubmission applies the single terminal transition. Approval then
// awards the task's eco-points (keyed by submission id), touches the streak
// and re-evaluates badges; failures past the points award never undo the
// review, they are logged under the correlation id and the result reports
// what did happen.
func (s *TaskService) ReviewSubmission(ctx context.Context, submissionID, reviewerID uuid.UUID, decision model.ReviewDecision, feedback string) (*model.ReviewResult, error) {
	if !decision.Valid() {
		return nil, ErrInvalidDecision
	}

	correlationID := uuid.New()
	log := logger.Logger().With(
		zap.String("correlation_id", correlationID.String()),
		zap.String("submission_id", submissionID.String()),
	)

	submission, err := s.repo.ReviewSubmission(ctx, submissionID, reviewerID, decision, feedback, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSubmissionNotFound
		case errors.Is(err, repository.ErrAlreadyReviewed):
			return nil, ErrAlreadyReviewed
		default:
			return nil, err
		}
	}

	result := &model.ReviewResult{Submission: submission}

	task, err := s.repo.GetTask(ctx, submission.TaskID)
	if err != nil {
		log.Error("review persisted but task lookup failed", zap.Error(err))
		return result, nil
	}

	if decision == model.DecisionApproved {
		submissionRef := submission.ID
		award, err := s.awardWithRetry(ctx, submission.UserID, task.EcoPoints,
			fmt.Sprintf("task approved: %s", task.Title), &submissionRef)
		if err != nil {
			log.Error("failed to award task points after review", zap.Error(err))
			return result, err
		}
		if award != nil {
			result.PointsAwarded = task.EcoPoints
		}

		if err := s.repo.AddImpact(ctx, submission.UserID, task.ImpactMetric, task.ImpactValue); err != nil {
			log.Error("failed to accumulate impact metric", zap.Error(err))
		}

		if _, err := s.streaks.TouchActivity(ctx, submission.UserID, time.Now()); err != nil {
			log.Error("failed to touch streak after approval", zap.Error(err))
		}

		newBadges, err := s.badges.Evaluate(ctx, submission.UserID)
		if err != nil {
			// Approval stands even when badge evaluation fails; the next
			// evaluation call will pick the badges up.
			log.Error("badge evaluation failed after approval", zap.Error(err))
		}
		result.NewBadges = newBadges
	}

	title := "Task approved"
	message := fmt.Sprintf("Your submission for %q was approved", task.Title)
	if decision == model.DecisionRejected {
		title = "Task rejected"
		message = fmt.Sprintf("Your submission for %q was rejected", task.Title)
	}
	_, err = s.notifier.Emit(ctx, submission.UserID,
		model.NotificationTaskReviewed, title, message,
		map[string]any{
			"submission_id": submission.ID.String(),
			"task_id":       task.ID.String(),
			"decision":      string(decision),
			"feedback":      feedback,
		})
	if err != nil {
		log.Error("failed to emit review notification", zap.Error(err))
	}

	return result, nil
}

// awardWithRetry retries a failed ledger write exactly once after a short
// backoff. A duplicate on the retry means the first attempt actually
// committed, which counts as success.
func (s *TaskService) awardWithRetry(ctx context.Context, userID uuid.UUID, points int, reason string, activityID *uuid.UUID) (*model.AwardResult, error) {
	result, err := s.points.Award(ctx, userID, points, reason, model.ActivityTaskApproved, activityID)
	if err == nil {
		return result, nil
	}

	var ledgerErr *LedgerWriteError
	if !errors.As(err, &ledgerErr) {
		if errors.Is(err, ErrDuplicateActivity) {
			return nil, nil
		}
		return nil, err
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	result, err = s.points.Award(ctx, userID, points, reason, model.ActivityTaskApproved, activityID)
	if err != nil {
		if errors.Is(err, ErrDuplicateActivity) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}
