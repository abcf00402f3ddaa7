package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type task struct {
	ID           uuid.UUID `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Category     string    `db:"category"`
	Difficulty   string    `db:"difficulty"`
	EcoPoints    int       `db:"eco_points"`
	ImpactMetric string    `db:"impact_metric"`
	ImpactValue  float64   `db:"impact_value"`
	Requirements []byte    `db:"requirements"`
	IsActive     bool      `db:"is_active"`
	CreatedBy    uuid.UUID `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
}

func (t *task) toModel() (*model.Task, error) {
	var reqs model.TaskRequirements
	if err := json.Unmarshal(t.Requirements, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode requirements for task %s: %w", t.ID, err)
	}

	return &model.Task{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Category:     t.Category,
		Difficulty:   t.Difficulty,
		EcoPoints:    t.EcoPoints,
		ImpactMetric: t.ImpactMetric,
		ImpactValue:  t.ImpactValue,
		Requirements: reqs,
		IsActive:     t.IsActive,
		CreatedBy:    t.CreatedBy,
		CreatedAt:    t.CreatedAt,
	}, nil
}

type taskSubmission struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	TaskID      uuid.UUID      `db:"task_id"`
	Status      string         `db:"status"`
	PhotoURLs   pq.StringArray `db:"photo_urls"`
	Location    []byte         `db:"location"`
	Description string         `db:"description"`
	ReviewedBy  *uuid.UUID     `db:"reviewed_by"`
	ReviewedAt  *time.Time     `db:"reviewed_at"`
	Feedback    string         `db:"feedback"`
	SubmittedAt time.Time      `db:"submitted_at"`
}

func (s *taskSubmission) toModel() (*model.TaskSubmission, error) {
	payload := model.SubmissionPayload{
		PhotoURLs:   s.PhotoURLs,
		Description: s.Description,
	}
	if len(s.Location) > 0 {
		var loc model.GeoPoint
		if err := json.Unmarshal(s.Location, &loc); err != nil {
			return nil, fmt.Errorf("failed to decode location for submission %s: %w", s.ID, err)
		}
		payload.Location = &loc
	}

	return &model.TaskSubmission{
		ID:          s.ID,
		UserID:      s.UserID,
		TaskID:      s.TaskID,
		Status:      model.SubmissionStatus(s.Status),
		Payload:     payload,
		ReviewedBy:  s.ReviewedBy,
		ReviewedAt:  s.ReviewedAt,
		Feedback:    s.Feedback,
		SubmittedAt: s.SubmittedAt,
	}, nil
}

func (r *Repository) CreateTask(ctx context.Context, t *model.Task) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	reqs, err := json.Marshal(t.Requirements)
	if err != nil {
		return fmt.Errorf("failed to encode task requirements: %w", err)
	}

	query, args, err := squirrel.
		Insert("tasks").
		SetMap(map[string]interface{}{
			"id":            t.ID,
			"title":         t.Title,
			"description":   t.Description,
			"category":      t.Category,
			"difficulty":    t.Difficulty,
			"eco_points":    t.EcoPoints,
			"impact_metric": t.ImpactMetric,
			"impact_value":  t.ImpactValue,
			"requirements":  reqs,
			"is_active":     t.IsActive,
			"created_by":    t.CreatedBy,
			"created_at":    t.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task insert query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

func (r *Repository) UpdateTask(ctx context.Context, t *model.Task) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	reqs, err := json.Marshal(t.Requirements)
	if err != nil {
		return fmt.Errorf("failed to encode task requirements: %w", err)
	}

	query, args, err := squirrel.
		Update("tasks").
		SetMap(map[string]interface{}{
			"title":         t.Title,
			"description":   t.Description,
			"category":      t.Category,
			"difficulty":    t.Difficulty,
			"eco_points":    t.EcoPoints,
			"impact_metric": t.ImpactMetric,
			"impact_value":  t.ImpactValue,
			"requirements":  reqs,
			"is_active":     t.IsActive,
		}).
		Where(squirrel.Eq{"id": t.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("*").
		From("tasks").
		Where(squirrel.Eq{"id": taskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var t task
	err = r.db.GetContext(ctx, &t, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return t.toModel()
}

func (r *Repository) ListTasks(ctx context.Context, activeOnly bool) ([]*model.Task, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	builder := squirrel.
		Select("*").
		From("tasks").
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar)
	if activeOnly {
		builder = builder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []task
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	tasks := make([]*model.Task, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// CreateSubmission relies on the partial unique index over
// (user_id, task_id) WHERE status = 'pending' to enforce at most one open
// submission per task per user.
func (r *Repository) CreateSubmission(ctx context.Context, s *model.TaskSubmission) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	var location []byte
	if s.Payload.Location != nil {
		var err error
		location, err = json.Marshal(s.Payload.Location)
		if err != nil {
			return fmt.Errorf("failed to encode submission location: %w", err)
		}
	}

	query, args, err := squirrel.
		Insert("task_submissions").
		SetMap(map[string]interface{}{
			"id":           s.ID,
			"user_id":      s.UserID,
			"task_id":      s.TaskID,
			"status":       string(s.Status),
			"photo_urls":   pq.StringArray(s.Payload.PhotoURLs),
			"location":     location,
			"description":  s.Payload.Description,
			"feedback":     s.Feedback,
			"submitted_at": s.SubmittedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build submission insert query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "task_submissions_pending_key") {
			return ErrDuplicatePendingSubmission
		}
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, submissionID uuid.UUID) (*model.TaskSubmission, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("*").
		From("task_submissions").
		Where(squirrel.Eq{"id": submissionID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var s taskSubmission
	err = r.db.GetContext(ctx, &s, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.toModel()
}

func (r *Repository) ListSubmissionsByUser(ctx context.Context, userID uuid.UUID) ([]*model.TaskSubmission, error) {
	return r.listSubmissions(ctx, squirrel.Eq{"user_id": userID})
}

func (r *Repository) ListPendingSubmissions(ctx context.Context, limit int) ([]*model.TaskSubmission, error) {
	return r.listSubmissions(ctx, squirrel.Eq{"status": string(model.SubmissionPending)}, uint64(limit))
}

func (r *Repository) listSubmissions(ctx context.Context, where squirrel.Eq, limit ...uint64) ([]*model.TaskSubmission, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	builder := squirrel.
		Select("*").
		From("task_submissions").
		Where(where).
		OrderBy("submitted_at").
		PlaceholderFormat(squirrel.Dollar)
	if len(limit) > 0 && limit[0] > 0 {
		builder = builder.Limit(limit[0])
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []taskSubmission
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	submissions := make([]*model.TaskSubmission, 0, len(rows))
	for i := range rows {
		s, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}

	return submissions, nil
}

// ReviewSubmission performs the terminal transition with an optimistic
// guard: the UPDATE only matches while status is still pending, so exactly
// one of two concurrent reviews wins and the other sees ErrAlreadyReviewed.
func (r *Repository) ReviewSubmission(ctx context.Context, submissionID, reviewerID uuid.UUID, decision model.ReviewDecision, feedback string, reviewedAt time.Time) (*model.TaskSubmission, error) {
	var reviewed *model.TaskSubmission

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("task_submissions").
			SetMap(map[string]interface{}{
				"status":      string(decision),
				"reviewed_by": reviewerID,
				"reviewed_at": reviewedAt,
				"feedback":    feedback,
			}).
			Where(squirrel.Eq{
				"id":     submissionID,
				"status": string(model.SubmissionPending),
			}).
			Suffix("RETURNING *").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build review update query: %w", err)
		}

		var s taskSubmission
		err = tx.GetContext(ctx, &s, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Missing row and already-terminal row look the same to the
				// guarded UPDATE; a second read tells them apart.
				existsQuery, existsArgs, qErr := squirrel.
					Select("COUNT(*)").
					From("task_submissions").
					Where(squirrel.Eq{"id": submissionID}).
					PlaceholderFormat(squirrel.Dollar).
					ToSql()
				if qErr != nil {
					return qErr
				}
				var count int
				if gErr := tx.GetContext(ctx, &count, existsQuery, existsArgs...); gErr != nil {
					return gErr
				}
				if count == 0 {
					return ErrNotFound
				}
				return ErrAlreadyReviewed
			}
			return fmt.Errorf("failed to review submission: %w", err)
		}

		reviewed, err = s.toModel()
		return err
	})
	if err != nil {
		return nil, err
	}

	return reviewed, nil
}

func (r *Repository) CountApprovedTasks(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("COUNT(*)").
		From("task_submissions").
		Where(squirrel.Eq{"user_id": userID, "status": string(model.SubmissionApproved)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}

	return count, nil
}

// AddImpact accumulates a task's environmental metric for the user.
// Upsert keeps it a single atomic statement.
func (r *Repository) AddImpact(ctx context.Context, userID uuid.UUID, metric string, value float64) error {
	if metric == "" || value == 0 {
		return nil
	}

	ctx, cancel := r.opContext(ctx)
	defer cancel()

	query, args, err := squirrel.
		Insert("user_impact").
		SetMap(map[string]interface{}{
			"user_id": userID,
			"metric":  metric,
			"total":   value,
		}).
		Suffix("ON CONFLICT (user_id, metric) DO UPDATE SET total = user_impact.total + EXCLUDED.total").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
