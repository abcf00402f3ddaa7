package api

import (
	"errors"
	"net/http"
	"strconv"

	"ecolearn_backend/internal/middleware"
	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/service"
	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type taskRoutes struct {
	ts service.TaskServiceI
	a  *auth.JWTAuth
}

func NewTaskRoutes(handler *gin.RouterGroup, ts service.TaskServiceI, a *auth.JWTAuth) {
	r := &taskRoutes{ts: ts, a: a}
	h := handler.Group("/tasks")
	h.Use(a.Middleware())
	{
		h.GET("/", r.ListTasks)
		h.POST("/", middleware.RequireCapability(model.CapManageTasks), r.CreateTask)
		h.PUT("/:task_id", middleware.RequireCapability(model.CapManageTasks), r.UpdateTask)

		h.POST("/:task_id/submissions", r.SubmitTask)
		h.GET("/submissions/mine", r.ListMySubmissions)
		h.GET("/submissions/:submission_id", r.GetSubmission)
		h.GET("/submissions/pending", middleware.RequireCapability(model.CapReviewSubmissions), r.ListPendingSubmissions)
		h.POST("/submissions/:submission_id/review", middleware.RequireCapability(model.CapReviewSubmissions), r.ReviewSubmission)
	}
}

type TaskRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Category     string  `json:"category" binding:"required"`
	Difficulty   string  `json:"difficulty"`
	EcoPoints    int     `json:"eco_points" binding:"required"`
	ImpactMetric string  `json:"impact_metric"`
	ImpactValue  float64 `json:"impact_value"`
	IsActive     *bool   `json:"is_active"`

	PhotoRequired     bool   `json:"photo_required"`
	LocationRequired  bool   `json:"location_required"`
	MinDescriptionLen int    `json:"min_description_len"`
	VerificationType  string `json:"verification_type"`
}

func (req *TaskRequest) toModel(createdBy uuid.UUID) *model.Task {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &model.Task{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		EcoPoints:    req.EcoPoints,
		ImpactMetric: req.ImpactMetric,
		ImpactValue:  req.ImpactValue,
		IsActive:     active,
		CreatedBy:    createdBy,
		Requirements: model.TaskRequirements{
			PhotoRequired:     req.PhotoRequired,
			LocationRequired:  req.LocationRequired,
			MinDescriptionLen: req.MinDescriptionLen,
			VerificationType:  req.VerificationType,
		},
	}
}

func (r *taskRoutes) ListTasks(c *gin.Context) {
	log := logger.Logger()

	activeOnly := c.DefaultQuery("active", "true") == "true"
	tasks, err := r.ts.ListTasks(c.Request.Context(), activeOnly)
	if err != nil {
		log.Error("failed to list tasks", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	respondOK(c, http.StatusOK, tasks)
}

func (r *taskRoutes) CreateTask(c *gin.Context) {
	log := logger.Logger()

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	task := req.toModel(authCtx.UserID)
	if err := r.ts.CreateTask(c.Request.Context(), task); err != nil {
		log.Error("failed to create task", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to create task")
		return
	}

	respondOK(c, http.StatusCreated, task)
}

func (r *taskRoutes) UpdateTask(c *gin.Context) {
	log := logger.Logger()

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid task_id")
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	task := req.toModel(authCtx.UserID)
	task.ID = taskID

	if err := r.ts.UpdateTask(c.Request.Context(), task); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, "task not found")
			return
		}
		log.Error("failed to update task", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to update task")
		return
	}

	respondOK(c, http.StatusOK, task)
}

type SubmitTaskRequest struct {
	PhotoURLs   []string        `json:"photo_urls"`
	Location    *model.GeoPoint `json:"location"`
	Description string          `json:"description"`
}

func (r *taskRoutes) SubmitTask(c *gin.Context) {
	log := logger.Logger()

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid task_id")
		return
	}

	var req SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	submission, err := r.ts.SubmitTask(c.Request.Context(), authCtx.UserID, taskID, model.SubmissionPayload{
		PhotoURLs:   req.PhotoURLs,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			respondValidation(c, vErr)
		case errors.Is(err, service.ErrTaskNotFound):
			respondError(c, http.StatusNotFound, "task not found")
		case errors.Is(err, service.ErrTaskInactive):
			respondError(c, http.StatusConflict, "task is not active")
		case errors.Is(err, service.ErrDuplicatePendingSubmission):
			respondError(c, http.StatusConflict, "a pending submission for this task already exists")
		default:
			log.Error("failed to submit task", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to submit task")
		}
		return
	}

	respondOK(c, http.StatusCreated, submission)
}

func (r *taskRoutes) ListMySubmissions(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	submissions, err := r.ts.ListSubmissionsByUser(c.Request.Context(), authCtx.UserID)
	if err != nil {
		log.Error("failed to list submissions", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list submissions")
		return
	}

	respondOK(c, http.StatusOK, submissions)
}

// GetSubmission returns one submission to its owner or to anyone who may
// review submissions; everyone else sees not found.
func (r *taskRoutes) GetSubmission(c *gin.Context) {
	log := logger.Logger()

	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid submission_id")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	submission, err := r.ts.GetSubmission(c.Request.Context(), submissionID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			respondError(c, http.StatusNotFound, "submission not found")
			return
		}
		log.Error("failed to get submission", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get submission")
		return
	}

	if submission.UserID != authCtx.UserID && !authCtx.Role.Can(model.CapReviewSubmissions) {
		respondError(c, http.StatusNotFound, "submission not found")
		return
	}

	respondOK(c, http.StatusOK, submission)
}

func (r *taskRoutes) ListPendingSubmissions(c *gin.Context) {
	log := logger.Logger()

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	submissions, err := r.ts.ListPendingSubmissions(c.Request.Context(), limit)
	if err != nil {
		log.Error("failed to list pending submissions", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list pending submissions")
		return
	}

	respondOK(c, http.StatusOK, submissions)
}

type ReviewRequest struct {
	Decision string `json:"decision" binding:"required"`
	Feedback string `json:"feedback"`
}

func (r *taskRoutes) ReviewSubmission(c *gin.Context) {
	log := logger.Logger()

	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid submission_id")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	result, err := r.ts.ReviewSubmission(c.Request.Context(), submissionID, authCtx.UserID,
		model.ReviewDecision(req.Decision), req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDecision):
			respondError(c, http.StatusBadRequest, "decision must be approved or rejected")
		case errors.Is(err, service.ErrSubmissionNotFound):
			respondError(c, http.StatusNotFound, "submission not found")
		case errors.Is(err, service.ErrAlreadyReviewed):
			respondError(c, http.StatusConflict, "submission already reviewed")
		default:
			log.Error("failed to review submission", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to review submission")
		}
		return
	}

	respondOK(c, http.StatusOK, result)
}
