package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ecolearn_backend/internal/middleware"
	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/service"
	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type pointsRoutes struct {
	ps service.PointsServiceI
	ss service.StreakServiceI
	bs service.BadgeEvaluator
	a  *auth.JWTAuth
}

func NewPointsRoutes(handler *gin.RouterGroup, ps service.PointsServiceI, ss service.StreakServiceI, bs service.BadgeEvaluator, a *auth.JWTAuth) {
	r := &pointsRoutes{ps: ps, ss: ss, bs: bs, a: a}
	h := handler.Group("/points")
	h.Use(a.Middleware())
	{
		h.GET("/history", r.History)
		h.POST("/lesson", r.CompleteLesson)
		h.POST("/quiz", r.RecordQuizResult)
		h.POST("/award", middleware.RequireCapability(model.CapAwardPoints), r.AwardPoints)
	}

	s := handler.Group("/streak")
	s.Use(a.Middleware())
	{
		s.GET("/", r.GetStreak)
		s.POST("/touch", r.TouchStreak)
	}
}

func (r *pointsRoutes) History(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := r.ps.History(c.Request.Context(), authCtx.UserID, limit)
	if err != nil {
		log.Error("failed to get points history", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get points history")
		return
	}

	respondOK(c, http.StatusOK, entries)
}

type CompleteLessonRequest struct {
	LessonID string `json:"lesson_id" binding:"required"`
}

// CompleteLesson credits a finished lesson at the configured value. The
// lesson id keys the award, so replaying a completion cannot double-credit;
// the day's streak is touched and badges are re-checked as part of the same
// activity.
func (r *pointsRoutes) CompleteLesson(c *gin.Context) {
	log := logger.Logger()

	var req CompleteLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid lesson_id")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	result, err := r.ps.CompleteLesson(c.Request.Context(), authCtx.UserID, lessonID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrDuplicateActivity):
			respondError(c, http.StatusConflict, "lesson already credited")
		default:
			log.Error("failed to award lesson points", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to award lesson points")
		}
		return
	}

	r.afterActivity(c, authCtx.UserID, "lesson")

	respondOK(c, http.StatusOK, result)
}

// afterActivity runs the follow-ups every point-earning activity shares:
// touch the day's streak and re-check badges. Both are safe to repeat and
// neither failure undoes the credited points.
func (r *pointsRoutes) afterActivity(c *gin.Context, userID uuid.UUID, activity string) {
	log := logger.Logger()

	if _, err := r.ss.TouchActivity(c.Request.Context(), userID, time.Now()); err != nil {
		log.Error("failed to touch streak after "+activity, zap.Error(err))
	}
	if _, err := r.bs.Evaluate(c.Request.Context(), userID); err != nil {
		log.Error("failed to evaluate badges after "+activity, zap.Error(err))
	}
}

type QuizResultRequest struct {
	QuizID string  `json:"quiz_id" binding:"required"`
	Score  float64 `json:"score"`
}

func (r *pointsRoutes) RecordQuizResult(c *gin.Context) {
	log := logger.Logger()

	var req QuizResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid quiz_id")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	result, err := r.ps.RecordQuizResult(c.Request.Context(), authCtx.UserID, req.Score, quizID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuizScore):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrDuplicateActivity):
			respondError(c, http.StatusConflict, "quiz already credited")
		default:
			log.Error("failed to record quiz result", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to record quiz result")
		}
		return
	}

	r.afterActivity(c, authCtx.UserID, "quiz")

	respondOK(c, http.StatusOK, result)
}

type AwardPointsRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AwardPoints is the admin correction endpoint; it is the only caller
// allowed to pass a negative delta.
func (r *pointsRoutes) AwardPoints(c *gin.Context) {
	log := logger.Logger()

	var req AwardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user_id")
		return
	}

	result, err := r.ps.Award(c.Request.Context(), userID, req.Delta, req.Reason,
		model.ActivityAdjustment, nil)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Error("failed to award points", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to award points")
		return
	}

	respondOK(c, http.StatusOK, result)
}

type StreakResponse struct {
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	Multiplier       float64 `json:"multiplier"`
	LastActivityDate *string `json:"last_activity_date,omitempty"`
}

func (r *pointsRoutes) GetStreak(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	streak, err := r.ss.GetStreak(c.Request.Context(), authCtx.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Error("failed to get streak", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get streak")
		return
	}

	respondOK(c, http.StatusOK, toStreakResponse(streak))
}

// TouchStreak records activity for the current day without crediting any
// points. Calling it twice in one UTC day returns the same state.
func (r *pointsRoutes) TouchStreak(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	streak, err := r.ss.TouchActivity(c.Request.Context(), authCtx.UserID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Error("failed to touch streak", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to touch streak")
		return
	}

	respondOK(c, http.StatusOK, toStreakResponse(streak))
}

func toStreakResponse(streak *model.UserStreak) StreakResponse {
	resp := StreakResponse{
		CurrentStreak: streak.CurrentStreak,
		LongestStreak: streak.LongestStreak,
		Multiplier:    streak.Multiplier,
	}
	if streak.LastActivityDate != nil {
		date := streak.LastActivityDate.Format("2006-01-02")
		resp.LastActivityDate = &date
	}
	return resp
}
