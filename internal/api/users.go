package api

import (
	"errors"
	"net/http"
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

type userRoutes struct {
	us service.UserServiceI
	a  *auth.JWTAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.JWTAuth) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.Middleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/me", r.GetMe)
		h.GET("/me/progress", r.GetMyProgress)
		h.GET("/:user_id", r.GetUser)
		h.GET("/:user_id/progress", middleware.RequireCapability(model.CapViewAnyUser), r.GetUserProgress)
		h.PATCH("/:user_id/role", middleware.RequireCapability(model.CapAssignRoles), r.AssignRole)
	}
}

type RegisterUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	SchoolID *string `json:"school_id"`
	ClassID  *string `json:"class_id"`
}

type UserResponse struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	SchoolID     *uuid.UUID `json:"school_id,omitempty"`
	ClassID      *uuid.UUID `json:"class_id,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
}

func userToResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		SchoolID:     u.SchoolID,
		ClassID:      u.ClassID,
		RegisteredAt: u.RegisteredAt,
	}
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	schoolID, err := parseOptionalUUID(req.SchoolID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid school_id")
		return
	}
	classID, err := parseOptionalUUID(req.ClassID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid class_id")
		return
	}

	user := &model.User{
		ID:       authCtx.UserID,
		Username: req.Username,
		Email:    req.Email,
		SchoolID: schoolID,
		ClassID:  classID,
	}

	if err := r.us.RegisterUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, service.ErrUserExists) {
			respondError(c, http.StatusConflict, "user already registered")
			return
		}
		log.Error("failed to register user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to register user")
		return
	}

	respondOK(c, http.StatusCreated, userToResponse(user))
}

func (r *userRoutes) GetMe(c *gin.Context) {
	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	r.getUser(c, authCtx.UserID)
}

func (r *userRoutes) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user_id")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if authCtx.UserID != userID && !authCtx.Role.Can(model.CapViewAnyUser) {
		respondError(c, http.StatusForbidden, "insufficient permissions")
		return
	}

	r.getUser(c, userID)
}

func (r *userRoutes) getUser(c *gin.Context, userID uuid.UUID) {
	log := logger.Logger()

	user, err := r.us.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Error("failed to get user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get user")
		return
	}

	respondOK(c, http.StatusOK, userToResponse(user))
}

type ProgressResponse struct {
	TotalPoints      int       `json:"total_points"`
	Level            int       `json:"level"`
	CompletedLessons int       `json:"completed_lessons"`
	ApprovedTasks    int       `json:"approved_tasks"`
	BestQuizScore    float64   `json:"best_quiz_score"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (r *userRoutes) GetMyProgress(c *gin.Context) {
	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	r.getProgress(c, authCtx.UserID)
}

func (r *userRoutes) GetUserProgress(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user_id")
		return
	}
	r.getProgress(c, userID)
}

func (r *userRoutes) getProgress(c *gin.Context, userID uuid.UUID) {
	log := logger.Logger()

	progress, err := r.us.GetProgress(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Error("failed to get user progress", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get user progress")
		return
	}

	respondOK(c, http.StatusOK, ProgressResponse{
		TotalPoints:      progress.TotalPoints,
		Level:            progress.Level,
		CompletedLessons: progress.CompletedLessons,
		ApprovedTasks:    progress.ApprovedTasks,
		BestQuizScore:    progress.BestQuizScore,
		UpdatedAt:        progress.UpdatedAt,
	})
}

type AssignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (r *userRoutes) AssignRole(c *gin.Context) {
	log := logger.Logger()

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user_id")
		return
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	err = r.us.AssignRole(c.Request.Context(), userID, model.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrInvalidRole):
			respondError(c, http.StatusBadRequest, "invalid role")
		default:
			log.Error("failed to assign role", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to assign role")
		}
		return
	}

	respondOK(c, http.StatusOK, gin.H{"user_id": userID, "role": req.Role})
}
