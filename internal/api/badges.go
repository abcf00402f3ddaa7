package api

import (
	"errors"
	"net/http"

	"ecolearn_backend/internal/middleware"
	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/service"
	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type badgeRoutes struct {
	bs service.BadgeServiceI
	a  *auth.JWTAuth
}

func NewBadgeRoutes(handler *gin.RouterGroup, bs service.BadgeServiceI, a *auth.JWTAuth) {
	r := &badgeRoutes{bs: bs, a: a}
	h := handler.Group("/badges")
	h.Use(a.Middleware())
	{
		h.GET("/", r.ListBadges)
		h.GET("/mine", r.ListMyBadges)
		h.POST("/evaluate", r.Evaluate)
		h.POST("/", middleware.RequireCapability(model.CapManageBadges), r.CreateBadge)
		h.PUT("/:badge_id", middleware.RequireCapability(model.CapManageBadges), r.UpdateBadge)
	}
}

type BadgeRequest struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	CriteriaKind string  `json:"criteria_kind" binding:"required"`
	Target       float64 `json:"target" binding:"required"`
	Category     string  `json:"category"`
	Metric       string  `json:"metric"`
	RewardPoints int     `json:"reward_points"`
	Rarity       string  `json:"rarity"`
	IsActive     *bool   `json:"is_active"`
}

func (req *BadgeRequest) toModel() *model.Badge {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &model.Badge{
		Name:        req.Name,
		Description: req.Description,
		Criteria: model.BadgeCriteria{
			Kind:     model.CriteriaKind(req.CriteriaKind),
			Target:   req.Target,
			Category: req.Category,
			Metric:   req.Metric,
		},
		RewardPoints: req.RewardPoints,
		Rarity:       req.Rarity,
		IsActive:     active,
	}
}

func (r *badgeRoutes) ListBadges(c *gin.Context) {
	log := logger.Logger()

	badges, err := r.bs.ListBadges(c.Request.Context())
	if err != nil {
		log.Error("failed to list badges", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list badges")
		return
	}

	respondOK(c, http.StatusOK, badges)
}

func (r *badgeRoutes) ListMyBadges(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	badges, err := r.bs.ListUserBadges(c.Request.Context(), authCtx.UserID)
	if err != nil {
		log.Error("failed to list user badges", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list user badges")
		return
	}

	respondOK(c, http.StatusOK, badges)
}

// Evaluate re-checks the caller against the catalog. Redundant calls are
// harmless; duplicates cannot be awarded.
func (r *badgeRoutes) Evaluate(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	newBadges, err := r.bs.Evaluate(c.Request.Context(), authCtx.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		log.Error("failed to evaluate badges", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to evaluate badges")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"new_badges": newBadges})
}

func (r *badgeRoutes) CreateBadge(c *gin.Context) {
	log := logger.Logger()

	var req BadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	badge := req.toModel()
	if err := r.bs.CreateBadge(c.Request.Context(), badge); err != nil {
		if errors.Is(err, service.ErrInvalidBadgeTarget) {
			respondError(c, http.StatusBadRequest, "criteria target must be positive")
			return
		}
		log.Error("failed to create badge", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to create badge")
		return
	}

	respondOK(c, http.StatusCreated, badge)
}

func (r *badgeRoutes) UpdateBadge(c *gin.Context) {
	log := logger.Logger()

	badgeID, err := uuid.Parse(c.Param("badge_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid badge_id")
		return
	}

	var req BadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request")
		return
	}

	badge := req.toModel()
	badge.ID = badgeID

	if err := r.bs.UpdateBadge(c.Request.Context(), badge); err != nil {
		switch {
		case errors.Is(err, service.ErrBadgeNotFound):
			respondError(c, http.StatusNotFound, "badge not found")
		case errors.Is(err, service.ErrInvalidBadgeTarget):
			respondError(c, http.StatusBadRequest, "criteria target must be positive")
		default:
			log.Error("failed to update badge", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to update badge")
		}
		return
	}

	respondOK(c, http.StatusOK, badge)
}
