package api

import (
	"errors"
	"net/http"
	"strconv"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/service"
	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type leaderboardRoutes struct {
	ls service.LeaderboardServiceI
	a  *auth.JWTAuth
}

func NewLeaderboardRoutes(handler *gin.RouterGroup, ls service.LeaderboardServiceI, a *auth.JWTAuth) {
	r := &leaderboardRoutes{ls: ls, a: a}
	h := handler.Group("/leaderboard")
	h.Use(a.Middleware())
	{
		h.GET("/", r.GetLeaderboard)
		h.GET("/rank", r.GetMyRank)
	}
}

func boardParams(c *gin.Context) (model.LeaderboardScope, *uuid.UUID, model.LeaderboardPeriod, error) {
	scope := model.LeaderboardScope(c.DefaultQuery("scope", string(model.ScopeGlobal)))
	period := model.LeaderboardPeriod(c.DefaultQuery("period", string(model.PeriodAllTime)))

	var scopeID *uuid.UUID
	if raw := c.Query("scope_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return "", nil, "", err
		}
		scopeID = &id
	}

	return scope, scopeID, period, nil
}

func (r *leaderboardRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	scope, scopeID, period, err := boardParams(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid scope_id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := r.ls.GetLeaderboard(c.Request.Context(), scope, scopeID, period, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidScope),
			errors.Is(err, service.ErrInvalidPeriod),
			errors.Is(err, service.ErrScopeIDRequired):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Error("failed to get leaderboard", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to get leaderboard")
		}
		return
	}

	respondOK(c, http.StatusOK, entries)
}

func (r *leaderboardRoutes) GetMyRank(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	scope, scopeID, period, err := boardParams(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid scope_id")
		return
	}

	rank, err := r.ls.GetUserRank(c.Request.Context(), authCtx.UserID, scope, scopeID, period)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrInvalidScope),
			errors.Is(err, service.ErrInvalidPeriod),
			errors.Is(err, service.ErrScopeIDRequired):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Error("failed to get user rank", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to get user rank")
		}
		return
	}

	respondOK(c, http.StatusOK, gin.H{"rank": rank})
}
