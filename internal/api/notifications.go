package api

import (
	"errors"
	"net/http"
	"strconv"

	"ecolearn_backend/internal/service"
	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type notificationRoutes struct {
	ns service.NotificationServiceI
	a  *auth.JWTAuth
}

func NewNotificationRoutes(handler *gin.RouterGroup, ns service.NotificationServiceI, a *auth.JWTAuth) {
	r := &notificationRoutes{ns: ns, a: a}
	h := handler.Group("/notifications")
	h.Use(a.Middleware())
	{
		h.GET("/", r.ListNotifications)
		h.PATCH("/:notification_id/read", r.MarkRead)
		h.PATCH("/read-all", r.MarkAllRead)
		h.DELETE("/:notification_id", r.Delete)
	}
}

func (r *notificationRoutes) ListNotifications(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := r.ns.List(c.Request.Context(), authCtx.UserID, unreadOnly, limit)
	if err != nil {
		log.Error("failed to list notifications", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	respondOK(c, http.StatusOK, notifications)
}

func (r *notificationRoutes) MarkRead(c *gin.Context) {
	log := logger.Logger()

	notificationID, err := uuid.Parse(c.Param("notification_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid notification_id")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	err = r.ns.MarkRead(c.Request.Context(), authCtx.UserID, notificationID)
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "notification not found")
			return
		}
		log.Error("failed to mark notification read", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to mark notification read")
		return
	}

	respondOK(c, http.StatusOK, gin.H{})
}

func (r *notificationRoutes) MarkAllRead(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := r.ns.MarkAllRead(c.Request.Context(), authCtx.UserID); err != nil {
		log.Error("failed to mark all notifications read", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to mark all notifications read")
		return
	}

	respondOK(c, http.StatusOK, gin.H{})
}

func (r *notificationRoutes) Delete(c *gin.Context) {
	log := logger.Logger()

	notificationID, err := uuid.Parse(c.Param("notification_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid notification_id")
		return
	}

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	err = r.ns.Delete(c.Request.Context(), authCtx.UserID, notificationID)
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "notification not found")
			return
		}
		log.Error("failed to delete notification", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete notification")
		return
	}

	respondOK(c, http.StatusOK, gin.H{})
}
