package middleware

import (
	"context"

	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LastSeenRecorder interface {
	TouchLastSeen(ctx context.Context, userID uuid.UUID) error
}

// TrackLastSeen refreshes the caller's last-seen timestamp once the request
// has been handled. It runs after the chain so the auth context is already
// populated; unauthenticated requests pass through untouched.
func TrackLastSeen(users LastSeenRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		authCtx, ok := auth.FromContext(c)
		if !ok {
			return
		}

		if err := users.TouchLastSeen(c.Request.Context(), authCtx.UserID); err != nil {
			logger.Logger().Error("failed to record last seen",
				zap.String("user_id", authCtx.UserID.String()),
				zap.Error(err))
		}
	}
}
