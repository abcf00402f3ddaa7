package middleware

import (
	"net/http"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireCapability gates a route on the caller's role holding the named
// capability. Every privileged operation goes through this check; there is
// no implicit admin bypass anywhere else.
func RequireCapability(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authCtx, ok := auth.FromContext(c)
		if !ok {
			log.Error("auth context not found on privileged route")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "error": "unauthorized",
			})
			return
		}

		if !authCtx.Role.Can(capability) {
			log.Info("capability check refused",
				zap.String("user_id", authCtx.UserID.String()),
				zap.String("role", string(authCtx.Role)),
				zap.String("capability", string(capability)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false, "error": "insufficient permissions",
			})
			return
		}

		c.Next()
	}
}
