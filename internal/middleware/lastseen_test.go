package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type lastSeenStub struct {
	touched []uuid.UUID
}

func (s *lastSeenStub) TouchLastSeen(_ context.Context, userID uuid.UUID) error {
	s.touched = append(s.touched, userID)
	return nil
}

func TestTrackLastSeen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jwtAuth := auth.NewJWTAuth("test-secret", time.Hour)
	userID := uuid.New()
	token, err := jwtAuth.IssueToken(userID, model.RoleStudent)
	assert.NoError(t, err)

	stub := &lastSeenStub{}

	router := gin.New()
	router.Use(TrackLastSeen(stub))
	protected := router.Group("/", jwtAuth.Middleware())
	protected.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("Authenticated request records last seen", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []uuid.UUID{userID}, stub.touched)
	})

	t.Run("Unauthenticated request passes through untouched", func(t *testing.T) {
		before := len(stub.touched)

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Len(t, stub.touched, before)
	})
}
