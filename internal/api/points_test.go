package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/service/mocks"
	"ecolearn_backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPointsTestRouter(t *testing.T, ps *mocks.MockPointsService, ss *mocks.MockStreakService, bs *mocks.MockBadgeEvaluator) (http.Handler, string, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtAuth := auth.NewJWTAuth("test-secret", time.Hour)
	userID := uuid.New()
	token, err := jwtAuth.IssueToken(userID, model.RoleStudent)
	assert.NoError(t, err)

	router := gin.New()
	NewPointsRoutes(router.Group("/"), ps, ss, bs, jwtAuth)

	return router, token, userID
}

func TestPointsRoutes_CompleteLesson_RechecksBadges(t *testing.T) {
	lessonID := uuid.New()

	ps := &mocks.MockPointsService{}
	ss := &mocks.MockStreakService{}
	bs := &mocks.MockBadgeEvaluator{}

	router, token, userID := newPointsTestRouter(t, ps, ss, bs)

	ps.On("CompleteLesson", mock.Anything, userID, lessonID).
		Return(&model.AwardResult{NewTotal: 110, NewLevel: 2, LeveledUp: true}, nil)
	ss.On("TouchActivity", mock.Anything, userID, mock.Anything).
		Return(&model.UserStreak{UserID: userID, CurrentStreak: 3}, nil)
	bs.On("Evaluate", mock.Anything, userID).
		Return([]*model.Badge{}, nil)

	body := fmt.Sprintf(`{"lesson_id":%q}`, lessonID)
	req := httptest.NewRequest(http.MethodPost, "/points/lesson", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ps.AssertExpectations(t)
	ss.AssertExpectations(t)
	bs.AssertExpectations(t)
}

func TestPointsRoutes_RecordQuizResult_RechecksBadges(t *testing.T) {
	quizID := uuid.New()

	ps := &mocks.MockPointsService{}
	ss := &mocks.MockStreakService{}
	bs := &mocks.MockBadgeEvaluator{}

	router, token, userID := newPointsTestRouter(t, ps, ss, bs)

	ps.On("RecordQuizResult", mock.Anything, userID, 85.0, quizID).
		Return(&model.AwardResult{NewTotal: 97, NewLevel: 1}, nil)
	ss.On("TouchActivity", mock.Anything, userID, mock.Anything).
		Return(&model.UserStreak{UserID: userID, CurrentStreak: 1}, nil)
	bs.On("Evaluate", mock.Anything, userID).
		Return([]*model.Badge{}, nil)

	body := fmt.Sprintf(`{"quiz_id":%q,"score":85}`, quizID)
	req := httptest.NewRequest(http.MethodPost, "/points/quiz", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	bs.AssertExpectations(t)
}

func TestPointsRoutes_BadgeEvaluationFailureDoesNotFailTheRequest(t *testing.T) {
	lessonID := uuid.New()

	ps := &mocks.MockPointsService{}
	ss := &mocks.MockStreakService{}
	bs := &mocks.MockBadgeEvaluator{}

	router, token, userID := newPointsTestRouter(t, ps, ss, bs)

	ps.On("CompleteLesson", mock.Anything, userID, lessonID).
		Return(&model.AwardResult{NewTotal: 40, NewLevel: 1}, nil)
	ss.On("TouchActivity", mock.Anything, userID, mock.Anything).
		Return(&model.UserStreak{UserID: userID, CurrentStreak: 1}, nil)
	bs.On("Evaluate", mock.Anything, userID).
		Return(nil, assert.AnError)

	body := fmt.Sprintf(`{"lesson_id":%q}`, lessonID)
	req := httptest.NewRequest(http.MethodPost, "/points/lesson", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
