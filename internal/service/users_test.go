package service

import (
	"context"
	"testing"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"
	"ecolearn_backend/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_RegisterUser(t *testing.T) {
	t.Run("New users default to the student role", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Role == model.RoleStudent &&
				u.ID != uuid.Nil &&
				!u.RegisteredAt.IsZero()
		})).Return(nil)

		service := NewUserService(mockRepo)
		err := service.RegisterUser(context.Background(), &model.User{
			Username: "greta",
			Email:    "greta@school.example",
		})

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Duplicate registration", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("CreateUser", mock.Anything, mock.Anything).
			Return(repository.ErrDuplicateUser)

		service := NewUserService(mockRepo)
		err := service.RegisterUser(context.Background(), &model.User{
			Username: "greta",
			Email:    "greta@school.example",
		})

		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("Unknown role is rejected before the write", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}

		service := NewUserService(mockRepo)
		err := service.RegisterUser(context.Background(), &model.User{
			Username: "greta",
			Email:    "greta@school.example",
			Role:     "superuser",
		})

		assert.ErrorIs(t, err, ErrInvalidRole)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})
}

func TestUserService_AssignRole(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name          string
		role          model.Role
		repoError     error
		expectedError error
	}{
		{"Promote to teacher", model.RoleTeacher, nil, nil},
		{"Invalid role", "superuser", nil, ErrInvalidRole},
		{"Unknown user", model.RoleNGO, repository.ErrNotFound, ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockUserRepository{}
			if tt.role.Valid() {
				mockRepo.On("UpdateUserRole", mock.Anything, userID, tt.role).
					Return(tt.repoError)
			}

			service := NewUserService(mockRepo)
			err := service.AssignRole(context.Background(), userID, tt.role)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_TouchLastSeen(t *testing.T) {
	userID := uuid.New()

	t.Run("Refreshes the timestamp", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("UpdateLastSeen", mock.Anything, userID).Return(nil)

		service := NewUserService(mockRepo)
		assert.NoError(t, service.TouchLastSeen(context.Background(), userID))
		mockRepo.AssertExpectations(t)
	})

	t.Run("Unknown user", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockRepo.On("UpdateLastSeen", mock.Anything, userID).
			Return(repository.ErrNotFound)

		service := NewUserService(mockRepo)
		assert.ErrorIs(t, service.TouchLastSeen(context.Background(), userID), ErrUserNotFound)
	})
}
