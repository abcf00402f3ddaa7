package service

import (
	"context"
	"errors"
	"time"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/repository"

	"github.com/google/uuid"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// RegisterUser creates the account on first sign-in. New users always start
// as students; roles are reassigned by an admin afterwards.
func (s *UserService) RegisterUser(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = model.RoleStudent
	}
	if !user.Role.Valid() {
		return ErrInvalidRole
	}

	now := time.Now().UTC()
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = now
	}
	user.LastSeenAt = now

	err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUser) {
		return ErrUserExists
	}
	return err
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetProgress(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error) {
	progress, err := s.repo.GetProgress(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return progress, nil
}

// TouchLastSeen refreshes the user's last-seen timestamp. Called on every
// authenticated request, so it stays a single cheap update.
func (s *UserService) TouchLastSeen(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.UpdateLastSeen(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *UserService) AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	err := s.repo.UpdateUserRole(ctx, userID, role)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
