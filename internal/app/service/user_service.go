package service

import (
	"context"
	"fmt"
	"time"

	"auth_api/internal/domain/model"
	"auth_api/internal/domain/repository"
)

// UserService exposes administrative user queries.
type UserService struct {
	users        repository.UserRepository
	storeTimeout time.Duration
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users, storeTimeout: defaultStoreTimeout}
}

// ListActive returns every active user, sanitized.
func (s *UserService) ListActive(ctx context.Context) ([]*model.User, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	users, err := s.users.ListActive(storeCtx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	sanitized := make([]*model.User, len(users))
	for i, user := range users {
		sanitized[i] = user.Sanitized()
	}
	return sanitized, nil
}
