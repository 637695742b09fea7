package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"auth_api/internal/common"
	"auth_api/internal/domain/model"
)

// ctxErr reports a dead context, mapping a blown deadline to the timeout
// kind so the memory driver classifies it the same way the pg driver does.
func ctxErr(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return common.ErrTimeout
	}
	return err
}

// memoryUserRepository is a process-local UserRepository used for local
// development (DB_DRIVER=memory) and tests. It enforces the same unique
// email constraint the Postgres schema does, under a single mutex, so two
// concurrent registrations with one email still resolve to one success.
type memoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]string // email -> id
	now     func() time.Time
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

func (r *memoryUserRepository) UpdateName(ctx context.Context, id, name string) (*model.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	user.Name = name
	user.UpdatedAt = r.now()
	c := *user
	return &c, nil
}

func (r *memoryUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = r.now()
	return nil
}

func (r *memoryUserRepository) ListActive(ctx context.Context) ([]*model.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*model.User
	for _, user := range r.byID {
		if user.Active {
			c := *user
			users = append(users, &c)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}
