package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/modelhub/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	mu         sync.RWMutex
	byUsername map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{byUsername: make(map[string]user.User)}
}

func (r *UsersRepo) Create(_ context.Context, username, passwordHash, role string) (user.User, error) {
	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[username]; exists {
		return user.User{}, user.ErrUsernameTaken
	}
	r.byUsername[username] = u

	return u, nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.byUsername[username]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Ping(context.Context) error { return nil }
