package db

import (
	"context"
	"errors"

	"github.com/geocoder89/modelhub/internal/config"
	"github.com/geocoder89/modelhub/internal/domain/user"
	"github.com/geocoder89/modelhub/internal/security"
)

type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, username, passwordHash, role string) (user.User, error)
}

// EnsureAdminUser creates the configured admin account once. It does nothing
// when no admin credentials are configured or the user already exists.
func EnsureAdminUser(ctx context.Context, users AdminStore, cfg config.Config) (bool, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	_, err := users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, cfg.AdminUsername, hash, cfg.AdminRole)
	if errors.Is(err, user.ErrUsernameTaken) {
		// another replica won the race
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
