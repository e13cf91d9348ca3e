package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/modelhub/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type UsersRepo struct {
	db  DBTX
	obs DBObserver
}

func NewUsersRepo(db DBTX, obs DBObserver) *UsersRepo {
	return &UsersRepo{db: db, obs: observerOrNoop(obs)}
}

func (r *UsersRepo) Create(ctx context.Context, username, passwordHash, role string) (user.User, error) {
	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.obs.ObserveDB("users.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.get_by_username", func() error {
		return r.db.QueryRow(
			ctx,
			`SELECT id::text, username, password_hash, role, created_at, updated_at
			FROM users
			WHERE username = $1`,
			username,
		).Scan(
			&u.ID,
			&u.Username,
			&u.PasswordHash,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}
