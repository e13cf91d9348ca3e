package user

import (
	"errors"
	"time"
)

const (
	RoleUser   = "user"
	RoleWriter = "writer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SignUpRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,maxbytes=72"`
	Role     string `json:"role" binding:"omitempty,oneof=user writer editor admin"`
}

// RoleOrDefault is the role a new account gets when none was asked for.
func (r SignUpRequest) RoleOrDefault() string {
	if r.Role == "" {
		return RoleUser
	}
	return r.Role
}
