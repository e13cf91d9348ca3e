package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/modelhub/internal/domain/user"
	"github.com/geocoder89/modelhub/internal/http/middlewares"
	"github.com/geocoder89/modelhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserWriter interface {
	Create(ctx context.Context, username, passwordHash, role string) (user.User, error)
}

type TokenIssuer interface {
	Issue(u user.User) (string, error)
}

type AuthHandler struct {
	users  UserWriter
	tokens TokenIssuer
	log    *slog.Logger
}

func NewAuthHandler(users UserWriter, tokens TokenIssuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

type authResponse struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
			Field:   "password",
			Rule:    "maxbytes",
			Param:   "72",
			Message: validationMessage("maxbytes", "72"),
		}}})
		return
	}
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "hash password", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(ctx.Request.Context(), req.Username, hash, req.RoleOrDefault())
	if err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			RespondConflict(ctx, "username_taken", "Username is already in use.")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "create user", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "issue token", "err", err)
		RespondInternal(ctx, "Could not generate token")
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "user signed up", "username", u.Username, "role", u.Role)

	ctx.JSON(http.StatusCreated, authResponse{User: u, Token: token})
}

// SignIn runs behind RequireBasic, which has already checked the password.
func (h *AuthHandler) SignIn(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondForbidden(ctx, "Invalid Login")
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "issue token", "err", err)
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, authResponse{User: u, Token: token})
}
