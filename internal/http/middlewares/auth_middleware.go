package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/modelhub/internal/actorctx"
	"github.com/geocoder89/modelhub/internal/auth"
	"github.com/geocoder89/modelhub/internal/authz"
	"github.com/geocoder89/modelhub/internal/domain/user"
	"github.com/geocoder89/modelhub/internal/security"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// FailureRecorder counts rejected requests, e.g. as metrics.
type FailureRecorder interface {
	AuthFailure(scheme, reason string)
}

type AuthMiddleware struct {
	users    UserLookup
	tokens   TokenVerifier
	policy   *authz.Policy
	failures FailureRecorder
}

func NewAuthMiddleware(users UserLookup, tokens TokenVerifier, policy *authz.Policy, failures FailureRecorder) *AuthMiddleware {
	return &AuthMiddleware{
		users:    users,
		tokens:   tokens,
		policy:   policy,
		failures: failures,
	}
}

// RequireBasic authenticates "Authorization: Basic" credentials against the
// user store. Any credential problem is a 403 and nothing downstream runs.
func (m *AuthMiddleware) RequireBasic() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, err := auth.ParseBasic(c.GetHeader("Authorization"))
		if err != nil {
			m.reject(c, "basic", "malformed", "Invalid Login")
			return
		}

		u, err := m.users.GetByUsername(c.Request.Context(), username)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.reject(c, "basic", "unknown_user", "Invalid Login")
				return
			}
			slog.Default().ErrorContext(c.Request.Context(), "basic auth user lookup failed", "err", err)
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Could not verify credentials")
			return
		}

		if err := security.CheckPassword(u.PasswordHash, password); err != nil {
			m.reject(c, "basic", "bad_password", "Invalid Login")
			return
		}

		setUser(c, u)
		c.Next()
	}
}

// RequireBearer verifies the token and re-reads the user so the role in use
// is always the stored one, not the one frozen into the token.
func (m *AuthMiddleware) RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := auth.ParseBearer(c.GetHeader("Authorization"))
		if !ok {
			m.reject(c, "bearer", "missing", "Missing or invalid Authorization header")
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			m.reject(c, "bearer", "invalid_token", "Invalid or expired token")
			return
		}

		u, err := m.users.GetByUsername(c.Request.Context(), claims.Username)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.reject(c, "bearer", "unknown_user", "Invalid or expired token")
				return
			}
			slog.Default().ErrorContext(c.Request.Context(), "bearer auth user lookup failed", "err", err)
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Could not verify credentials")
			return
		}

		setUser(c, u)
		c.Next()
	}
}

// RequirePermission must run after an authentication middleware.
func (m *AuthMiddleware) RequirePermission(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authorize(c, action)
	}
}

// RequireMethodPermission derives the action from the HTTP verb, so one
// middleware guards a whole collection group.
func (m *AuthMiddleware) RequireMethodPermission() gin.HandlerFunc {
	return func(c *gin.Context) {
		action, ok := authz.ActionForMethod(c.Request.Method)
		if !ok {
			m.reject(c, "permission", "unsupported_method", "Access Denied")
			return
		}
		m.authorize(c, action)
	}
}

func (m *AuthMiddleware) authorize(c *gin.Context, action authz.Action) {
	u, ok := UserFromContext(c)
	if !ok {
		m.reject(c, "permission", "no_identity", "Missing identity context")
		return
	}

	if !m.policy.Allows(u.Role, action) {
		m.reject(c, "permission", string(action), "Access Denied")
		return
	}

	c.Next()
}

func (m *AuthMiddleware) reject(c *gin.Context, scheme, reason, message string) {
	if m.failures != nil {
		m.failures.AuthFailure(scheme, reason)
	}
	slog.Default().WarnContext(c.Request.Context(), "request rejected",
		"scheme", scheme,
		"reason", reason,
		"route", c.FullPath(),
	)
	abortWithError(c, http.StatusForbidden, "forbidden", message)
}

func setUser(c *gin.Context, u user.User) {
	c.Set(CtxUser, u)
	c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))
}

// UserFromContext returns the user attached by RequireBasic or RequireBearer.
func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
