package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/modelhub/internal/auth"
	"github.com/geocoder89/modelhub/internal/authz"
	"github.com/geocoder89/modelhub/internal/config"
	"github.com/geocoder89/modelhub/internal/domain/user"
	"github.com/geocoder89/modelhub/internal/http/handlers"
	"github.com/geocoder89/modelhub/internal/http/middlewares"
	"github.com/geocoder89/modelhub/internal/observability"
	"github.com/geocoder89/modelhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, username, passwordHash, role string) (user.User, error)
}

// Deps is everything the router wires together. Prom, Gatherer, Ready and
// Limiter are optional; without a Limiter sign-in is throttled in memory
// when Config.SigninRateLimit is positive.
type Deps struct {
	Log     *slog.Logger
	Config  config.Config
	Users   UserStore
	Items   handlers.ItemAccessor
	Tokens  *auth.Manager
	Policy  *authz.Policy
	Limiter ratelimit.Limiter

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ready    map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Limiter == nil && d.Config.SigninRateLimit > 0 {
		d.Limiter = ratelimit.NewMemory(d.Config.SigninRateLimit, d.Config.SigninRateWindow())
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.Config.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORS(d.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// ops
	health := handlers.NewHealthHandler(d.Ready)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	var failures middlewares.FailureRecorder
	if d.Prom != nil {
		failures = d.Prom
	}
	authMW := middlewares.NewAuthMiddleware(d.Users, d.Tokens, d.Policy, failures)

	// auth
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens, d.Log)
	r.POST("/signup", authHandler.SignUp)

	signin := []gin.HandlerFunc{authMW.RequireBasic(), authHandler.SignIn}
	if d.Limiter != nil {
		signin = append([]gin.HandlerFunc{middlewares.RateLimit(d.Limiter, middlewares.KeyByIP)}, signin...)
	}
	r.POST("/signin", signin...)

	items := handlers.NewItemsHandler(d.Items, d.Log)

	// v1: open CRUD
	v1 := r.Group("/api/v1")
	{
		v1.POST("/:model", items.Create)
		v1.GET("/:model", items.List)
		v1.GET("/:model/:id", items.Get)
		v1.PUT("/:model/:id", items.Update)
		v1.DELETE("/:model/:id", items.Delete)
	}

	// v2: bearer token plus a permission derived from the verb
	v2 := r.Group("/api/v2", authMW.RequireBearer(), authMW.RequireMethodPermission())
	{
		v2.POST("/:model", items.Create)
		v2.GET("/:model", items.List)
		v2.GET("/:model/:id", items.Get)
		v2.PUT("/:model/:id", items.Update)
		v2.DELETE("/:model/:id", items.Delete)
	}

	return r
}
