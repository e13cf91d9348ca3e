package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/modelhub/internal/auth"
	"github.com/geocoder89/modelhub/internal/authz"
	"github.com/geocoder89/modelhub/internal/collection"
	"github.com/geocoder89/modelhub/internal/config"
	"github.com/geocoder89/modelhub/internal/db"
	httpx "github.com/geocoder89/modelhub/internal/http"
	"github.com/geocoder89/modelhub/internal/http/handlers"
	"github.com/geocoder89/modelhub/internal/observability"
	"github.com/geocoder89/modelhub/internal/ratelimit"
	"github.com/geocoder89/modelhub/internal/redisclient"
	"github.com/geocoder89/modelhub/internal/repo/memory"
	"github.com/geocoder89/modelhub/internal/repo/postgres"
	"github.com/geocoder89/modelhub/internal/schema"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.NewString()
		log.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTELEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	ready := map[string]handlers.Pinger{}
	registry := collection.NewRegistry()
	var users httpx.UserStore

	if cfg.UsesMemoryStore() {
		log.Warn("using in-memory stores; data is lost on exit")
		memUsers := memory.NewUsersRepo()
		ready["memory"] = memUsers.Ping
		users = memUsers
		for _, model := range cfg.Models {
			if err := registry.Register(model, memory.NewCollectionRepo()); err != nil {
				return err
			}
		}
	} else {
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()
		ready["postgres"] = pool.Ping

		if err := db.RunMigrations(cfg.DBURL, log); err != nil {
			return err
		}

		users = postgres.NewUsersRepo(pool, prom)
		for _, model := range cfg.Models {
			repo := postgres.NewCollectionRepo(pool, model, prom)
			if err := registry.Register(model, repo); err != nil {
				return err
			}
			if err := repo.EnsureTable(ctx); err != nil {
				return fmt.Errorf("provision %s table: %w", model, err)
			}
		}
	}
	log.Info("models registered", "models", registry.Models())

	seeded, err := db.EnsureAdminUser(ctx, users, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if seeded {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}

	validator, err := schema.Builtin()
	if err != nil {
		return err
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		ready["redis"] = rdb.Ping
		if cfg.SigninRateLimit > 0 {
			limiter = ratelimit.NewRedis(rdb.Raw(), "modelhub:signin:", cfg.SigninRateLimit, cfg.SigninRateWindow())
		}
	}

	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Config:   cfg,
		Users:    users,
		Items:    collection.NewAccessor(registry, validator),
		Tokens:   auth.NewManager(cfg.JWTSecret, cfg.TokenTTL()),
		Policy:   authz.DefaultPolicy(),
		Limiter:  limiter,
		Prom:     prom,
		Gatherer: reg,
		Ready:    ready,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
