// Package backend assembles the reference tour-booking server: repositories,
// services, handlers and the fiber app speaking the gateway contract.
package backend

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tour-booking/internal/api/http"
	"github.com/spec-kit/tour-booking/internal/api/http/handlers"
	"github.com/spec-kit/tour-booking/internal/auth"
	"github.com/spec-kit/tour-booking/internal/clock"
	"github.com/spec-kit/tour-booking/internal/config"
	"github.com/spec-kit/tour-booking/internal/observability"
	"github.com/spec-kit/tour-booking/internal/persistence"
	"github.com/spec-kit/tour-booking/internal/repository"
	"github.com/spec-kit/tour-booking/internal/service"
)

// Options overrides what New would otherwise build from config.
type Options struct {
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Clock    clock.Clock
	// Redis enables shared token revocation; nil keeps revocations in memory.
	Redis *redis.Client
	// SeedDemo writes demo tours, coupons and an admin account on startup.
	SeedDemo bool
}

// Server is an assembled backend.
type Server struct {
	App      *fiber.App
	Auth     *service.AuthService
	Coupons  *service.CouponService
	Tours    repository.TourRepository
	postgres *persistence.Postgres
}

// New connects Postgres when cfg.Postgres.DSN is set, otherwise it runs on
// in-memory repositories.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var (
		users   repository.UserRepository
		tours   repository.TourRepository
		coupons repository.CouponRepository
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		users = repository.NewUserRepository(pool)
		tours = repository.NewTourRepository(pool)
		coupons = repository.NewCouponRepository(pool)
	} else {
		users = repository.NewMemoryUsers()
		tours = repository.NewMemoryTours()
		coupons = repository.NewMemoryCoupons()
	}

	revocations := auth.NewMemoryRevocations()
	deps := map[string]handlers.Pinger{}
	if pg.Enabled() {
		deps["postgres"] = pg
	}
	if opts.Redis != nil {
		revocations = auth.NewRedisRevocations(opts.Redis, cfg.Store.Namespace)
		deps["redis"] = redisPinger{opts.Redis}
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    users,
		Revocations: revocations,
		Logger:      observability.Component(logger, "auth"),
	})
	couponService := service.NewCouponService(coupons, opts.Clock, observability.Component(logger, "coupons"))
	cartService := service.NewCartService(tours)

	if opts.SeedDemo {
		if err := service.SeedDemo(ctx, authService, tours, couponService, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	app := httptransport.NewApp(logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Users:          handlers.NewUsersHandler(authService),
		Shop:           handlers.NewShopHandler(couponService, cartService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), authService.Revocations(), users, logger),
		Gatherer:       registry,
	})

	return &Server{
		App:      app,
		Auth:     authService,
		Coupons:  couponService,
		Tours:    tours,
		postgres: pg,
	}, nil
}

// Close shuts the app down and releases the database pool.
func (s *Server) Close() error {
	err := s.App.Shutdown()
	s.postgres.Close()
	return err
}

type redisPinger struct {
	client *redis.Client
}

func (r redisPinger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
