package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/api/http/handlers"
	"github.com/spec-kit/tour-booking/internal/auth"
	"github.com/spec-kit/tour-booking/internal/domain"
	"github.com/spec-kit/tour-booking/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Shop           *handlers.ShopHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewApp builds a fiber app with middlewares and routes registered.
func NewApp(logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterMiddlewares(app, logger, metrics, timeout)
	RegisterRoutes(app, routes)
	return app
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", requireAuth, cfg.Users.Logout)
	authGroup.Get("/me", requireAuth, cfg.Users.Me)

	client := app.Group("/api/client/user", requireAuth)
	client.Put("/profile", cfg.Users.UpdateProfile)
	client.Post("/change-password", cfg.Users.ChangePassword)

	admin := app.Group("/api/admin", requireAuth, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/coupons", cfg.Shop.CreateCoupon)

	app.Post("/coupon/validate", cfg.Shop.ValidateCoupon)
	app.Post("/cart/detail", cfg.Shop.CartDetail)
}
