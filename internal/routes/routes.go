package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	healthHandler *handlers.HealthHandler,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (public)
	api.Get("/health", healthHandler.Check)

	// Plugin routes: JWT required, user row ensured before any owned write
	protected := api.Group("/v1", middleware.JWTProtected(cfg), middleware.EnsureUser(db))
	for _, p := range plugins {
		p.RegisterRoutes(protected, db, cfg)
	}
}
