package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/idea-board/internal/config"
	"github.com/noah-isme/idea-board/internal/handler"
	"github.com/noah-isme/idea-board/internal/middleware"
	"github.com/noah-isme/idea-board/internal/observability"
	"github.com/noah-isme/idea-board/internal/store"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	IdeaHandler         *handler.IdeaHandler
	CommunityHandler    *handler.CommunityHandler
	NotificationHandler *handler.NotificationHandler
	Board               handler.BoardStatus
	// LocalActor is used when a request does not name its actor.
	LocalActor store.Actor
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	}, middleware.ActorIdentity(deps.LocalActor))
	api.Get("/health", handler.HealthCheck(cfg, deps.Board))

	writeLimit := middleware.RateLimit("board", cfg.RateLimitMax, time.Minute)

	if deps.IdeaHandler != nil {
		ideas := api.Group("/ideas", limitWrites(writeLimit))
		deps.IdeaHandler.Register(ideas)
	}

	if deps.CommunityHandler != nil {
		deps.CommunityHandler.Register(api)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications")
		deps.NotificationHandler.Register(notifications)
	}
}

// limitWrites applies the limiter to mutating requests only.
func limitWrites(limit fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead || c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		return limit(c)
	}
}
