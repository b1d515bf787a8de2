package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/idea-board/internal/config"
	"github.com/noah-isme/idea-board/internal/store"
	"github.com/noah-isme/idea-board/internal/utils"
)

// BoardStatus reports the engagement store state shown on the health endpoint.
type BoardStatus interface {
	Hydrated() bool
	Mode() store.Mode
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Service        string    `json:"service"`
	Environment    string    `json:"environment"`
	Storage        string    `json:"storage"`
	EngagementMode string    `json:"engagement_mode"`
	Hydrated       bool      `json:"hydrated"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, board BoardStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Storage:     cfg.StorageDriver,
		}
		if board != nil {
			payload.EngagementMode = string(board.Mode())
			payload.Hydrated = board.Hydrated()
			if !payload.Hydrated {
				payload.Status = "starting"
			}
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
