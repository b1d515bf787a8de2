package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/idea-board/internal/middleware"
	"github.com/noah-isme/idea-board/internal/service"
	"github.com/noah-isme/idea-board/internal/utils"
)

// CommunityHandler serves the leaderboard and the actor's own page.
type CommunityHandler struct {
	service service.BoardService
	logger  zerolog.Logger
}

// NewCommunityHandler constructs a community handler.
func NewCommunityHandler(service service.BoardService, logger zerolog.Logger) *CommunityHandler {
	return &CommunityHandler{
		service: service,
		logger:  logger.With().Str("component", "community_handler").Logger(),
	}
}

// Register binds the community routes.
func (h *CommunityHandler) Register(router fiber.Router) {
	router.Get("/hall-of-fame", h.hallOfFame)
	router.Get("/me", h.profile)
}

func (h *CommunityHandler) hallOfFame(c *fiber.Ctx) error {
	board, err := h.service.HallOfFame(requestContext(c), middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "hall of fame", board)
}

func (h *CommunityHandler) profile(c *fiber.Ctx) error {
	profile, err := h.service.Profile(requestContext(c), middleware.ActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile", profile)
}
