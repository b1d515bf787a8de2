package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/idea-board/internal/dto"
	"github.com/noah-isme/idea-board/internal/middleware"
	"github.com/noah-isme/idea-board/internal/service"
	"github.com/noah-isme/idea-board/internal/utils"
)

// IdeaHandler exposes idea, comment and engagement endpoints.
type IdeaHandler struct {
	service service.BoardService
	logger  zerolog.Logger
}

// NewIdeaHandler constructs an idea handler.
func NewIdeaHandler(service service.BoardService, logger zerolog.Logger) *IdeaHandler {
	return &IdeaHandler{
		service: service,
		logger:  logger.With().Str("component", "idea_handler").Logger(),
	}
}

// Register binds the idea routes.
func (h *IdeaHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)

	router.Post("/:id/ratings", h.rate)
	router.Post("/:id/like", h.like)
	router.Post("/:id/dislike", h.dislike)

	router.Post("/:id/comments", h.addComment)
	router.Patch("/:id/comments/:commentId", h.editComment)
	router.Delete("/:id/comments/:commentId", h.deleteComment)
}

func (h *IdeaHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pageSize")
	}

	result, err := h.service.List(requestContext(c), dto.IdeaListRequest{
		Search:   c.Query("search"),
		Stage:    c.Query("stage"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "ideas", fiber.Map{
		"pagination": result.Pagination,
		"filters":    result.Filters,
	})
}

func (h *IdeaHandler) get(c *fiber.Ctx) error {
	detail, err := h.service.Get(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "idea", detail)
}

func (h *IdeaHandler) create(c *fiber.Ctx) error {
	var req dto.IdeaCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	detail, err := h.service.Create(requestContext(c), middleware.ActorFromContext(c), req)
	return respond(c, h.logger, fiber.StatusCreated, "idea created", detail, err)
}

func (h *IdeaHandler) update(c *fiber.Ctx) error {
	var req dto.IdeaUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	detail, err := h.service.Update(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	return respond(c, h.logger, fiber.StatusOK, "idea updated", detail, err)
}

func (h *IdeaHandler) delete(c *fiber.Ctx) error {
	err := h.service.Delete(requestContext(c), c.Params("id"))
	return respond(c, h.logger, fiber.StatusOK, "idea deleted", nil, err)
}

func (h *IdeaHandler) rate(c *fiber.Ctx) error {
	var req dto.RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	detail, err := h.service.Rate(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	return respond(c, h.logger, fiber.StatusOK, "rating recorded", detail, err)
}

func (h *IdeaHandler) like(c *fiber.Ctx) error {
	detail, err := h.service.Like(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	return respond(c, h.logger, fiber.StatusOK, "vote recorded", detail, err)
}

func (h *IdeaHandler) dislike(c *fiber.Ctx) error {
	detail, err := h.service.Dislike(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	return respond(c, h.logger, fiber.StatusOK, "vote recorded", detail, err)
}

func (h *IdeaHandler) addComment(c *fiber.Ctx) error {
	var req dto.CommentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.service.AddComment(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	return respond(c, h.logger, fiber.StatusCreated, "comment added", comment, err)
}

func (h *IdeaHandler) editComment(c *fiber.Ctx) error {
	var req dto.CommentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.service.EditComment(requestContext(c), c.Params("id"), c.Params("commentId"), req)
	return respond(c, h.logger, fiber.StatusOK, "comment updated", comment, err)
}

func (h *IdeaHandler) deleteComment(c *fiber.Ctx) error {
	err := h.service.DeleteComment(requestContext(c), c.Params("id"), c.Params("commentId"))
	return respond(c, h.logger, fiber.StatusOK, "comment deleted", nil, err)
}
