package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/idea-board/internal/middleware"
	"github.com/noah-isme/idea-board/internal/service"
	"github.com/noah-isme/idea-board/internal/store"
	"github.com/noah-isme/idea-board/internal/utils"
)

const unsavedWarning = "change applied but could not be saved; it may be lost on restart"

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
	}
	return details
}

// respond writes data with status, downgrading to a warning when the change was not saved.
func respond(c *fiber.Ctx, logger zerolog.Logger, status int, message string, data interface{}, err error) error {
	switch {
	case err == nil:
		return utils.SendSuccessWithStatus(c, status, message, data)
	case store.IsPersistFailure(err):
		requestLogger(logger, c).Warn().Err(err).Msg(message + " but not persisted")
		return utils.SendWarning(c, status, message, data, unsavedWarning)
	default:
		return respondError(c, logger, err)
	}
}

func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	if details := validationDetails(err); details != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, store.ErrIdeaNotFound), errors.Is(err, store.ErrCommentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrUnsupportedEngagement):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrImageTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrImageTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
