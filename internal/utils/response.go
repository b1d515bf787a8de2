package utils

import "github.com/gofiber/fiber/v2"

// WarningHeader carries a non-fatal warning alongside a successful response.
const WarningHeader = "X-Persistence-Warning"

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Warning string      `json:"warning,omitempty"`
	Message string      `json:"message"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return send(c, status, APIResponse{Success: true, Data: data, Message: message})
}

// OK sends a 200 success payload with optional pagination or summary meta.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return send(c, fiber.StatusOK, APIResponse{Success: true, Data: data, Meta: meta, Message: message})
}

// SendWarning sends a success payload that also reports a degraded side effect, e.g. a change
// that was applied but could not be saved.
func SendWarning(c *fiber.Ctx, status int, message string, data interface{}, warning string) error {
	c.Set(WarningHeader, warning)
	return send(c, status, APIResponse{Success: true, Data: data, Warning: warning, Message: message})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail sends an error payload with optional structured details.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Details: details,
		Message: message,
	})
}

func send(c *fiber.Ctx, status int, payload APIResponse) error {
	if payload.Message == "" {
		payload.Message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(payload)
}
