package serverutils

import (
	"errors"

	"notes-sync-be/internal/errs"
	"notes-sync-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the response envelope.
// Store errors keep their code; anything unclassified is a 500 and is logged.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, message := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": status,
				"error":  err,
			})
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

func classify(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}
	var storeErr *errs.StoreError
	if errors.As(err, &storeErr) {
		return errs.HTTPStatus(storeErr.Code), errs.MessageOf(err)
	}
	return fiber.StatusInternalServerError, "internal server error"
}
