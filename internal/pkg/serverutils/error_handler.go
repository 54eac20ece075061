package serverutils

import (
	"errors"

	"bigsis-chat/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned by handlers as
// ErrorResponse bodies. Unknown errors become 500s and are logged.
func ErrorHandlerMiddleware(sysLogger logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			sysLogger.Error(logger.ModuleStub, "Unhandled request error", map[string]interface{}{
				"error":  err,
				"method": ctx.Method(),
				"path":   ctx.Path(),
			})
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
