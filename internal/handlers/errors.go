package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/apperr"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/dto"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/middleware"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const maskedServerError = "Something went wrong"

// ErrorHandler renders every error returned by a handler or middleware.
// Client errors keep their message. Server errors are logged, reported to
// Sentry and masked when production is set.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
			return writeError(c, appErr.Status(), appErr.Message)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			return writeError(c, fiberErr.Code, fiberErr.Message)
		}

		attrs := []any{
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error(),
		}
		if account := middleware.CurrentAccount(c); account != nil {
			attrs = append(attrs, "account_id", account.ID.String())
		}
		slog.Error("unhandled server error", attrs...)

		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}

		message := err.Error()
		if production {
			message = maskedServerError
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:   utils.StatusMessage(fiber.StatusInternalServerError),
			Message: message,
			Path:    c.Path(),
		})
	}
}

// NotFound is the catch-all for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error:   utils.StatusMessage(fiber.StatusNotFound),
		Message: fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()),
		Path:    c.Path(),
		Method:  c.Method(),
	})
}

func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{
		Error:   utils.StatusMessage(status),
		Message: message,
	})
}
