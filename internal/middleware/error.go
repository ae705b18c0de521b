package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/models"
	"github.com/giftpool/forecaster/internal/services"
)

// ErrorHandler renders errors returned by handlers as models.ErrorResponse.
// Service errors keep their code and details; fiber errors get a code
// derived from their status; anything else is a 500.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, detail := Classify(err)
		detail.Path = c.Path()

		log := logger.WithContext(c.UserContext())
		if status >= fiber.StatusInternalServerError {
			log.Error("Request error",
				"path", c.Path(),
				"method", c.Method(),
				"status", status,
				"code", detail.Code,
				"error", err,
			)
		} else {
			log.Debug("Request rejected",
				"path", c.Path(),
				"status", status,
				"code", detail.Code,
			)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}

// Classify maps an error to an HTTP status and response body
func Classify(err error) (int, models.ErrorDetail) {
	if svcErr, ok := services.AsServiceError(err); ok {
		return StatusForCode(svcErr.Code), models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, models.ErrorDetail{
			Code:    codeForStatus(fiberErr.Code),
			Message: fiberErr.Message,
		}
	}

	return fiber.StatusInternalServerError, models.ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "Internal Server Error",
	}
}

// StatusForCode returns the HTTP status of a service error code
func StatusForCode(code string) int {
	switch code {
	case services.CodeInvalidMethod, services.CodeInvalidRequest:
		return fiber.StatusBadRequest
	case services.CodeSeriesNotFound, services.CodeSnapshotNotFound, services.CodeSubjectNotFound:
		return fiber.StatusNotFound
	case services.CodeSubjectExists:
		return fiber.StatusConflict
	case services.CodeQueueFailed:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// codeForStatus turns "Not Found" into "NOT_FOUND"
func codeForStatus(status int) string {
	msg := utils.StatusMessage(status)
	if msg == "" {
		return "ERROR"
	}
	msg = strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(msg)
	return strings.ToUpper(msg)
}
