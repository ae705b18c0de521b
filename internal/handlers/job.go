package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftpool/forecaster/internal/models"
)

// SubmitJob handles POST /v1/jobs. The job runs asynchronously; results are
// published on the results subject.
func (h *Handler) SubmitJob(c *fiber.Ctx) error {
	if h.jobs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "batch jobs are disabled")
	}

	var req models.SubmitJobRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}

	resp, err := h.jobs.Submit(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}
