package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftpool/forecaster/internal/models"
)

// PutSeries handles PUT /v1/subjects/:subject/metrics/:metric/series
func (h *Handler) PutSeries(c *fiber.Ctx) error {
	var req models.SeriesPointsRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}

	resp, err := h.series.Put(c.UserContext(), c.Params("subject"), c.Params("metric"), req.Points)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// AppendPoints handles POST .../series/points
func (h *Handler) AppendPoints(c *fiber.Ctx) error {
	var req models.SeriesPointsRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}

	resp, err := h.series.Append(c.UserContext(), c.Params("subject"), c.Params("metric"), req.Points)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetSeries handles GET .../series
func (h *Handler) GetSeries(c *fiber.Ctx) error {
	resp, err := h.series.Get(c.UserContext(), c.Params("subject"), c.Params("metric"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListSeries handles GET /v1/subjects/:subject/metrics
func (h *Handler) ListSeries(c *fiber.Ctx) error {
	resp, err := h.series.List(c.UserContext(), c.Params("subject"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// DeleteSeries handles DELETE .../series
func (h *Handler) DeleteSeries(c *fiber.Ctx) error {
	if err := h.series.Delete(c.UserContext(), c.Params("subject"), c.Params("metric")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
