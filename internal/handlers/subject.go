package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftpool/forecaster/internal/models"
)

// CreateSubject handles POST /v1/subjects
func (h *Handler) CreateSubject(c *fiber.Ctx) error {
	var req models.CreateSubjectRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}

	resp, err := h.subjects.Create(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListSubjects handles GET /v1/subjects
func (h *Handler) ListSubjects(c *fiber.Ctx) error {
	resp, err := h.subjects.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetSubject handles GET /v1/subjects/:subject
func (h *Handler) GetSubject(c *fiber.Ctx) error {
	resp, err := h.subjects.Get(c.UserContext(), c.Params("subject"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// DeleteSubject handles DELETE /v1/subjects/:subject
func (h *Handler) DeleteSubject(c *fiber.Ctx) error {
	if err := h.subjects.Delete(c.UserContext(), c.Params("subject")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPreference handles PUT /v1/subjects/:subject/metrics/:metric/preference
func (h *Handler) SetPreference(c *fiber.Ctx) error {
	var req models.PreferenceRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}

	resp, err := h.subjects.SetPreference(c.UserContext(), c.Params("subject"), c.Params("metric"), req.Method)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ClearPreference handles DELETE .../preference
func (h *Handler) ClearPreference(c *fiber.Ctx) error {
	resp, err := h.subjects.ClearPreference(c.UserContext(), c.Params("subject"), c.Params("metric"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
