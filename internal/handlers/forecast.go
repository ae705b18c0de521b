package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/models"
	"github.com/giftpool/forecaster/internal/services"
)

// Forecast handles POST /v1/forecast for an inline series
func (h *Handler) Forecast(c *fiber.Ctx) error {
	var req models.ForecastRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}

	series := analytics.Series(req.Series)
	if series == nil {
		series = analytics.Series{}
	}

	resp, err := h.forecasts.Execute(c.UserContext(), &services.ForecastRequest{
		Subject:    req.SubjectKey,
		Metric:     req.MetricType,
		TargetYear: req.TargetYear,
		Method:     req.Method,
		Series:     series,
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// BestMethodInline handles POST /v1/forecast/best-method
func (h *Handler) BestMethodInline(c *fiber.Ctx) error {
	var req models.BestMethodRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}

	values := req.Values
	if values == nil {
		values = analytics.Series(req.Series).Values()
	}
	return c.JSON(h.forecasts.BestMethodForValues(values))
}

// SubjectForecast handles GET and POST /v1/subjects/:subject/metrics/:metric/forecast.
// GET reads target_year and method from the query string, POST from the body.
func (h *Handler) SubjectForecast(c *fiber.Ctx) error {
	var req models.SubjectForecastRequest
	if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		if err := bodyParser(c, &req); err != nil {
			return err
		}
	} else {
		year, err := queryInt(c, "target_year")
		if err != nil {
			return err
		}
		req.TargetYear = year
		req.Method = c.Query("method")
	}

	resp, err := h.forecasts.Execute(c.UserContext(), &services.ForecastRequest{
		Subject:    c.Params("subject"),
		Metric:     c.Params("metric"),
		TargetYear: req.TargetYear,
		Method:     req.Method,
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// LatestForecast handles GET .../forecast/latest
func (h *Handler) LatestForecast(c *fiber.Ctx) error {
	year, err := queryInt(c, "target_year")
	if err != nil {
		return err
	}

	resp, err := h.forecasts.LatestSnapshot(c.UserContext(), c.Params("subject"), c.Params("metric"), year)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// BestMethod handles GET .../best-method for a stored series
func (h *Handler) BestMethod(c *fiber.Ctx) error {
	resp, err := h.forecasts.BestMethod(c.UserContext(), c.Params("subject"), c.Params("metric"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Evaluate handles GET .../evaluate?holdout=N
func (h *Handler) Evaluate(c *fiber.Ctx) error {
	holdout, err := queryInt(c, "holdout")
	if err != nil {
		return err
	}

	resp, err := h.forecasts.Evaluate(c.UserContext(), c.Params("subject"), c.Params("metric"), holdout)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
