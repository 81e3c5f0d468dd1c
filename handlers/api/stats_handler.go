package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tabib.link/services"
)

// StatsHandler serves the dashboard statistics endpoints.
type StatsHandler struct {
	service services.IStatsService
}

func NewStatsHandler() *StatsHandler {
	return &StatsHandler{service: services.NewStatsService()}
}

// Professional returns the caller's practice snapshot. GET /api/v1/stats/me
func (h *StatsHandler) Professional(c *fiber.Ctx) error {
	stats, err := h.service.ProfessionalStats(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// Admin returns the platform snapshot. GET /api/v1/stats/admin
func (h *StatsHandler) Admin(c *fiber.Ctx) error {
	stats, err := h.service.AdminStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
