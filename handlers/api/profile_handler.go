package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tabib.link/services"
)

// ProfileHandler serves the professional-profile endpoints.
type ProfileHandler struct {
	service services.IProfileService
}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{service: services.NewProfileService()}
}

// Get returns a professional's public profile. GET /api/v1/professionals/:id/profile
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	profile, err := h.service.GetProfileByUserID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetMine returns the authenticated professional's profile. GET /api/v1/profile
func (h *ProfileHandler) GetMine(c *fiber.Ctx) error {
	profile, err := h.service.GetProfileByUserID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMine edits the authenticated professional's profile. PUT /api/v1/profile
func (h *ProfileHandler) UpdateMine(c *fiber.Ctx) error {
	var input services.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "malformed request body")
	}
	profile, err := h.service.UpdateProfile(c.UserContext(), currentUserID(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// SetVacation toggles vacation mode. PUT /api/v1/profile/vacation
func (h *ProfileHandler) SetVacation(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed request body")
	}
	if err := h.service.SetVacationMode(c.UserContext(), currentUserID(c), body.Enabled); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"vacation_mode": body.Enabled})
}
