package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"tabib.link/models"
	"tabib.link/pkg/queryparams"
	"tabib.link/services"
)

// RdvHandler serves the rendez-vous booking and lifecycle endpoints.
type RdvHandler struct {
	service services.IRdvService
}

func NewRdvHandler() *RdvHandler {
	return &RdvHandler{service: services.NewRdvService()}
}

// CheckAvailability answers whether a slot is bookable right now. The answer
// is advisory: a concurrent booking can still take the slot before this
// caller commits. GET /api/v1/professionals/:id/availability?at=RFC3339
func (h *RdvHandler) CheckAvailability(c *fiber.Ctx) error {
	professionalID, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	at, err := time.Parse(time.RFC3339, c.Query("at"))
	if err != nil {
		return badRequest(c, "query parameter 'at' must be an RFC3339 timestamp")
	}
	decision, err := h.service.CheckAvailability(c.UserContext(), professionalID, at)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(decision)
}

// Create books a rendez-vous for the authenticated patient. POST /api/v1/rdvs
func (h *RdvHandler) Create(c *fiber.Ctx) error {
	var input services.BookRdvInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "malformed request body")
	}
	rdv, err := h.service.BookRdv(c.UserContext(), currentUserID(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rdv)
}

// Get returns one rendez-vous, visible to its parties and admins.
// GET /api/v1/rdvs/:id
func (h *RdvHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	rdv, err := h.service.GetRdvByID(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rdv)
}

// ListMine lists the caller's rendez-vous, as patient or as professional
// depending on their role. GET /api/v1/rdvs
func (h *RdvHandler) ListMine(c *fiber.Ctx) error {
	params := listParamsFromQuery(c, "scheduled_at")
	userID := currentUserID(c)
	var result *queryparams.PaginatedResult
	var err error
	if currentRole(c).Professional() {
		result, err = h.service.GetRdvsForProfessional(c.UserContext(), userID, params)
	} else {
		result, err = h.service.GetRdvsForPatient(c.UserContext(), userID, params)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// UpdateStatus moves a rendez-vous through its lifecycle.
// PUT /api/v1/rdvs/:id/status
func (h *RdvHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body struct {
		Status models.RdvStatus `json:"status"`
		Notes  string           `json:"notes"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed request body")
	}
	rdv, err := h.service.UpdateStatus(c.UserContext(), id, currentUserID(c), body.Status, body.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rdv)
}
