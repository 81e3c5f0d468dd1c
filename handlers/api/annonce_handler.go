package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tabib.link/services"
)

// AnnonceHandler serves the annonce endpoints.
type AnnonceHandler struct {
	service services.IAnnonceService
}

func NewAnnonceHandler() *AnnonceHandler {
	return &AnnonceHandler{service: services.NewAnnonceService()}
}

// ListActive is the public annonce feed. GET /api/v1/annonces
func (h *AnnonceHandler) ListActive(c *fiber.Ctx) error {
	params := listParamsFromQuery(c, "created_at")
	result, err := h.service.GetActiveAnnonces(c.UserContext(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ListMine lists the authenticated professional's annonces, active or not.
// GET /api/v1/annonces/mine
func (h *AnnonceHandler) ListMine(c *fiber.Ctx) error {
	params := listParamsFromQuery(c, "created_at")
	result, err := h.service.GetAnnoncesForOwner(c.UserContext(), currentUserID(c), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Get returns one annonce. GET /api/v1/annonces/:id
func (h *AnnonceHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	annonce, err := h.service.GetAnnonceByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(annonce)
}

// Create publishes an annonce for the authenticated professional.
// POST /api/v1/annonces
func (h *AnnonceHandler) Create(c *fiber.Ctx) error {
	var input services.AnnonceInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "malformed request body")
	}
	annonce, err := h.service.CreateAnnonce(c.UserContext(), currentUserID(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(annonce)
}

// Update edits an annonce owned by the caller. PUT /api/v1/annonces/:id
func (h *AnnonceHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var input services.AnnonceInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "malformed request body")
	}
	annonce, err := h.service.UpdateAnnonce(c.UserContext(), id, currentUserID(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(annonce)
}

// Delete removes an annonce owned by the caller. DELETE /api/v1/annonces/:id
func (h *AnnonceHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.service.DeleteAnnonce(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
