package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/payment"
	"tabib.link/pkg/queryparams"
	"tabib.link/services"
)

// currentUserID reads the authenticated user id stored by AuthMiddleware.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// currentRole reads the authenticated user's role stored by AuthMiddleware.
func currentRole(c *fiber.Ctx) models.Role {
	if role, ok := c.Locals("userRole").(models.Role); ok {
		return role
	}
	return ""
}

// roleFromQuery parses an optional ?role= filter, dropping unknown values.
func roleFromQuery(c *fiber.Ctx) models.Role {
	role := models.Role(c.Query("role"))
	if role != "" && role.Professional() {
		return role
	}
	return ""
}

// listParamsFromQuery parses pagination and sort parameters, falling back to
// defaults when the query string cannot be bound.
func listParamsFromQuery(c *fiber.Ctx, defaultSort string) queryparams.ListParams {
	var params queryparams.ListParams
	if err := c.QueryParser(&params); err != nil {
		params = queryparams.DefaultListParams(defaultSort)
	}
	if params.SortBy == "" {
		params.SortBy = defaultSort
	}
	params.Validate()
	return params
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id parameter")
	}
	return uint(id), nil
}

// respondError maps service errors onto the API error taxonomy:
// validation 400, authorization 403, not found 404, conflicts 409,
// provider failures pass the provider's message through.
func respondError(c *fiber.Ctx, err error) error {
	var providerErr *payment.ProviderError
	if errors.As(err, &providerErr) {
		status := fiber.StatusBadGateway
		if providerErr.StatusCode >= 400 && providerErr.StatusCode < 500 {
			status = providerErr.StatusCode
		}
		return c.Status(status).JSON(fiber.Map{"error": providerErr.Message})
	}

	var slotErr *services.SlotUnavailableError
	if errors.As(err, &slotErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  services.ErrRdvSlotUnavailable.Error(),
			"reason": slotErr.Reason,
		})
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRdvNotFound),
		errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrAnnonceNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrSubscriptionNotFound),
		errors.Is(err, services.ErrSubscriptionPlanNotFound),
		errors.Is(err, services.ErrFamilyMemberNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrUserForbidden),
		errors.Is(err, services.ErrRdvForbidden),
		errors.Is(err, services.ErrAnnonceForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrUserEmailTaken),
		errors.Is(err, services.ErrSubscriptionAlreadyActive),
		errors.Is(err, services.ErrRdvInvalidTransition),
		errors.Is(err, services.ErrFamilyMemberLimit):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrUserInvalidInput),
		errors.Is(err, services.ErrUserInvalidRole),
		errors.Is(err, services.ErrUserPasswordWeak),
		errors.Is(err, services.ErrRdvInvalidInput),
		errors.Is(err, services.ErrRdvProfessionalBad),
		errors.Is(err, services.ErrRdvAnnonceUnavailable),
		errors.Is(err, services.ErrProfileInvalidInput),
		errors.Is(err, services.ErrProfileNotProfessional),
		errors.Is(err, services.ErrAnnonceInvalidInput),
		errors.Is(err, services.ErrFamilyMemberInvalid),
		errors.Is(err, services.ErrSubscriptionNotActive):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	configslog.Log.Error("unhandled API error", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
