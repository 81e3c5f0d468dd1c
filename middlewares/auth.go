package middlewares

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/repositories"
)

// AuthMiddleware resolves the identity asserted by the fronting auth proxy.
// The proxy authenticates the caller and forwards their user id in the
// X-Auth-User header; this middleware loads the matching row, rejects
// unknown or deactivated accounts, and stores id/role in locals. The id is
// also placed on the request context so audit hooks can stamp rows.
func AuthMiddleware() fiber.Handler {
	userRepo := repositories.NewUserRepository()
	return func(c *fiber.Ctx) error {
		header := c.Get("X-Auth-User")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		id, err := strconv.ParseUint(header, 10, 64)
		if err != nil || id == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid identity header"})
		}

		user, err := userRepo.FindByID(c.UserContext(), uint(id))
		if err != nil {
			configslog.Log.Warn("identity header resolved to no user",
				zap.Uint64("user_id", id), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown user"})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account is deactivated"})
		}

		c.Locals("userID", user.ID)
		c.Locals("userRole", user.Role)
		c.SetUserContext(models.ContextWithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// RequireRole allows only the listed roles past.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("userRole").(models.Role)
		if !ok || !allowed[role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}
		return c.Next()
	}
}

// RequireProfessional allows any professional role (medecin, clinique,
// pharmacie) past.
func RequireProfessional() fiber.Handler {
	return RequireRole(models.ProfessionalRoles...)
}

// RequireAdmin allows only admins past.
func RequireAdmin() fiber.Handler {
	return RequireRole(models.RoleAdmin)
}
