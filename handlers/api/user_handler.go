package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tabib.link/pkg/queryparams"
	"tabib.link/repositories"
	"tabib.link/services"
)

// UserHandler serves the user and public professional-search endpoints.
type UserHandler struct {
	service  services.IUserService
	userRepo repositories.IUserRepository
}

// NewUserHandler builds the handler with its default dependencies.
func NewUserHandler() *UserHandler {
	return &UserHandler{
		service:  services.NewUserService(),
		userRepo: repositories.NewUserRepository(),
	}
}

// Register creates an account. POST /api/v1/users
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input services.RegisterUserInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "malformed request body")
	}
	user, err := h.service.Register(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Me returns the authenticated user. GET /api/v1/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.service.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMe edits the authenticated user's row. PUT /api/v1/users/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var input services.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "malformed request body")
	}
	userID := currentUserID(c)
	user, err := h.service.UpdateUser(c.UserContext(), userID, userID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteMe removes the authenticated user's account. DELETE /api/v1/users/me
func (h *UserHandler) DeleteMe(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if err := h.service.DeleteUser(c.UserContext(), userID, userID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchProfessionals is the public directory. GET /api/v1/professionals
func (h *UserHandler) SearchProfessionals(c *fiber.Ctx) error {
	params := listParamsFromQuery(c, "created_at")
	filter := repositories.ProfessionalFilter{
		Role:      roleFromQuery(c),
		City:      c.Query("city"),
		Specialty: c.Query("specialty"),
		Name:      params.Name,
	}
	users, totalCount, err := h.userRepo.SearchProfessionals(c.UserContext(), filter, params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(queryparams.PaginatedResult{
		Data: users,
		Meta: queryparams.PaginationMeta{
			CurrentPage: params.Page,
			PerPage:     params.PerPage,
			TotalItems:  totalCount,
			TotalPages:  queryparams.CalculateTotalPages(totalCount, params.PerPage),
		},
	})
}
