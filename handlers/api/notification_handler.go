package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tabib.link/services"
)

// NotificationHandler serves the notification inbox endpoints.
type NotificationHandler struct {
	service services.INotificationService
}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{service: services.NewNotificationService()}
}

// List returns the caller's notifications, newest first. Pass ?status=unread
// to filter. GET /api/v1/notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	params := listParamsFromQuery(c, "created_at")
	result, err := h.service.GetNotificationsForUser(c.UserContext(), currentUserID(c), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// MarkRead marks one notification read. PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.service.MarkRead(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnreadCount returns the badge counter. GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	count, err := h.service.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}
