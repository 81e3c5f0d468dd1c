package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tabib.link/services"
)

// SubscriptionHandler serves the billing and family-member endpoints.
type SubscriptionHandler struct {
	service services.ISubscriptionService
}

func NewSubscriptionHandler() *SubscriptionHandler {
	return &SubscriptionHandler{service: services.NewSubscriptionService()}
}

// ListPlans returns the purchasable plans. GET /api/v1/subscriptions/plans
func (h *SubscriptionHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.service.ListPlans(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

// GetMine returns the caller's subscription. GET /api/v1/subscriptions/me
func (h *SubscriptionHandler) GetMine(c *fiber.Ctx) error {
	sub, err := h.service.GetSubscriptionForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// StartCheckout creates a provider checkout session and returns its URL.
// POST /api/v1/subscriptions/checkout
func (h *SubscriptionHandler) StartCheckout(c *fiber.Ctx) error {
	var body struct {
		PlanID     uint   `json:"plan_id"`
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed request body")
	}
	url, err := h.service.StartCheckout(c.UserContext(), currentUserID(c), body.PlanID, body.SuccessURL, body.CancelURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"checkout_url": url})
}

// OpenPortal creates a provider billing-portal session.
// POST /api/v1/subscriptions/portal
func (h *SubscriptionHandler) OpenPortal(c *fiber.Ctx) error {
	var body struct {
		ReturnURL string `json:"return_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed request body")
	}
	url, err := h.service.OpenBillingPortal(c.UserContext(), currentUserID(c), body.ReturnURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"portal_url": url})
}

// Cancel flags the caller's subscription to end at period close.
// DELETE /api/v1/subscriptions/me
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	sub, err := h.service.CancelSubscription(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// AddFamilyMember attaches a dependent to the caller's subscription.
// POST /api/v1/subscriptions/family
func (h *SubscriptionHandler) AddFamilyMember(c *fiber.Ctx) error {
	var input services.FamilyMemberInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "malformed request body")
	}
	member, err := h.service.AddFamilyMember(c.UserContext(), currentUserID(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// ListFamilyMembers lists the caller's dependents. GET /api/v1/subscriptions/family
func (h *SubscriptionHandler) ListFamilyMembers(c *fiber.Ctx) error {
	members, err := h.service.ListFamilyMembers(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(members)
}

// RemoveFamilyMember detaches a dependent. DELETE /api/v1/subscriptions/family/:id
func (h *SubscriptionHandler) RemoveFamilyMember(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.service.RemoveFamilyMember(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
