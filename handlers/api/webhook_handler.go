package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/pkg/payment"
	"tabib.link/services"
)

// WebhookHandler receives payment-provider callbacks. The signature is
// verified against the raw body before any state is touched.
type WebhookHandler struct {
	service services.ISubscriptionService
	secret  string
}

func NewWebhookHandler() *WebhookHandler {
	return newWebhookHandler(services.NewSubscriptionService(), configs.Get().PaymentWebhookSecret)
}

func newWebhookHandler(service services.ISubscriptionService, secret string) *WebhookHandler {
	return &WebhookHandler{service: service, secret: secret}
}

// Receive handles POST /webhooks/payment.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get(payment.SignatureHeader)

	if err := payment.VerifySignature(body, signature, h.secret, payment.DefaultTolerance, time.Now()); err != nil {
		configslog.Log.Warn("webhook signature rejected",
			zap.String("ip", c.IP()), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
	}

	evt, err := payment.ParseEvent(body)
	if err != nil {
		return badRequest(c, "malformed event payload")
	}

	if err := h.service.HandleWebhookEvent(c.UserContext(), evt); err != nil {
		configslog.Log.Error("webhook processing failed",
			zap.String("event_id", evt.ID), zap.String("type", evt.Type), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event processing failed"})
	}
	return c.JSON(fiber.Map{"received": true})
}
