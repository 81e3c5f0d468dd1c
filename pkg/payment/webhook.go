package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the HTTP header carrying the webhook signature,
// formatted "t=<unix>,v1=<hex hmac>".
const SignatureHeader = "Pay-Signature"

// DefaultTolerance bounds how old a signed timestamp may be.
const DefaultTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrStaleSignature   = errors.New("webhook signature timestamp outside tolerance")
)

// Event types the webhook endpoint understands.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
)

// WebhookEvent is the envelope the provider posts to us.
type WebhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEvent decodes a webhook body. Call VerifySignature first: parsing
// must never precede the integrity check on a state-mutating path.
func ParseEvent(body []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if evt.Type == "" {
		return nil, errors.New("webhook payload missing event type")
	}
	return &evt, nil
}

// SignPayload produces a signature header value for body at the given time.
// Exported for tests and for the provider simulator used in development.
func SignPayload(body []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// VerifySignature checks header against the HMAC-SHA256 of "<t>.<body>" and
// rejects timestamps older (or newer) than tolerance. It must succeed before
// any stored state is touched.
func VerifySignature(body []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return ErrMissingSignature
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	var ts string
	var sig string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			sig = value
		}
	}
	if ts == "" || sig == "" {
		return ErrBadSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	issued := time.Unix(unix, 0)
	drift := now.Sub(issued)
	if drift < 0 {
		drift = -drift
	}
	if drift > tolerance {
		return ErrStaleSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}
