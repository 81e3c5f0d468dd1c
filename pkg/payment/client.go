// Package payment is the outbound boundary to the subscription payment
// provider: a thin JSON-over-HTTP client plus webhook signature
// verification. Provider failures are wrapped in ProviderError so handlers
// can pass the provider's message through.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProviderError carries the provider's HTTP status and message back to the
// caller unchanged.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to the provider's REST API with bearer authentication.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient builds a Client for the given API base URL and secret key.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CheckoutParams describes a checkout session to create.
type CheckoutParams struct {
	CustomerEmail string `json:"customer_email"`
	PriceID       string `json:"price_id"`
	// ClientReference round-trips our user id through the provider so the
	// webhook can attribute the resulting subscription.
	ClientReference string `json:"client_reference_id"`
	SuccessURL      string `json:"success_url"`
	CancelURL       string `json:"cancel_url"`
}

// CheckoutSession is the provider's checkout session object.
type CheckoutSession struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	CustomerID      string `json:"customer"`
	SubscriptionID  string `json:"subscription"`
	ClientReference string `json:"client_reference_id"`
	Status          string `json:"status"`
}

// Subscription is the provider's subscription object.
type Subscription struct {
	ID                 string `json:"id"`
	CustomerID         string `json:"customer"`
	Status             string `json:"status"`
	PriceID            string `json:"price_id"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}

// PortalSession is the provider's billing portal session object.
type PortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession opens a hosted checkout for a subscription purchase.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", params, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSubscription fetches the provider's current view of a subscription.
func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription asks the provider to cancel at period end.
func (c *Client) CancelSubscription(ctx context.Context, id string) (*Subscription, error) {
	body := map[string]bool{"cancel_at_period_end": true}
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(id)+"/cancel", body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreatePortalSession opens the provider's self-service billing portal.
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	body := map[string]string{"customer": customerID, "return_url": returnURL}
	var session PortalSession
	if err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{StatusCode: resp.StatusCode, Message: extractErrorMessage(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

func extractErrorMessage(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = "no response body"
	}
	return msg
}
