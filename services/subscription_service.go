package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/events"
	"tabib.link/pkg/payment"
	"tabib.link/repositories"
)

// SubscriptionServiceError is the typed error for billing operations.
type SubscriptionServiceError string

func (e SubscriptionServiceError) Error() string { return string(e) }

const (
	ErrSubscriptionNotFound      SubscriptionServiceError = "subscription not found"
	ErrSubscriptionPlanNotFound  SubscriptionServiceError = "subscription plan not found"
	ErrSubscriptionAlreadyActive SubscriptionServiceError = "an active subscription already exists"
	ErrSubscriptionNotActive     SubscriptionServiceError = "subscription is not active"
	ErrFamilyMemberLimit         SubscriptionServiceError = "family member limit reached for this plan"
	ErrFamilyMemberNotFound      SubscriptionServiceError = "family member not found"
	ErrFamilyMemberInvalid       SubscriptionServiceError = "invalid family member data"
)

// ISubscriptionService is the billing business interface.
type ISubscriptionService interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetSubscriptionForUser(ctx context.Context, userID uint) (*models.Subscription, error)
	StartCheckout(ctx context.Context, userID uint, planID uint, successURL, cancelURL string) (string, error)
	OpenBillingPortal(ctx context.Context, userID uint, returnURL string) (string, error)
	CancelSubscription(ctx context.Context, userID uint) (*models.Subscription, error)
	HandleWebhookEvent(ctx context.Context, evt *payment.WebhookEvent) error

	AddFamilyMember(ctx context.Context, userID uint, input FamilyMemberInput) (*models.FamilyMember, error)
	ListFamilyMembers(ctx context.Context, userID uint) ([]models.FamilyMember, error)
	RemoveFamilyMember(ctx context.Context, userID uint, memberID uint) error
}

// FamilyMemberInput carries a dependent's details.
type FamilyMemberInput struct {
	FullName  string     `json:"full_name"`
	Relation  string     `json:"relation"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

// SubscriptionService implements ISubscriptionService over the local mirror
// table and the provider client. The webhook path is the only writer of
// provider-driven state.
type SubscriptionService struct {
	repo     repositories.ISubscriptionRepository
	userRepo repositories.IUserRepository
	client   *payment.Client
	db       *gorm.DB
	bus      events.Bus
}

// NewSubscriptionService builds the service on the shared connection and
// the configured provider client.
func NewSubscriptionService() ISubscriptionService {
	cfg := configs.Get()
	return newSubscriptionService(configs.GetDB(), events.Default(),
		payment.NewClient(cfg.PaymentAPIBaseURL, cfg.PaymentSecretKey))
}

func newSubscriptionService(db *gorm.DB, bus events.Bus, client *payment.Client) *SubscriptionService {
	return &SubscriptionService{
		repo:     repositories.NewSubscriptionRepositoryTx(db),
		userRepo: repositories.NewUserRepositoryTx(db),
		client:   client,
		db:       db,
		bus:      bus,
	}
}

func (s *SubscriptionService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.repo.ListPlans(ctx)
}

func (s *SubscriptionService) GetSubscriptionForUser(ctx context.Context, userID uint) (*models.Subscription, error) {
	sub, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// StartCheckout opens a provider checkout session for the plan and returns
// the hosted URL the caller redirects to. The local row stays incomplete
// until the provider confirms via webhook.
func (s *SubscriptionService) StartCheckout(ctx context.Context, userID uint, planID uint, successURL, cancelURL string) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if existing, err := s.repo.FindByUserID(ctx, userID); err == nil {
		if existing.Status == models.SubscriptionStatusActive || existing.Status == models.SubscriptionStatusPastDue {
			return "", ErrSubscriptionAlreadyActive
		}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", err
	}

	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrSubscriptionPlanNotFound
		}
		return "", err
	}

	session, err := s.client.CreateCheckoutSession(ctx, payment.CheckoutParams{
		CustomerEmail:   user.Email,
		PriceID:         plan.ProviderPriceID,
		ClientReference: strconv.FormatUint(uint64(userID), 10),
		SuccessURL:      successURL,
		CancelURL:       cancelURL,
	})
	if err != nil {
		configslog.Log.Error("checkout session creation failed", zap.Uint("user_id", userID), zap.Error(err))
		return "", err
	}

	configslog.SLog.Infof("checkout session opened: user=%d plan=%d session=%s", userID, planID, session.ID)
	return session.URL, nil
}

// OpenBillingPortal returns the provider's self-service portal URL.
func (s *SubscriptionService) OpenBillingPortal(ctx context.Context, userID uint, returnURL string) (string, error) {
	sub, err := s.GetSubscriptionForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub.ProviderCustomerID == "" {
		return "", ErrSubscriptionNotActive
	}
	session, err := s.client.CreatePortalSession(ctx, sub.ProviderCustomerID, returnURL)
	if err != nil {
		configslog.Log.Error("portal session creation failed", zap.Uint("user_id", userID), zap.Error(err))
		return "", err
	}
	return session.URL, nil
}

// CancelSubscription asks the provider to cancel at period end and mirrors
// the flag locally. The status itself changes when the provider's deletion
// event arrives.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	sub, err := s.GetSubscriptionForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionStatusActive && sub.Status != models.SubscriptionStatusPastDue {
		return nil, ErrSubscriptionNotActive
	}

	providerSub, err := s.client.CancelSubscription(ctx, sub.ProviderSubscriptionID)
	if err != nil {
		configslog.Log.Error("provider cancel failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	sub.CancelAtPeriodEnd = providerSub.CancelAtPeriodEnd
	if err := s.repo.Update(models.ContextWithUserID(ctx, userID), sub); err != nil {
		return nil, err
	}
	configslog.SLog.Infof("subscription cancel requested: user=%d sub=%s", userID, sub.ProviderSubscriptionID)
	return sub, nil
}

// webhookSubscriptionData is the provider subscription object as embedded
// in webhook payloads.
type webhookSubscriptionData struct {
	ID                 string `json:"id"`
	CustomerID         string `json:"customer"`
	Status             string `json:"status"`
	PriceID            string `json:"price_id"`
	ClientReference    string `json:"client_reference_id"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}

// webhookCheckoutData is the checkout session object in completed events.
type webhookCheckoutData struct {
	ID              string `json:"id"`
	CustomerID      string `json:"customer"`
	SubscriptionID  string `json:"subscription"`
	ClientReference string `json:"client_reference_id"`
	PriceID         string `json:"price_id"`
}

// HandleWebhookEvent applies one verified provider event to the local
// mirror. Callers must have verified the signature already; this function
// is the single provider-driven update path.
func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, evt *payment.WebhookEvent) error {
	switch evt.Type {
	case payment.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, evt.Data)
	case payment.EventSubscriptionUpdated:
		return s.applySubscriptionState(ctx, evt.Data, nil)
	case payment.EventSubscriptionDeleted:
		cancelled := models.SubscriptionStatusCancelled
		return s.applySubscriptionState(ctx, evt.Data, &cancelled)
	case payment.EventPaymentFailed:
		pastDue := models.SubscriptionStatusPastDue
		return s.applySubscriptionState(ctx, evt.Data, &pastDue)
	default:
		configslog.SLog.Debugf("ignoring unhandled webhook event type %s", evt.Type)
		return nil
	}
}

func (s *SubscriptionService) applyCheckoutCompleted(ctx context.Context, data json.RawMessage) error {
	var checkout webhookCheckoutData
	if err := json.Unmarshal(data, &checkout); err != nil {
		return fmt.Errorf("decode checkout payload: %w", err)
	}
	if checkout.SubscriptionID == "" || checkout.ClientReference == "" {
		return errors.New("checkout payload missing subscription or client reference")
	}
	userID64, err := strconv.ParseUint(checkout.ClientReference, 10, 64)
	if err != nil {
		return fmt.Errorf("bad client reference %q: %w", checkout.ClientReference, err)
	}
	userID := uint(userID64)

	plan, err := s.repo.FindPlanByProviderPriceID(ctx, checkout.PriceID)
	if err != nil {
		return fmt.Errorf("%w: price %q", ErrSubscriptionPlanNotFound, checkout.PriceID)
	}

	// Pull period boundaries from the provider's current view.
	providerSub, err := s.client.GetSubscription(ctx, checkout.SubscriptionID)
	if err != nil {
		configslog.Log.Warn("provider subscription fetch failed after checkout, storing without periods",
			zap.String("subscription", checkout.SubscriptionID), zap.Error(err))
		providerSub = &payment.Subscription{ID: checkout.SubscriptionID, CustomerID: checkout.CustomerID, Status: "active"}
	}

	sub := models.Subscription{
		UserID:                 userID,
		PlanID:                 plan.ID,
		ProviderSubscriptionID: checkout.SubscriptionID,
		ProviderCustomerID:     providerSub.CustomerID,
		Status:                 mapProviderStatus(providerSub.Status),
		CurrentPeriodStart:     unixTime(providerSub.CurrentPeriodStart),
		CurrentPeriodEnd:       unixTime(providerSub.CurrentPeriodEnd),
		CancelAtPeriodEnd:      providerSub.CancelAtPeriodEnd,
	}
	if err := s.repo.Create(ctx, &sub); err != nil {
		return err
	}

	s.publishSubscriptionEvent(ctx, &sub)
	configslog.SLog.Infof("subscription activated: user=%d sub=%s plan=%d", userID, sub.ProviderSubscriptionID, plan.ID)
	return nil
}

// applySubscriptionState updates the mirror row from an event. forceStatus
// overrides the payload status for deletion/failure events whose payloads
// carry the pre-transition state.
func (s *SubscriptionService) applySubscriptionState(ctx context.Context, data json.RawMessage, forceStatus *models.SubscriptionStatus) error {
	var payload webhookSubscriptionData
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode subscription payload: %w", err)
	}
	if payload.ID == "" {
		return errors.New("subscription payload missing id")
	}

	sub, err := s.repo.FindByProviderID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Event for a subscription we never recorded; nothing to sync.
			configslog.SLog.Warnf("webhook for unknown subscription %s ignored", payload.ID)
			return nil
		}
		return err
	}

	if forceStatus != nil {
		sub.Status = *forceStatus
	} else {
		sub.Status = mapProviderStatus(payload.Status)
	}
	if payload.CustomerID != "" {
		sub.ProviderCustomerID = payload.CustomerID
	}
	if start := unixTime(payload.CurrentPeriodStart); start != nil {
		sub.CurrentPeriodStart = start
	}
	if end := unixTime(payload.CurrentPeriodEnd); end != nil {
		sub.CurrentPeriodEnd = end
	}
	sub.CancelAtPeriodEnd = payload.CancelAtPeriodEnd

	if err := s.repo.Update(ctx, sub); err != nil {
		return err
	}

	s.publishSubscriptionEvent(ctx, sub)
	configslog.SLog.Infof("subscription synced: sub=%s status=%s", sub.ProviderSubscriptionID, sub.Status)
	return nil
}

func (s *SubscriptionService) publishSubscriptionEvent(ctx context.Context, sub *models.Subscription) {
	s.bus.Publish(ctx, events.Event{
		Topic: events.TopicSubscriptionUpdated,
		Payload: events.SubscriptionEvent{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Status:         string(sub.Status),
		},
	})
}

func mapProviderStatus(provider string) models.SubscriptionStatus {
	switch strings.ToLower(provider) {
	case "active", "trialing":
		return models.SubscriptionStatusActive
	case "past_due", "unpaid":
		return models.SubscriptionStatusPastDue
	case "canceled", "cancelled":
		return models.SubscriptionStatusCancelled
	default:
		return models.SubscriptionStatusIncomplete
	}
}

func unixTime(v int64) *time.Time {
	if v == 0 {
		return nil
	}
	t := time.Unix(v, 0).UTC()
	return &t
}

func (s *SubscriptionService) AddFamilyMember(ctx context.Context, userID uint, input FamilyMemberInput) (*models.FamilyMember, error) {
	if strings.TrimSpace(input.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrFamilyMemberInvalid)
	}
	sub, err := s.GetSubscriptionForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionStatusActive {
		return nil, ErrSubscriptionNotActive
	}

	count, err := s.repo.CountFamilyMembers(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if sub.Plan.MaxFamilyMembers > 0 && count >= int64(sub.Plan.MaxFamilyMembers) {
		return nil, ErrFamilyMemberLimit
	}

	member := models.FamilyMember{
		SubscriptionID: sub.ID,
		FullName:       strings.TrimSpace(input.FullName),
		Relation:       strings.TrimSpace(input.Relation),
		BirthDate:      input.BirthDate,
	}
	if err := s.repo.AddFamilyMember(models.ContextWithUserID(ctx, userID), &member); err != nil {
		configslog.Log.Error("family member create failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &member, nil
}

func (s *SubscriptionService) ListFamilyMembers(ctx context.Context, userID uint) ([]models.FamilyMember, error) {
	sub, err := s.GetSubscriptionForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListFamilyMembers(ctx, sub.ID)
}

func (s *SubscriptionService) RemoveFamilyMember(ctx context.Context, userID uint, memberID uint) error {
	sub, err := s.GetSubscriptionForUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteFamilyMember(ctx, memberID, sub.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrFamilyMemberNotFound
		}
		return err
	}
	return nil
}

var _ ISubscriptionService = (*SubscriptionService)(nil)
