package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tabib.link/models"
	"tabib.link/pkg/events"
	"tabib.link/pkg/payment"
)

func seedTestPlan(t *testing.T, db *gorm.DB, priceID string, maxFamily int) *models.SubscriptionPlan {
	t.Helper()
	plan := models.SubscriptionPlan{
		Name:             "Plan " + priceID,
		Tier:             "essentiel",
		PriceMonthly:     4.99,
		Currency:         "EUR",
		ProviderPriceID:  priceID,
		MaxFamilyMembers: maxFamily,
	}
	require.NoError(t, db.Create(&plan).Error)
	return &plan
}

// fakeProvider stands in for the payment provider's REST API.
func fakeProvider(t *testing.T, subscription *payment.Subscription) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		if subscription == nil {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"message":"no such subscription"}}`)
			return
		}
		json.NewEncoder(w).Encode(subscription)
	})
	mux.HandleFunc("/v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payment.CheckoutSession{
			ID:  "cs_test",
			URL: "https://pay.example/session/cs_test",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandleWebhookCheckoutCompleted(t *testing.T) {
	db := setupTestDB(t)
	user := createTestPatient(t, db, "subscriber@example.com")
	plan := seedTestPlan(t, db, "price_essentiel", 0)

	periodStart := time.Now().Unix()
	periodEnd := time.Now().AddDate(0, 1, 0).Unix()
	provider := fakeProvider(t, &payment.Subscription{
		ID:                 "sub_123",
		CustomerID:         "cus_123",
		Status:             "active",
		PriceID:            plan.ProviderPriceID,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
	})

	bus := events.NewInProcessBus()
	var published []events.Event
	bus.Subscribe(events.TopicSubscriptionUpdated, func(ctx context.Context, evt events.Event) error {
		published = append(published, evt)
		return nil
	})

	svc := newSubscriptionService(db, bus, payment.NewClient(provider.URL, "sk_test"))

	data, _ := json.Marshal(map[string]string{
		"id":                  "cs_1",
		"customer":            "cus_123",
		"subscription":        "sub_123",
		"client_reference_id": fmt.Sprint(user.ID),
		"price_id":            plan.ProviderPriceID,
	})
	err := svc.HandleWebhookEvent(context.Background(), &payment.WebhookEvent{
		ID:   "evt_1",
		Type: payment.EventCheckoutCompleted,
		Data: data,
	})
	require.NoError(t, err)

	sub, err := svc.GetSubscriptionForUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub_123", sub.ProviderSubscriptionID)
	assert.Equal(t, "cus_123", sub.ProviderCustomerID)
	assert.Equal(t, plan.ID, sub.PlanID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, periodEnd, sub.CurrentPeriodEnd.Unix())

	require.Len(t, published, 1)
}

func TestHandleWebhookSubscriptionStateChanges(t *testing.T) {
	tests := []struct {
		name       string
		eventType  string
		payload    map[string]interface{}
		wantStatus models.SubscriptionStatus
	}{
		{
			name:       "updated syncs provider status",
			eventType:  payment.EventSubscriptionUpdated,
			payload:    map[string]interface{}{"id": "sub_123", "status": "past_due"},
			wantStatus: models.SubscriptionStatusPastDue,
		},
		{
			name:       "deleted forces cancelled regardless of payload status",
			eventType:  payment.EventSubscriptionDeleted,
			payload:    map[string]interface{}{"id": "sub_123", "status": "active"},
			wantStatus: models.SubscriptionStatusCancelled,
		},
		{
			name:       "payment failure forces past_due",
			eventType:  payment.EventPaymentFailed,
			payload:    map[string]interface{}{"id": "sub_123", "status": "active"},
			wantStatus: models.SubscriptionStatusPastDue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			user := createTestPatient(t, db, "subscriber@example.com")
			plan := seedTestPlan(t, db, "price_essentiel", 0)
			require.NoError(t, db.Create(&models.Subscription{
				UserID:                 user.ID,
				PlanID:                 plan.ID,
				ProviderSubscriptionID: "sub_123",
				ProviderCustomerID:     "cus_123",
				Status:                 models.SubscriptionStatusActive,
			}).Error)

			svc := newSubscriptionService(db, events.NewInProcessBus(), payment.NewClient("http://127.0.0.1:0", "sk_test"))

			data, _ := json.Marshal(tt.payload)
			err := svc.HandleWebhookEvent(context.Background(), &payment.WebhookEvent{
				ID:   "evt_1",
				Type: tt.eventType,
				Data: data,
			})
			require.NoError(t, err)

			sub, err := svc.GetSubscriptionForUser(context.Background(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, sub.Status)
		})
	}
}

func TestHandleWebhookUnknownSubscriptionIgnored(t *testing.T) {
	db := setupTestDB(t)
	svc := newSubscriptionService(db, events.NewInProcessBus(), payment.NewClient("http://127.0.0.1:0", "sk_test"))

	data, _ := json.Marshal(map[string]string{"id": "sub_never_seen", "status": "active"})
	err := svc.HandleWebhookEvent(context.Background(), &payment.WebhookEvent{
		ID:   "evt_1",
		Type: payment.EventSubscriptionUpdated,
		Data: data,
	})
	assert.NoError(t, err, "events for untracked subscriptions are dropped, not retried")

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleWebhookUnknownEventTypeIgnored(t *testing.T) {
	db := setupTestDB(t)
	svc := newSubscriptionService(db, events.NewInProcessBus(), payment.NewClient("http://127.0.0.1:0", "sk_test"))

	err := svc.HandleWebhookEvent(context.Background(), &payment.WebhookEvent{
		ID:   "evt_1",
		Type: "customer.created",
		Data: json.RawMessage(`{}`),
	})
	assert.NoError(t, err)
}

func TestStartCheckout(t *testing.T) {
	db := setupTestDB(t)
	user := createTestPatient(t, db, "subscriber@example.com")
	plan := seedTestPlan(t, db, "price_essentiel", 0)
	provider := fakeProvider(t, nil)

	svc := newSubscriptionService(db, events.NewInProcessBus(), payment.NewClient(provider.URL, "sk_test"))

	url, err := svc.StartCheckout(context.Background(), user.ID, plan.ID, "https://tabib.link/ok", "https://tabib.link/ko")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/session/cs_test", url)

	_, err = svc.StartCheckout(context.Background(), user.ID, 9999, "https://tabib.link/ok", "https://tabib.link/ko")
	assert.ErrorIs(t, err, ErrSubscriptionPlanNotFound)
}

func TestStartCheckoutBlockedWhenActive(t *testing.T) {
	db := setupTestDB(t)
	user := createTestPatient(t, db, "subscriber@example.com")
	plan := seedTestPlan(t, db, "price_essentiel", 0)
	require.NoError(t, db.Create(&models.Subscription{
		UserID:                 user.ID,
		PlanID:                 plan.ID,
		ProviderSubscriptionID: "sub_123",
		Status:                 models.SubscriptionStatusActive,
	}).Error)

	svc := newSubscriptionService(db, events.NewInProcessBus(), payment.NewClient("http://127.0.0.1:0", "sk_test"))

	_, err := svc.StartCheckout(context.Background(), user.ID, plan.ID, "https://tabib.link/ok", "https://tabib.link/ko")
	assert.ErrorIs(t, err, ErrSubscriptionAlreadyActive)
}

func TestFamilyMembers(t *testing.T) {
	db := setupTestDB(t)
	user := createTestPatient(t, db, "subscriber@example.com")
	plan := seedTestPlan(t, db, "price_famille", 1)
	require.NoError(t, db.Create(&models.Subscription{
		UserID:                 user.ID,
		PlanID:                 plan.ID,
		ProviderSubscriptionID: "sub_123",
		Status:                 models.SubscriptionStatusActive,
	}).Error)

	svc := newSubscriptionService(db, events.NewInProcessBus(), payment.NewClient("http://127.0.0.1:0", "sk_test"))

	member, err := svc.AddFamilyMember(context.Background(), user.ID, FamilyMemberInput{FullName: "Enfant Un", Relation: "enfant"})
	require.NoError(t, err)
	assert.NotZero(t, member.ID)

	_, err = svc.AddFamilyMember(context.Background(), user.ID, FamilyMemberInput{FullName: "Enfant Deux"})
	assert.ErrorIs(t, err, ErrFamilyMemberLimit)

	members, err := svc.ListFamilyMembers(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.NoError(t, svc.RemoveFamilyMember(context.Background(), user.ID, member.ID))
	err = svc.RemoveFamilyMember(context.Background(), user.ID, member.ID)
	assert.ErrorIs(t, err, ErrFamilyMemberNotFound)
}

func TestAddFamilyMemberRequiresActiveSubscription(t *testing.T) {
	db := setupTestDB(t)
	user := createTestPatient(t, db, "subscriber@example.com")
	plan := seedTestPlan(t, db, "price_famille", 5)
	require.NoError(t, db.Create(&models.Subscription{
		UserID:                 user.ID,
		PlanID:                 plan.ID,
		ProviderSubscriptionID: "sub_123",
		Status:                 models.SubscriptionStatusPastDue,
	}).Error)

	svc := newSubscriptionService(db, events.NewInProcessBus(), payment.NewClient("http://127.0.0.1:0", "sk_test"))

	_, err := svc.AddFamilyMember(context.Background(), user.ID, FamilyMemberInput{FullName: "Enfant"})
	assert.ErrorIs(t, err, ErrSubscriptionNotActive)
}
