package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{}}`)
	now := time.Now()
	header := SignPayload(body, testSecret, now)

	assert.NoError(t, VerifySignature(body, header, testSecret, DefaultTolerance, now))
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	err := VerifySignature([]byte("{}"), "", testSecret, DefaultTolerance, time.Now())
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := SignPayload(body, "whsec_other", now)

	err := VerifySignature(body, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	now := time.Now()
	header := SignPayload([]byte(`{"amount":10}`), testSecret, now)

	err := VerifySignature([]byte(`{"amount":9999}`), header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	issued := time.Now().Add(-10 * time.Minute)
	header := SignPayload(body, testSecret, issued)

	err := VerifySignature(body, header, testSecret, DefaultTolerance, time.Now())
	assert.ErrorIs(t, err, ErrStaleSignature)
}

func TestVerifySignature_GarbageHeader(t *testing.T) {
	err := VerifySignature([]byte("{}"), "not-a-signature", testSecret, DefaultTolerance, time.Now())
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestParseEvent(t *testing.T) {
	evt, err := ParseEvent([]byte(`{"id":"evt_42","type":"checkout.session.completed","data":{"id":"cs_1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_42", evt.ID)
	assert.Equal(t, EventCheckoutCompleted, evt.Type)

	_, err = ParseEvent([]byte(`{"id":"evt_43"}`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
