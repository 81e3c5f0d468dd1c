// Package events is the in-process publish/subscribe seam between business
// mutations and their side effects. Services publish after their transaction
// commits; subscribers (notification writes) run synchronously but their
// failures are logged, not surfaced, so a failed side effect can no longer
// fail the request that triggered it.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tabib.link/configs/configslog"
)

// Topic names an event stream.
type Topic string

const (
	TopicRdvBooked           Topic = "rdv.booked"
	TopicRdvUpdated          Topic = "rdv.updated"
	TopicRdvCancelled        Topic = "rdv.cancelled"
	TopicSubscriptionUpdated Topic = "subscription.updated"
)

// Event is what travels over the bus. ID is a correlation id stamped at
// publish time so a failing side effect can be traced back to its trigger.
type Event struct {
	ID      string
	Topic   Topic
	At      time.Time
	Payload interface{}
}

// RdvEvent is the payload for the rdv.* topics.
type RdvEvent struct {
	RdvID          uint             `json:"rdv_id"`
	PatientID      uint             `json:"patient_id"`
	ProfessionalID uint             `json:"professional_id"`
	Status         string           `json:"status"`
	ScheduledAt    time.Time        `json:"scheduled_at"`
	// ActorID is the user whose request caused the event; the counter-party
	// is the notification recipient.
	ActorID uint `json:"actor_id"`
}

// SubscriptionEvent is the payload for subscription.updated.
type SubscriptionEvent struct {
	SubscriptionID uint   `json:"subscription_id"`
	UserID         uint   `json:"user_id"`
	Status         string `json:"status"`
}

// Handler consumes one event. Returned errors are logged by the bus.
type Handler func(ctx context.Context, evt Event) error

// Bus is the publish/subscribe interface services depend on.
type Bus interface {
	Publish(ctx context.Context, evt Event)
	Subscribe(topic Topic, h Handler)
}

// InProcessBus dispatches synchronously to subscribers in registration order.
type InProcessBus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
}

// NewInProcessBus returns an empty bus.
func NewInProcessBus() *InProcessBus {
	return &InProcessBus{handlers: make(map[Topic][]Handler)}
}

// Subscribe registers h for topic.
func (b *InProcessBus) Subscribe(topic Topic, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers evt to every subscriber of its topic. Handler errors and
// panics are contained here; publishing never fails the caller.
func (b *InProcessBus) Publish(ctx context.Context, evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.mu.RLock()
	hs := b.handlers[evt.Topic]
	b.mu.RUnlock()

	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					configslog.Log.Error("event handler panicked",
						zap.String("event_id", evt.ID),
						zap.String("topic", string(evt.Topic)), zap.Any("panic_info", r))
				}
			}()
			if err := h(ctx, evt); err != nil {
				configslog.Log.Error("event handler failed",
					zap.String("event_id", evt.ID),
					zap.String("topic", string(evt.Topic)), zap.Error(err))
			}
		}()
	}
}

var (
	defaultBus  *InProcessBus
	defaultOnce sync.Once
)

// Default returns the process-wide bus.
func Default() *InProcessBus {
	defaultOnce.Do(func() { defaultBus = NewInProcessBus() })
	return defaultBus
}

var _ Bus = (*InProcessBus)(nil)
