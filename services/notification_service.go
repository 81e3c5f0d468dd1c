package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/events"
	"tabib.link/pkg/queryparams"
	"tabib.link/repositories"
)

// NotificationServiceError is the typed error for notification operations.
type NotificationServiceError string

func (e NotificationServiceError) Error() string { return string(e) }

const (
	ErrNotificationNotFound NotificationServiceError = "notification not found"
)

// INotificationService is the notification business interface.
type INotificationService interface {
	GetNotificationsForUser(ctx context.Context, userID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error)
	MarkRead(ctx context.Context, id uint, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

// NotificationService implements INotificationService and subscribes to the
// event bus to materialize notification rows for counter-parties.
type NotificationService struct {
	repo repositories.INotificationRepository
	db   *gorm.DB
}

// NewNotificationService builds the service on the shared connection
// without touching bus subscriptions (those are wired once at startup via
// RegisterNotificationSubscribers).
func NewNotificationService() INotificationService {
	return newNotificationService(configs.GetDB())
}

func newNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{repo: repositories.NewNotificationRepositoryTx(db), db: db}
}

// RegisterNotificationSubscribers attaches the notification writers to the
// bus. Call exactly once at startup (and per-test bus in tests).
func RegisterNotificationSubscribers(bus events.Bus, db *gorm.DB) {
	svc := newNotificationService(db)
	bus.Subscribe(events.TopicRdvBooked, svc.handleRdvEvent(models.NotificationRdvBooked))
	bus.Subscribe(events.TopicRdvUpdated, svc.handleRdvEvent(models.NotificationRdvUpdated))
	bus.Subscribe(events.TopicRdvCancelled, svc.handleRdvEvent(models.NotificationRdvCancelled))
	bus.Subscribe(events.TopicSubscriptionUpdated, svc.handleSubscriptionEvent)
}

// handleRdvEvent writes one notification row for the counter-party of the
// acting user. Errors propagate to the bus, which logs and swallows them:
// a failed notification write never fails the booking request.
func (s *NotificationService) handleRdvEvent(kind models.NotificationKind) events.Handler {
	return func(ctx context.Context, evt events.Event) error {
		payload, ok := evt.Payload.(events.RdvEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T on %s", evt.Payload, evt.Topic)
		}

		recipient := payload.ProfessionalID
		if payload.ActorID == payload.ProfessionalID {
			recipient = payload.PatientID
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		notification := models.Notification{
			UserID:  recipient,
			Kind:    kind,
			Payload: raw,
		}
		if err := s.repo.Create(ctx, &notification); err != nil {
			return err
		}
		configslog.Log.Debug("notification written",
			zap.Uint("user_id", recipient), zap.String("kind", string(kind)))
		return nil
	}
}

func (s *NotificationService) handleSubscriptionEvent(ctx context.Context, evt events.Event) error {
	payload, ok := evt.Payload.(events.SubscriptionEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T on %s", evt.Payload, evt.Topic)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, &models.Notification{
		UserID:  payload.UserID,
		Kind:    models.NotificationSubscriptionUpdated,
		Payload: raw,
	})
}

func (s *NotificationService) GetNotificationsForUser(ctx context.Context, userID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error) {
	params.Validate()
	notifications, totalCount, err := s.repo.FindAllByUserPaginated(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	return paginated(notifications, totalCount, params), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uint, userID uint) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

var _ INotificationService = (*NotificationService)(nil)
