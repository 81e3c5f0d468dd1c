package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/availability"
	"tabib.link/pkg/events"
	"tabib.link/pkg/queryparams"
	"tabib.link/repositories"
)

// RdvServiceError is the typed error for rendez-vous operations.
type RdvServiceError string

func (e RdvServiceError) Error() string { return string(e) }

const (
	ErrRdvNotFound           RdvServiceError = "rendez-vous not found"
	ErrRdvInvalidInput       RdvServiceError = "invalid rendez-vous data"
	ErrRdvForbidden          RdvServiceError = "not allowed to act on this rendez-vous"
	ErrRdvProfessionalBad    RdvServiceError = "target user is not a bookable professional"
	ErrRdvSlotUnavailable    RdvServiceError = "requested slot is not available"
	ErrRdvInvalidTransition  RdvServiceError = "status transition not allowed"
	ErrRdvCreationFailed     RdvServiceError = "rendez-vous could not be created"
	ErrRdvAnnonceUnavailable RdvServiceError = "referenced annonce is not active"
)

// SlotUnavailableError wraps ErrRdvSlotUnavailable with the reason code from
// the availability check so handlers can surface it field-level.
type SlotUnavailableError struct {
	Reason availability.Reason
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRdvSlotUnavailable, e.Reason)
}

func (e *SlotUnavailableError) Unwrap() error { return ErrRdvSlotUnavailable }

// BookRdvInput is the patient's booking request.
type BookRdvInput struct {
	ProfessionalID uint      `json:"professional_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	AnnonceID      *uint     `json:"annonce_id,omitempty"`
	Reason         string    `json:"reason"`
}

// IRdvService is the rendez-vous business interface.
type IRdvService interface {
	CheckAvailability(ctx context.Context, professionalID uint, candidate time.Time) (availability.Decision, error)
	BookRdv(ctx context.Context, patientID uint, input BookRdvInput) (*models.RendezVous, error)
	GetRdvByID(ctx context.Context, id uint, requestingUserID uint) (*models.RendezVous, error)
	GetRdvsForPatient(ctx context.Context, patientID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error)
	GetRdvsForProfessional(ctx context.Context, professionalID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error)
	UpdateStatus(ctx context.Context, id uint, actingUserID uint, newStatus models.RdvStatus, notes string) (*models.RendezVous, error)
}

// RdvService implements IRdvService.
type RdvService struct {
	repo        repositories.IRdvRepository
	userRepo    repositories.IUserRepository
	profileRepo repositories.IProfileRepository
	annonceRepo repositories.IAnnonceRepository
	db          *gorm.DB
	bus         events.Bus
	slotLength  time.Duration
}

// NewRdvService builds the service on the shared connection and the
// process-wide event bus.
func NewRdvService() IRdvService {
	return newRdvService(configs.GetDB(), events.Default(), configs.Get().SlotLength)
}

func newRdvService(db *gorm.DB, bus events.Bus, slotLength time.Duration) *RdvService {
	if slotLength <= 0 {
		slotLength = availability.DefaultSlotLength
	}
	return &RdvService{
		repo:        repositories.NewRdvRepositoryTx(db),
		userRepo:    repositories.NewUserRepositoryTx(db),
		profileRepo: repositories.NewProfileRepositoryTx(db),
		annonceRepo: repositories.NewAnnonceRepositoryTx(db),
		db:          db,
		bus:         bus,
		slotLength:  slotLength,
	}
}

// professionalConfig loads the target professional's profile and snapshots
// it into the availability config.
func (s *RdvService) professionalConfig(ctx context.Context, professionalID uint) (*models.User, availability.Config, error) {
	professional, err := s.userRepo.FindByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, availability.Config{}, ErrRdvProfessionalBad
		}
		return nil, availability.Config{}, err
	}
	if !professional.Role.Professional() || !professional.IsActive {
		return nil, availability.Config{}, ErrRdvProfessionalBad
	}
	profile := professional.Profile
	if profile == nil {
		loaded, err := s.profileRepo.FindByUserID(ctx, professionalID)
		if err != nil {
			return nil, availability.Config{}, ErrRdvProfessionalBad
		}
		profile = loaded
	}
	return professional, profile.AvailabilityConfig(s.slotLength), nil
}

// CheckAvailability runs the advisory slot check for a candidate time.
func (s *RdvService) CheckAvailability(ctx context.Context, professionalID uint, candidate time.Time) (availability.Decision, error) {
	_, cfg, err := s.professionalConfig(ctx, professionalID)
	if err != nil {
		return availability.Decision{}, err
	}
	existing, err := s.repo.ScheduledTimesForDay(ctx, professionalID, candidate)
	if err != nil {
		return availability.Decision{}, err
	}
	return availability.Check(cfg, existing, candidate), nil
}

// BookRdv creates a pending rendez-vous for the patient if the advisory
// availability check accepts the slot. The check and the insert are not
// serialized against concurrent requests: two bookings racing on the same
// slot can both succeed, and the professional cancels one manually.
func (s *RdvService) BookRdv(ctx context.Context, patientID uint, input BookRdvInput) (*models.RendezVous, error) {
	if patientID == 0 || input.ProfessionalID == 0 {
		return nil, fmt.Errorf("%w: patient and professional are required", ErrRdvInvalidInput)
	}
	if input.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_at is required", ErrRdvInvalidInput)
	}
	if input.ScheduledAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: scheduled_at is in the past", ErrRdvInvalidInput)
	}
	if input.ProfessionalID == patientID {
		return nil, fmt.Errorf("%w: cannot book a rendez-vous with yourself", ErrRdvInvalidInput)
	}

	professional, cfg, err := s.professionalConfig(ctx, input.ProfessionalID)
	if err != nil {
		return nil, err
	}

	if input.AnnonceID != nil {
		annonce, err := s.annonceRepo.FindByID(ctx, *input.AnnonceID)
		if err != nil || !annonce.IsActive || annonce.OwnerID != input.ProfessionalID {
			return nil, ErrRdvAnnonceUnavailable
		}
	}

	existing, err := s.repo.ScheduledTimesForDay(ctx, input.ProfessionalID, input.ScheduledAt)
	if err != nil {
		return nil, err
	}
	if decision := availability.Check(cfg, existing, input.ScheduledAt); !decision.OK {
		return nil, &SlotUnavailableError{Reason: decision.Reason}
	}

	rdv := models.RendezVous{
		PatientID:        patientID,
		ProfessionalID:   input.ProfessionalID,
		ProfessionalRole: professional.Role,
		ScheduledAt:      input.ScheduledAt,
		Status:           models.RdvStatusPending,
		AnnonceID:        input.AnnonceID,
		Reason:           input.Reason,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		rdvRepoTx := repositories.NewRdvRepositoryTx(tx)
		if err := rdvRepoTx.Create(models.ContextWithUserID(ctx, patientID), &rdv); err != nil {
			configslog.Log.Error("rdv create failed", zap.Error(err))
			return ErrRdvCreationFailed
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Publish after commit: the booking stands even if the notification
	// side effect fails.
	s.bus.Publish(ctx, events.Event{
		Topic: events.TopicRdvBooked,
		Payload: events.RdvEvent{
			RdvID:          rdv.ID,
			PatientID:      rdv.PatientID,
			ProfessionalID: rdv.ProfessionalID,
			Status:         string(rdv.Status),
			ScheduledAt:    rdv.ScheduledAt,
			ActorID:        patientID,
		},
	})

	configslog.SLog.Infof("rdv booked: id=%d patient=%d professional=%d at=%s",
		rdv.ID, rdv.PatientID, rdv.ProfessionalID, rdv.ScheduledAt.Format(time.RFC3339))
	return &rdv, nil
}

// GetRdvByID returns the rendez-vous if the requester is a party to it (or
// an admin).
func (s *RdvService) GetRdvByID(ctx context.Context, id uint, requestingUserID uint) (*models.RendezVous, error) {
	rdv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRdvNotFound
		}
		return nil, err
	}
	requester, err := s.userRepo.FindByID(ctx, requestingUserID)
	if err != nil {
		return nil, ErrRdvForbidden
	}
	if requester.Role != models.RoleAdmin && rdv.PatientID != requestingUserID && rdv.ProfessionalID != requestingUserID {
		return nil, ErrRdvForbidden
	}
	return rdv, nil
}

func (s *RdvService) GetRdvsForPatient(ctx context.Context, patientID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error) {
	params.Validate()
	rdvs, totalCount, err := s.repo.FindAllByPatientPaginated(ctx, patientID, params)
	if err != nil {
		return nil, err
	}
	return paginated(rdvs, totalCount, params), nil
}

func (s *RdvService) GetRdvsForProfessional(ctx context.Context, professionalID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error) {
	params.Validate()
	rdvs, totalCount, err := s.repo.FindAllByProfessionalPaginated(ctx, professionalID, params)
	if err != nil {
		return nil, err
	}
	return paginated(rdvs, totalCount, params), nil
}

// UpdateStatus applies a lifecycle transition on behalf of the acting user.
// The transition table enforces both the lifecycle graph (terminal states
// admit nothing) and role authorization.
func (s *RdvService) UpdateStatus(ctx context.Context, id uint, actingUserID uint, newStatus models.RdvStatus, notes string) (*models.RendezVous, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrRdvInvalidInput, newStatus)
	}

	var updated *models.RendezVous
	var actorID uint

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var rdv models.RendezVous
		if err := tx.First(&rdv, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRdvNotFound
			}
			return err
		}

		var actor models.RdvActor
		switch actingUserID {
		case rdv.PatientID:
			actor = models.RdvActorPatient
		case rdv.ProfessionalID:
			actor = models.RdvActorProfessional
		default:
			return ErrRdvForbidden
		}

		if !models.TransitionAllowed(actor, rdv.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s as %s", ErrRdvInvalidTransition, rdv.Status, newStatus, actor)
		}

		rdv.Status = newStatus
		if notes != "" {
			rdv.Notes = notes
		}
		rdvRepoTx := repositories.NewRdvRepositoryTx(tx)
		if err := rdvRepoTx.Update(models.ContextWithUserID(ctx, actingUserID), &rdv); err != nil {
			return err
		}
		updated = &rdv
		actorID = actingUserID
		return nil
	})
	if txErr != nil {
		if !errors.Is(txErr, ErrRdvNotFound) && !errors.Is(txErr, ErrRdvForbidden) && !errors.Is(txErr, ErrRdvInvalidTransition) {
			configslog.Log.Error("rdv status update failed", zap.Uint("id", id), zap.Error(txErr))
		}
		return nil, txErr
	}

	topic := events.TopicRdvUpdated
	if newStatus == models.RdvStatusCancelled {
		topic = events.TopicRdvCancelled
	}
	s.bus.Publish(ctx, events.Event{
		Topic: topic,
		Payload: events.RdvEvent{
			RdvID:          updated.ID,
			PatientID:      updated.PatientID,
			ProfessionalID: updated.ProfessionalID,
			Status:         string(updated.Status),
			ScheduledAt:    updated.ScheduledAt,
			ActorID:        actorID,
		},
	})

	configslog.SLog.Infof("rdv status updated: id=%d status=%s by=%d", updated.ID, updated.Status, actorID)
	return updated, nil
}

func paginated(data interface{}, totalCount int64, params queryparams.ListParams) *queryparams.PaginatedResult {
	return &queryparams.PaginatedResult{
		Data: data,
		Meta: queryparams.PaginationMeta{
			CurrentPage: params.Page,
			PerPage:     params.PerPage,
			TotalItems:  totalCount,
			TotalPages:  queryparams.CalculateTotalPages(totalCount, params.PerPage),
		},
	}
}

var _ IRdvService = (*RdvService)(nil)
