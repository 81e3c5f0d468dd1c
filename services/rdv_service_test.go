package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabib.link/models"
	"tabib.link/pkg/availability"
	"tabib.link/pkg/events"
)

func TestBookRdvRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	slot := nextWorkdaySlot(1, 10, 0)
	booked, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot,
		Reason:         "consultation de suivi",
	})
	require.NoError(t, err)
	require.NotZero(t, booked.ID)
	assert.Equal(t, models.RdvStatusPending, booked.Status)

	fetched, err := svc.GetRdvByID(context.Background(), booked.ID, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, booked.ID, fetched.ID)
	assert.Equal(t, patient.ID, fetched.PatientID)
	assert.Equal(t, medecin.ID, fetched.ProfessionalID)
	assert.Equal(t, models.RoleMedecin, fetched.ProfessionalRole)
	assert.Equal(t, models.RdvStatusPending, fetched.Status)
	assert.Equal(t, "consultation de suivi", fetched.Reason)
	assert.True(t, fetched.ScheduledAt.Equal(slot))
}

func TestBookRdvRejectsBadInput(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	_, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    time.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, ErrRdvInvalidInput, "past slots are rejected")

	_, err = svc.BookRdv(context.Background(), medecin.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    nextWorkdaySlot(1, 10, 0),
	})
	assert.ErrorIs(t, err, ErrRdvInvalidInput, "self-booking is rejected")

	_, err = svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: patient.ID,
		ScheduledAt:    nextWorkdaySlot(1, 10, 0),
	})
	assert.ErrorIs(t, err, ErrRdvProfessionalBad, "patients are not bookable")
}

func TestBookRdvVacationMode(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)
	profileSvc := newProfileService(db)

	patient := createTestPatient(t, db, "patient@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	require.NoError(t, profileSvc.SetVacationMode(context.Background(), medecin.ID, true))

	slot := nextWorkdaySlot(1, 10, 0)
	_, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot,
	})
	var slotErr *SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, availability.ReasonVacation, slotErr.Reason)
	assert.ErrorIs(t, err, ErrRdvSlotUnavailable)

	// Clearing the flag restores availability immediately.
	require.NoError(t, profileSvc.SetVacationMode(context.Background(), medecin.ID, false))
	_, err = svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot,
	})
	assert.NoError(t, err)
}

func TestBookRdvSlotConflict(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	other := createTestPatient(t, db, "other@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	slot := nextWorkdaySlot(1, 10, 0)
	_, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot,
	})
	require.NoError(t, err)

	// Same slot and anything closer than one slot length collide.
	_, err = svc.BookRdv(context.Background(), other.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot.Add(15 * time.Minute),
	})
	var slotErr *SlotUnavailableError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, availability.ReasonConflict, slotErr.Reason)

	// One full slot length away is free.
	_, err = svc.BookRdv(context.Background(), other.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot.Add(30 * time.Minute),
	})
	assert.NoError(t, err)
}

// The availability check is advisory: it reads committed rows, so two
// requests checking before either inserts both see a free slot. Both
// bookings then stand and the professional resolves the clash manually.
func TestCheckAvailabilityIsAdvisory(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	slot := nextWorkdaySlot(1, 10, 0)

	first, err := svc.CheckAvailability(context.Background(), medecin.ID, slot)
	require.NoError(t, err)
	second, err := svc.CheckAvailability(context.Background(), medecin.ID, slot)
	require.NoError(t, err)
	assert.True(t, first.OK)
	assert.True(t, second.OK, "both callers see the slot free before either books")

	_, err = svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot,
	})
	require.NoError(t, err)

	after, err := svc.CheckAvailability(context.Background(), medecin.ID, slot)
	require.NoError(t, err)
	assert.False(t, after.OK)
	assert.Equal(t, availability.ReasonConflict, after.Reason)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	rdv, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    nextWorkdaySlot(1, 11, 0),
	})
	require.NoError(t, err)

	// Patients may not confirm.
	_, err = svc.UpdateStatus(context.Background(), rdv.ID, patient.ID, models.RdvStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrRdvInvalidTransition)

	confirmed, err := svc.UpdateStatus(context.Background(), rdv.ID, medecin.ID, models.RdvStatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, models.RdvStatusConfirmed, confirmed.Status)

	completed, err := svc.UpdateStatus(context.Background(), rdv.ID, medecin.ID, models.RdvStatusCompleted, "patient vu")
	require.NoError(t, err)
	assert.Equal(t, models.RdvStatusCompleted, completed.Status)
	assert.Equal(t, "patient vu", completed.Notes)

	// Terminal states admit nothing.
	_, err = svc.UpdateStatus(context.Background(), rdv.ID, medecin.ID, models.RdvStatusCancelled, "")
	assert.ErrorIs(t, err, ErrRdvInvalidTransition)
}

func TestUpdateStatusPatientCancels(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	stranger := createTestPatient(t, db, "stranger@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	rdv, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    nextWorkdaySlot(1, 14, 0),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), rdv.ID, stranger.ID, models.RdvStatusCancelled, "")
	assert.ErrorIs(t, err, ErrRdvForbidden, "third parties cannot touch the rendez-vous")

	cancelled, err := svc.UpdateStatus(context.Background(), rdv.ID, patient.ID, models.RdvStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, models.RdvStatusCancelled, cancelled.Status)
}

func TestGetRdvByIDAuthorization(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	stranger := createTestPatient(t, db, "stranger@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	admin := models.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, db.Create(&admin).Error)

	rdv, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    nextWorkdaySlot(1, 15, 0),
	})
	require.NoError(t, err)

	for _, userID := range []uint{patient.ID, medecin.ID, admin.ID} {
		_, err := svc.GetRdvByID(context.Background(), rdv.ID, userID)
		assert.NoError(t, err)
	}

	_, err = svc.GetRdvByID(context.Background(), rdv.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrRdvForbidden)
}

func TestBookRdvWritesCounterPartyNotification(t *testing.T) {
	db := setupTestDB(t)
	bus := events.NewInProcessBus()
	RegisterNotificationSubscribers(bus, db)
	svc := newRdvService(db, bus, 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	_, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    nextWorkdaySlot(1, 10, 0),
	})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", medecin.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRdvBooked, notifications[0].Kind)

	// The acting patient gets no notification for their own booking.
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", patient.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBookRdvAnnonceMustBeActiveAndOwned(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)

	patient := createTestPatient(t, db, "patient@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)
	pharmacie := createTestProfessional(t, db, "pharmacie@example.com", models.RolePharmacie)

	inactive := models.Annonce{OwnerID: medecin.ID, Title: "Promo", Price: 20, IsActive: false}
	require.NoError(t, db.Create(&inactive).Error)
	foreign := models.Annonce{OwnerID: pharmacie.ID, Title: "Autre promo", Price: 10, IsActive: true}
	require.NoError(t, db.Create(&foreign).Error)

	slot := nextWorkdaySlot(1, 10, 0)
	_, err := svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot,
		AnnonceID:      &inactive.ID,
	})
	assert.ErrorIs(t, err, ErrRdvAnnonceUnavailable)

	_, err = svc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    slot,
		AnnonceID:      &foreign.ID,
	})
	assert.ErrorIs(t, err, ErrRdvAnnonceUnavailable, "annonce must belong to the booked professional")
}

func TestUpdateStatusUnknownRdv(t *testing.T) {
	db := setupTestDB(t)
	svc := newRdvService(db, events.NewInProcessBus(), 30*time.Minute)
	patient := createTestPatient(t, db, "patient@example.com")

	_, err := svc.UpdateStatus(context.Background(), 9999, patient.ID, models.RdvStatusCancelled, "")
	assert.True(t, errors.Is(err, ErrRdvNotFound))
}
