package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabib.link/models"
	"tabib.link/pkg/events"
	"tabib.link/pkg/queryparams"
)

func TestNotificationFlow(t *testing.T) {
	db := setupTestDB(t)
	bus := events.NewInProcessBus()
	RegisterNotificationSubscribers(bus, db)
	rdvSvc := newRdvService(db, bus, 30*time.Minute)
	svc := newNotificationService(db)

	patient := createTestPatient(t, db, "patient@example.com")
	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	rdv, err := rdvSvc.BookRdv(context.Background(), patient.ID, BookRdvInput{
		ProfessionalID: medecin.ID,
		ScheduledAt:    nextWorkdaySlot(1, 10, 0),
	})
	require.NoError(t, err)

	// Professional confirms: counter-party (the patient) is notified.
	_, err = rdvSvc.UpdateStatus(context.Background(), rdv.ID, medecin.ID, models.RdvStatusConfirmed, "")
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	params := queryparams.DefaultListParams("created_at")
	result, err := svc.GetNotificationsForUser(context.Background(), patient.ID, params)
	require.NoError(t, err)
	notifications, ok := result.Data.([]models.Notification)
	require.True(t, ok)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRdvUpdated, notifications[0].Kind)
	assert.False(t, notifications[0].Read())

	require.NoError(t, svc.MarkRead(context.Background(), notifications[0].ID, patient.ID))
	count, err = svc.UnreadCount(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := newNotificationService(db)

	patient := createTestPatient(t, db, "patient@example.com")
	other := createTestPatient(t, db, "other@example.com")

	notification := models.Notification{UserID: patient.ID, Kind: models.NotificationRdvBooked, Payload: []byte(`{}`)}
	require.NoError(t, db.Create(&notification).Error)

	err := svc.MarkRead(context.Background(), notification.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound, "users cannot read another user's inbox")

	assert.NoError(t, svc.MarkRead(context.Background(), notification.ID, patient.ID))
}

func TestUnreadFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := newNotificationService(db)

	patient := createTestPatient(t, db, "patient@example.com")
	now := time.Now()
	require.NoError(t, db.Create(&models.Notification{UserID: patient.ID, Kind: models.NotificationRdvBooked, Payload: []byte(`{}`)}).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: patient.ID, Kind: models.NotificationRdvCancelled, Payload: []byte(`{}`), ReadAt: &now}).Error)

	params := queryparams.DefaultListParams("created_at")
	params.Status = "unread"
	result, err := svc.GetNotificationsForUser(context.Background(), patient.ID, params)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Meta.TotalItems)
}
