package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabib.link/models"
)

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)

	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	updated, err := svc.UpdateProfile(context.Background(), medecin.ID, UpdateProfileInput{
		Specialty:         "cardiologie",
		City:              "Lyon",
		ConsultationPrice: 60,
		WorkStart:         "08:00",
		WorkEnd:           "16:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "cardiologie", updated.Specialty)
	assert.Equal(t, "08:00", updated.WorkStart)
	assert.Equal(t, "16:00", updated.WorkEnd)

	// Partial update touching one bound keeps the merged window valid.
	updated, err = svc.UpdateProfile(context.Background(), medecin.ID, UpdateProfileInput{
		Specialty: "cardiologie",
		City:      "Lyon",
		WorkEnd:   "18:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "08:00", updated.WorkStart)
	assert.Equal(t, "18:30", updated.WorkEnd)
}

func TestUpdateProfileRejectsBadWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)

	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	_, err := svc.UpdateProfile(context.Background(), medecin.ID, UpdateProfileInput{
		WorkStart: "25:99",
		WorkEnd:   "17:00",
	})
	assert.ErrorIs(t, err, ErrProfileInvalidInput)

	_, err = svc.UpdateProfile(context.Background(), medecin.ID, UpdateProfileInput{
		WorkStart: "10:00",
		WorkEnd:   "10:00",
	})
	assert.ErrorIs(t, err, ErrProfileInvalidInput, "empty window is invalid")

	_, err = svc.UpdateProfile(context.Background(), medecin.ID, UpdateProfileInput{
		ConsultationPrice: -5,
	})
	assert.ErrorIs(t, err, ErrProfileInvalidInput)
}

func TestUpdateProfileRequiresProfessional(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)

	patient := createTestPatient(t, db, "patient@example.com")
	_, err := svc.UpdateProfile(context.Background(), patient.ID, UpdateProfileInput{City: "Paris"})
	assert.ErrorIs(t, err, ErrProfileNotProfessional)
}

func TestSetVacationMode(t *testing.T) {
	db := setupTestDB(t)
	svc := newProfileService(db)

	pharmacie := createTestProfessional(t, db, "pharmacie@example.com", models.RolePharmacie)

	require.NoError(t, svc.SetVacationMode(context.Background(), pharmacie.ID, true))
	profile, err := svc.GetProfileByUserID(context.Background(), pharmacie.ID)
	require.NoError(t, err)
	assert.True(t, profile.VacationMode)

	require.NoError(t, svc.SetVacationMode(context.Background(), pharmacie.ID, false))
	profile, err = svc.GetProfileByUserID(context.Background(), pharmacie.ID)
	require.NoError(t, err)
	assert.False(t, profile.VacationMode)
}
