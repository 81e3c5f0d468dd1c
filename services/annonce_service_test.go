package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabib.link/models"
	"tabib.link/pkg/queryparams"
)

func TestAnnonceCRUD(t *testing.T) {
	db := setupTestDB(t)
	svc := newAnnonceService(db)

	pharmacie := createTestProfessional(t, db, "pharmacie@example.com", models.RolePharmacie)

	created, err := svc.CreateAnnonce(context.Background(), pharmacie.ID, AnnonceInput{
		Title:           "Vaccin antigrippal",
		Description:     "Sans rendez-vous",
		Price:           25,
		DiscountPercent: 20,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive, "annonces default to active")
	assert.InDelta(t, 20.0, created.DiscountedPrice(), 0.001)

	inactive := false
	updated, err := svc.UpdateAnnonce(context.Background(), created.ID, pharmacie.ID, AnnonceInput{
		Title:    "Vaccin antigrippal",
		Price:    25,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.DeleteAnnonce(context.Background(), created.ID, pharmacie.ID))
	_, err = svc.GetAnnonceByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrAnnonceNotFound)
}

func TestAnnonceValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newAnnonceService(db)

	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	_, err := svc.CreateAnnonce(context.Background(), medecin.ID, AnnonceInput{Price: 10})
	assert.ErrorIs(t, err, ErrAnnonceInvalidInput, "title is required")

	_, err = svc.CreateAnnonce(context.Background(), medecin.ID, AnnonceInput{Title: "Promo", Price: -1})
	assert.ErrorIs(t, err, ErrAnnonceInvalidInput)

	_, err = svc.CreateAnnonce(context.Background(), medecin.ID, AnnonceInput{Title: "Promo", DiscountPercent: 101})
	assert.ErrorIs(t, err, ErrAnnonceInvalidInput)
}

func TestAnnonceOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := newAnnonceService(db)

	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)
	autre := createTestProfessional(t, db, "autre@example.com", models.RoleClinique)
	patient := createTestPatient(t, db, "patient@example.com")

	_, err := svc.CreateAnnonce(context.Background(), patient.ID, AnnonceInput{Title: "Promo"})
	assert.ErrorIs(t, err, ErrAnnonceForbidden, "only professionals publish annonces")

	annonce, err := svc.CreateAnnonce(context.Background(), medecin.ID, AnnonceInput{Title: "Promo", Price: 30})
	require.NoError(t, err)

	_, err = svc.UpdateAnnonce(context.Background(), annonce.ID, autre.ID, AnnonceInput{Title: "Promo volée"})
	assert.ErrorIs(t, err, ErrAnnonceForbidden)
	assert.ErrorIs(t, svc.DeleteAnnonce(context.Background(), annonce.ID, autre.ID), ErrAnnonceForbidden)
}

func TestGetActiveAnnoncesFiltersInactive(t *testing.T) {
	db := setupTestDB(t)
	svc := newAnnonceService(db)

	medecin := createTestProfessional(t, db, "medecin@example.com", models.RoleMedecin)

	_, err := svc.CreateAnnonce(context.Background(), medecin.ID, AnnonceInput{Title: "Visible", Price: 10})
	require.NoError(t, err)
	inactive := false
	_, err = svc.CreateAnnonce(context.Background(), medecin.ID, AnnonceInput{Title: "Cachée", Price: 10, IsActive: &inactive})
	require.NoError(t, err)

	params := queryparams.DefaultListParams("created_at")
	result, err := svc.GetActiveAnnonces(context.Background(), params)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Meta.TotalItems)

	mine, err := svc.GetAnnoncesForOwner(context.Background(), medecin.ID, params)
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Meta.TotalItems, "owners see inactive annonces too")
}
