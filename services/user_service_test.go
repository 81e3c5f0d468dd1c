package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tabib.link/models"
)

func TestRegisterPatient(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		Name:     "Marie Dupont",
		Email:    "Marie.Dupont@Example.com",
		Password: "motdepasse",
		Role:     models.RolePatient,
	})
	require.NoError(t, err)
	assert.Equal(t, "marie.dupont@example.com", user.Email, "email is normalized")
	assert.True(t, user.IsActive)
	assert.Nil(t, user.Profile, "patients carry no professional profile")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("motdepasse")))
}

func TestRegisterProfessionalCreatesProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		Name:     "Dr Martin",
		Email:    "dr.martin@example.com",
		Password: "motdepasse",
		Role:     models.RoleMedecin,
	})
	require.NoError(t, err)
	require.NotNil(t, user.Profile)
	assert.Equal(t, "09:00", user.Profile.WorkStart)
	assert.Equal(t, "17:00", user.Profile.WorkEnd)

	var count int64
	require.NoError(t, db.Model(&models.ProfessionalProfile{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)

	tests := []struct {
		name    string
		input   RegisterUserInput
		wantErr error
	}{
		{"empty name", RegisterUserInput{Email: "a@b.fr", Password: "motdepasse", Role: models.RolePatient}, ErrUserInvalidInput},
		{"bad email", RegisterUserInput{Name: "A", Email: "not-an-email", Password: "motdepasse", Role: models.RolePatient}, ErrUserInvalidInput},
		{"short password", RegisterUserInput{Name: "A", Email: "a@b.fr", Password: "court", Role: models.RolePatient}, ErrUserPasswordWeak},
		{"unknown role", RegisterUserInput{Name: "A", Email: "a@b.fr", Password: "motdepasse", Role: "sorcier"}, ErrUserInvalidRole},
		{"admin not self-servable", RegisterUserInput{Name: "A", Email: "a@b.fr", Password: "motdepasse", Role: models.RoleAdmin}, ErrUserInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)

	input := RegisterUserInput{Name: "A", Email: "dup@example.com", Password: "motdepasse", Role: models.RolePatient}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrUserEmailTaken)
}

func TestUpdateUserAuthorization(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)

	alice := createTestPatient(t, db, "alice@example.com")
	bob := createTestPatient(t, db, "bob@example.com")
	admin := models.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, db.Create(&admin).Error)

	_, err := svc.UpdateUser(context.Background(), alice.ID, bob.ID, UpdateUserInput{Name: "Hacked"})
	assert.ErrorIs(t, err, ErrUserForbidden)

	updated, err := svc.UpdateUser(context.Background(), alice.ID, alice.ID, UpdateUserInput{Name: "Alice B", Phone: "0601020304"})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, "0601020304", updated.Phone)

	_, err = svc.UpdateUser(context.Background(), alice.ID, admin.ID, UpdateUserInput{Name: "Alice C"})
	assert.NoError(t, err, "admins may edit anyone")
}

func TestDeleteUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newUserService(db)

	alice := createTestPatient(t, db, "alice@example.com")
	bob := createTestPatient(t, db, "bob@example.com")

	assert.ErrorIs(t, svc.DeleteUser(context.Background(), alice.ID, bob.ID), ErrUserForbidden)

	require.NoError(t, svc.DeleteUser(context.Background(), alice.ID, alice.ID))
	_, err := svc.GetUserByID(context.Background(), alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound, "soft-deleted rows are invisible")
}
