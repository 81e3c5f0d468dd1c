package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tabib.link/configs/configslog"
	"tabib.link/models"
)

var testDBCounter int64

// setupTestDB opens a private in-memory database with the full schema.
// cache=shared keeps the database alive across the pool's connections.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	configslog.InitLogger()

	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared",
		atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ProfessionalProfile{},
		&models.Annonce{},
		&models.RendezVous{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.FamilyMember{},
		&models.Notification{},
	))
	return db
}

func createTestPatient(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{
		Name:         "Test Patient",
		Email:        email,
		PasswordHash: "x",
		Role:         models.RolePatient,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestProfessional(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	user := models.User{
		Name:         "Test Professional",
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	profile := models.ProfessionalProfile{
		UserID:    user.ID,
		Specialty: "generaliste",
		City:      "Paris",
		WorkStart: "09:00",
		WorkEnd:   "17:00",
	}
	require.NoError(t, db.Create(&profile).Error)
	return &user
}

// nextWorkdaySlot returns a future timestamp guaranteed to fall inside the
// default 09:00-17:00 window.
func nextWorkdaySlot(daysAhead int, hour, minute int) time.Time {
	day := time.Now().AddDate(0, 0, daysAhead)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
}
