package seeders

import (
	"errors"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tabib.link/configs/configslog"
	"tabib.link/models"
)

// SeedSystemUser creates the platform admin account if it does not exist.
// Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD; the account is marked
// IsSystem so it cannot be deleted through the API.
func SeedSystemUser(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@tabib.link"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "change-me-now"
		configslog.SLog.Warn("ADMIN_PASSWORD not set, seeding admin with the default password")
	}

	var existing models.User
	result := db.Where("email = ?", email).First(&existing)
	if result.Error == nil {
		configslog.SLog.Debugf("System user '%s' already exists, skipping", email)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		configslog.Log.Error("Failed to check system user", zap.Error(result.Error))
		return result.Error
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		configslog.Log.Error("Failed to hash system user password", zap.Error(err))
		return err
	}

	admin := models.User{
		Name:         "System Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
		IsSystem:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		configslog.Log.Error("Failed to create system user", zap.Error(err))
		return err
	}

	configslog.SLog.Infof("System user '%s' created (ID: %d)", email, admin.ID)
	return nil
}
