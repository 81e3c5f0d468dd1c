package migrations

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs/configslog"
	"tabib.link/models"
)

func MigrateProfilesTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating professional_profiles table...")
	err := db.AutoMigrate(&models.ProfessionalProfile{})
	if err != nil {
		configslog.Log.Error("Failed to migrate professional_profiles table", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Professional profiles table migrated successfully")
	return nil
}
