package migrations

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs/configslog"
	"tabib.link/models"
)

// MigrateSubscriptionTables migrates the plan table first so the
// subscription and family-member foreign keys have a target.
func MigrateSubscriptionTables(db *gorm.DB) error {
	configslog.SLog.Info("Migrating subscription tables...")
	err := db.AutoMigrate(
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.FamilyMember{},
	)
	if err != nil {
		configslog.Log.Error("Failed to migrate subscription tables", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Subscription tables migrated successfully")
	return nil
}
