package migrations

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs/configslog"
	"tabib.link/models"
)

func MigrateNotificationsTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating notifications table...")
	err := db.AutoMigrate(&models.Notification{})
	if err != nil {
		configslog.Log.Error("Failed to migrate notifications table", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Notifications table migrated successfully")
	return nil
}
