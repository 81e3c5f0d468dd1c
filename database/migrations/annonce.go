package migrations

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs/configslog"
	"tabib.link/models"
)

func MigrateAnnoncesTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating annonces table...")
	err := db.AutoMigrate(&models.Annonce{})
	if err != nil {
		configslog.Log.Error("Failed to migrate annonces table", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Annonces table migrated successfully")
	return nil
}
