package migrations

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs/configslog"
	"tabib.link/models"
)

func MigrateRdvsTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating rendez_vous table...")
	err := db.AutoMigrate(&models.RendezVous{})
	if err != nil {
		configslog.Log.Error("Failed to migrate rendez_vous table", zap.Error(err))
		return err
	}

	// AutoMigrate creates tagged indexes on fresh tables; guard for schemas
	// created before the composite index existed.
	migrator := db.Migrator()
	if !migrator.HasIndex(&models.RendezVous{}, "idx_rdv_professional_time") {
		if err := migrator.CreateIndex(&models.RendezVous{}, "idx_rdv_professional_time"); err != nil {
			configslog.Log.Error("Failed to create rendez_vous composite index", zap.Error(err))
			return err
		}
	}

	configslog.SLog.Info("Rendez-vous table migrated successfully")
	return nil
}
