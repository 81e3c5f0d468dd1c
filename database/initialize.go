package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs/configslog"
	"tabib.link/database/migrations"
	"tabib.link/database/seeders"
)

// Initialize runs migrations and/or seeders inside a single transaction so
// a partial schema never reaches a live database.
func Initialize(db *gorm.DB, migrate bool, seed bool) {
	if !migrate && !seed {
		configslog.SLog.Info("Neither -migrate nor -seed given, nothing to do")
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		configslog.Log.Fatal("Failed to begin database transaction", zap.Error(tx.Error))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			configslog.Log.Fatal("Database initialization panicked", zap.Any("panic_info", r))
		} else if err := tx.Error; err != nil && err != gorm.ErrInvalidTransaction {
			configslog.SLog.Warn("Rolling back after initialization error", zap.Error(err))
			rbErr := tx.Rollback().Error
			if rbErr != nil && rbErr != gorm.ErrInvalidTransaction {
				configslog.Log.Error("Rollback itself failed", zap.Error(rbErr))
			}
		}
	}()

	configslog.SLog.Info("Database initialization starting...")

	if migrate {
		configslog.SLog.Info("Running migrations...")
		if err := RunMigrationsInOrder(tx); err != nil {
			configslog.Log.Error("Migration failed", zap.Error(err))
			return
		}
		configslog.SLog.Info("Migrations complete")
	}

	if seed {
		configslog.SLog.Info("Running seeders...")
		if err := CheckAndRunSeeders(tx); err != nil {
			configslog.Log.Error("Seeding failed", zap.Error(err))
			return
		}
		configslog.SLog.Info("Seeders complete")
	}

	if err := tx.Commit().Error; err != nil {
		tx.Error = err
		configslog.Log.Error("Commit failed", zap.Error(err))
		return
	}

	configslog.SLog.Info("Database initialization finished successfully")
}

// RunMigrationsInOrder migrates tables parents-first so foreign keys always
// have a target.
func RunMigrationsInOrder(db *gorm.DB) error {
	steps := []struct {
		name string
		run  func(*gorm.DB) error
	}{
		{"users", migrations.MigrateUsersTable},
		{"professional profiles", migrations.MigrateProfilesTable},
		{"annonces", migrations.MigrateAnnoncesTable},
		{"rendez-vous", migrations.MigrateRdvsTable},
		{"subscriptions", migrations.MigrateSubscriptionTables},
		{"notifications", migrations.MigrateNotificationsTable},
	}
	for _, step := range steps {
		configslog.SLog.Infof(" -> Migrating %s...", step.name)
		if err := step.run(db); err != nil {
			configslog.Log.Error("Migration step failed",
				zap.String("step", step.name), zap.Error(err))
			return err
		}
	}
	configslog.SLog.Info("All migrations ran successfully")
	return nil
}

// CheckAndRunSeeders runs the idempotent seeders: the system admin account
// and the subscription plan catalogue.
func CheckAndRunSeeders(db *gorm.DB) error {
	configslog.SLog.Info("Checking/creating system user...")
	if err := seeders.SeedSystemUser(db); err != nil {
		configslog.Log.Error("System user seeding failed", zap.Error(err))
		return err
	}

	configslog.SLog.Info(" -> Running plan seeder...")
	if err := seeders.SeedPlans(db); err != nil {
		configslog.Log.Error("Subscription plan seeding failed", zap.Error(err))
		return err
	}

	configslog.SLog.Info("All seeders checked/ran successfully")
	return nil
}
