package configsdatabase

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tabib.link/configs/configslog"
)

var db *gorm.DB

// InitDB opens the Postgres connection pool described by DATABASE_URL
// (or the discrete DB_* variables) and keeps it in the package singleton.
func InitDB() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "tabib"),
			os.Getenv("DB_PASSWORD"),
			getEnv("DB_NAME", "tabib"),
			getEnv("DB_SSLMODE", "disable"),
			getEnv("DB_TIMEZONE", "UTC"),
		)
	}

	gormLogLevel := gormlogger.Warn
	if os.Getenv("APP_ENV") == "development" {
		gormLogLevel = gormlogger.Info
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		configslog.Log.Fatal("database connection failed", zap.Error(err))
	}

	sqlDB, err := conn.DB()
	if err != nil {
		configslog.Log.Fatal("database handle could not be obtained", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db = conn
	configslog.SLog.Info("database connection established")
}

// GetDB returns the shared *gorm.DB. InitDB must have been called first.
func GetDB() *gorm.DB { return db }

// CloseDB closes the underlying connection pool.
func CloseDB() {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		configslog.Log.Error("database handle could not be obtained on close", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		configslog.Log.Error("database close failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
