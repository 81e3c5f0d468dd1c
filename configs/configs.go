package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"tabib.link/configs/configsdatabase"
)

// AppConfig holds everything the application reads from the environment.
type AppConfig struct {
	Env        string
	ListenAddr string

	// Payment provider boundary.
	PaymentAPIBaseURL    string
	PaymentSecretKey     string
	PaymentWebhookSecret string

	// Booking slot length used by the availability check.
	SlotLength time.Duration
}

var app AppConfig

// Load reads .env (if present) and the process environment into AppConfig.
func Load() AppConfig {
	_ = godotenv.Load()

	app = AppConfig{
		Env:                  getEnv("APP_ENV", "production"),
		ListenAddr:           getEnv("LISTEN_ADDR", ":3000"),
		PaymentAPIBaseURL:    getEnv("PAYMENT_API_BASE_URL", "https://api.payment.example"),
		PaymentSecretKey:     os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		SlotLength:           slotLengthFromEnv(),
	}
	return app
}

// Get returns the loaded configuration.
func Get() AppConfig { return app }

// GetDB is a convenience forward kept so callers outside the configs tree do
// not have to import configsdatabase directly.
func GetDB() *gorm.DB { return configsdatabase.GetDB() }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func slotLengthFromEnv() time.Duration {
	minutes := 30
	if raw := os.Getenv("SLOT_LENGTH_MINUTES"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			minutes = parsed
		}
	}
	return time.Duration(minutes) * time.Minute
}
