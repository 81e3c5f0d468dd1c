package configslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the structured logger, SLog its sugared counterpart.
// Both are set by InitLogger and safe to use from any package afterwards.
var (
	Log  *zap.Logger
	SLog *zap.SugaredLogger
)

// InitLogger configures the global zap loggers. Level comes from LOG_LEVEL
// (debug|info|warn|error), output format from APP_ENV (console in development).
func InitLogger() {
	level := zapcore.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zapcore.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	var cfg zap.Config
	if os.Getenv("APP_ENV") == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		panic("logger could not be initialized: " + err.Error())
	}

	Log = logger
	SLog = logger.Sugar()
}

// SyncLogger flushes buffered log entries. Call it via defer from main.
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
