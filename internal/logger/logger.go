package logger

import (
	"go.uber.org/zap"

	"github.com/aliskhannn/vc-progress/internal/config"
)

const serviceName = "vc-progress"

// New builds the root logger. Production gets JSON output at info level,
// tests get a no-op logger and every other env logs to the console at debug.
func New(cfg *config.Config) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)

	switch cfg.Env {
	case "production":
		log, err = zap.NewProduction()
	case "test":
		return zap.NewNop(), nil
	default:
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	return log.With(
		zap.String("service", serviceName),
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage),
	), nil
}
