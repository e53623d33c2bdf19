package app

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "tutoring_bot"

// BuildLogger логгер бота для окружения env.
// Каждая запись несёт поля service и env.
func BuildLogger(env string) (*zap.Logger, error) {
	logger, err := loggerConfig(env).Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// loggerConfig production: JSON без сэмплирования (события оплаты не должны теряться),
// остальные окружения: консоль с цветными уровнями и debug
func loggerConfig(env string) zap.Config {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.InitialFields = map[string]any{
		"service": serviceName,
		"env":     env,
	}
	return cfg
}
