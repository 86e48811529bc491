package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"mpi-linkage/internal/app/config"
)

var Module = fx.Options(
	fx.Provide(NewZapLogger),
	fx.Provide(NewMiddleware),
)

// NewZapLogger construit le logger structuré unique du processus, en mode
// développement (console, coloré) ou production (JSON) selon l'environnement.
func NewZapLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.GetLogging().Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var zapCfg zap.Config
	if cfg.Environment == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

func NewMiddleware(log *zap.Logger) *LoggerMiddleware {
	return &LoggerMiddleware{log: log}
}
