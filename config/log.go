package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig ...
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// NewLogger builds a production logger, or a development one for the console format
func NewLogger(conf LogConfig) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(conf.Level)); err != nil {
		panic(err)
	}

	zapConf := zap.NewProductionConfig()
	if conf.Format == "console" {
		zapConf = zap.NewDevelopmentConfig()
	}
	zapConf.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConf.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
