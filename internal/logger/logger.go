package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"cofound/internal/config"
)

// New builds the process logger. Development uses the console encoder; a
// configured LOG_FILE is written through lumberjack in addition to stdout.
func New(env string, cfg config.LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(cfg.Level)))); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	var zcfg zap.Config
	if env == "development" {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "ts"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = level

	if strings.TrimSpace(cfg.File) == "" {
		return zcfg.Build()
	}

	var enc zapcore.Encoder
	if env == "development" {
		enc = zapcore.NewConsoleEncoder(zcfg.EncoderConfig)
	} else {
		enc = zapcore.NewJSONEncoder(zcfg.EncoderConfig)
	}
	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(zcfg.EncoderConfig), rotating, level),
	)
	return zap.New(core, zap.AddCaller()), nil
}
