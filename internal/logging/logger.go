package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a rotating file logger. An empty directory falls back to
// stderr-only output, which is what we want inside Lambda.
func NewLogger(logsDirectory string) (*zap.Logger, error) {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	if logsDirectory == "" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig = encoderCfg
		return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	}

	runTimestamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	logFile := fmt.Sprintf("%v/courier-sync-%s.log", logsDirectory, runTimestamp)

	lumberjackLogger := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // MB before it rolls
		MaxBackups: 7,
		MaxAge:     30, // days
		Compress:   true,
	}

	writeSyncer := zapcore.AddSync(lumberjackLogger)
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	core := zapcore.NewCore(encoder, writeSyncer, zap.InfoLevel)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return logger, nil
}
