// Package monitoring implements the observability backends: the zap logger,
// Prometheus metrics, and OpenTelemetry tracing.
package monitoring

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/logger"
)

// ZapLogger implements logger.Logger on top of zap.
type ZapLogger struct {
	zl *zap.Logger
}

// NewLogger builds a zap-backed logger from the log configuration. Format
// "console" selects the development encoder; anything else emits JSON.
func NewLogger(cfg *config.LogConfig) (logger.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink := zapcore.AddSync(os.Stdout)
	if cfg.OutputPath != "" && cfg.OutputPath != "stdout" {
		f, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		sink = zapcore.AddSync(f)
	}

	core := zapcore.NewCore(encoder, sink, level)
	return &ZapLogger{zl: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}, nil
}

func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...logger.Fields) {
	l.zl.Debug(msg, l.zapFields(ctx, nil, fields)...)
}

func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...logger.Fields) {
	l.zl.Info(msg, l.zapFields(ctx, nil, fields)...)
}

func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...logger.Fields) {
	l.zl.Warn(msg, l.zapFields(ctx, nil, fields)...)
}

func (l *ZapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Fields) {
	l.zl.Error(msg, l.zapFields(ctx, err, fields)...)
}

func (l *ZapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Fields) {
	l.zl.Fatal(msg, l.zapFields(ctx, err, fields)...)
}

func (l *ZapLogger) WithFields(fields logger.Fields) logger.Logger {
	zfs := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zfs = append(zfs, zap.Any(k, v))
	}
	return &ZapLogger{zl: l.zl.With(zfs...)}
}

func (l *ZapLogger) ForContext(ctx context.Context) logger.Logger {
	if ctxLogger, ok := ctx.Value(constants.ContextKeyLogger).(logger.Logger); ok {
		return ctxLogger
	}
	return l
}

func (l *ZapLogger) zapFields(ctx context.Context, err error, fieldSets []logger.Fields) []zap.Field {
	zfs := make([]zap.Field, 0, 8)
	if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && requestID != "" {
		zfs = append(zfs, zap.String("request_id", requestID))
	}
	if traceID, ok := ctx.Value(constants.ContextKeyTraceID).(string); ok && traceID != "" {
		zfs = append(zfs, zap.String("trace_id", traceID))
	}
	if operatorID, ok := ctx.Value(constants.ContextKeyOperatorID).(int64); ok {
		zfs = append(zfs, zap.Int64("operator_id", operatorID))
	}
	if err != nil {
		zfs = append(zfs, zap.Error(err))
	}
	for _, fs := range fieldSets {
		for k, v := range fs {
			zfs = append(zfs, zap.Any(k, v))
		}
	}
	return zfs
}

var _ logger.Logger = (*ZapLogger)(nil)
