// Package logger provides a convenience function to constructing a logger
// for use. This is required not just for applications but for testing.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation describes the optional log file written alongside stdout.
type Rotation struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New constructs a Sugared Logger that writes to stdout and provides human
// readable timestamps. When a rotation file is provided the same entries are
// also written to that file and rotated.
func New(service string, rot Rotation) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]any{
		"service": service,
	}

	var opts []zap.Option
	if rot.File != "" {
		file := zapcore.NewCore(
			zapcore.NewJSONEncoder(config.EncoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   rot.File,
				MaxSize:    rot.MaxSizeMB,
				MaxBackups: rot.MaxBackups,
				MaxAge:     rot.MaxAgeDays,
				Compress:   rot.Compress,
			}),
			config.Level,
		)

		// InitialFields are bound to the stdout core before WrapCore runs.
		file = file.With([]zapcore.Field{zap.String("service", service)})

		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, file)
		}))
	}

	log, err := config.Build(opts...)
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}
