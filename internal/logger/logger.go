// Package logger builds the structured JSON logger shared by both services.
//
// Every entry is a single JSON object per line with "ts", "level" and "msg"
// keys. Timestamps are RFC3339Nano in the configured location.
package logger

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to stdout.
func New(level string, loc *time.Location) *zap.Logger {
	return NewWithWriter(os.Stdout, level, loc)
}

// NewWithWriter returns a JSON logger writing to w. Unknown levels fall back to info.
func NewWithWriter(w io.Writer, level string, loc *time.Location) *zap.Logger {
	if loc == nil {
		loc = time.UTC
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "",
		StacktraceKey:  "",
		NameKey:        "component",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.In(loc).Format(time.RFC3339Nano))
		},
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core)
}
