// Package logging builds the logr.Logger used by every component.
package logging

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp that starts every log line.
const TimeLayout = "2006-01-02 15:04:05"

// New returns a logger that writes one plain line per entry to w:
//
//	2026-10-16 12:00:00 -- Updating a: OK -- {"host": "a", "result": "OK"}
//
// verbosity enables logr V-levels up to and including its value.
func New(w io.Writer, verbosity int) logr.Logger {
	if verbosity < 0 {
		verbosity = 0
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " -- ",
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapcore.Level(-verbosity)),
	)
	return zapr.NewLogger(zap.New(core))
}
