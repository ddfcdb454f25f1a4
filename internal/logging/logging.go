// Package logging wraps zerolog behind the same Debug/Info/Error
// call-site shape the teacher's pkg/logger used, so call sites read
// identically while gaining structured, leveled output. Level is
// "debug", "info", or "error" (default info), normally sourced from
// config.Config.LogLevel.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a thin facade over zerolog.Logger exposing printf-style
// Debug/Info/Error, matching the teacher's pkg/logger call sites.
type Logger struct {
	z zerolog.Logger
}

var std = New(os.Stderr, "info")

// New builds a Logger writing to w at the given level ("debug", "info",
// or "error"; anything else falls back to "info").
func New(w io.Writer, level string) *Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	z := zerolog.New(console).With().Timestamp().Logger().Level(parseLevel(level))
	return &Logger{z: z}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init re-points the package-level default logger at level.
func Init(level string) {
	std = New(os.Stderr, strings.ToLower(level))
}

// With returns a child logger carrying structured fields, e.g.
// logging.Default().With("editorId", id).Info("applied op")
func (l *Logger) With(kv ...any) *Logger {
	ctx := l.z.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		ctx = ctx.Interface(key, kv[i+1])
	}
	return &Logger{z: ctx.Logger()}
}

func (l *Logger) Debug(format string, v ...any) { l.z.Debug().Msgf(format, v...) }
func (l *Logger) Info(format string, v ...any)   { l.z.Info().Msgf(format, v...) }
func (l *Logger) Error(format string, v ...any)  { l.z.Error().Msgf(format, v...) }

// Default returns the package-level logger cmd/server and internal
// packages log through when no explicit Logger is threaded in.
func Default() *Logger { return std }

func Debug(format string, v ...any) { std.Debug(format, v...) }
func Info(format string, v ...any)  { std.Info(format, v...) }
func Error(format string, v ...any) { std.Error(format, v...) }
