package errors

import (
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger is the structured JSON logger used across the application
type Logger struct {
	logger *slog.Logger
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// New returns a stdout logger for a level name: debug, info, warn or error
func New(level string) (*Logger, error) {
	l, ok := levels[level]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	return NewLogger(l), nil
}

// NewLogger returns a JSON logger writing to stdout
func NewLogger(level slog.Level) *Logger {
	return newJSONLogger(os.Stdout, level)
}

func newJSONLogger(w io.Writer, level slog.Level) *Logger {
	return &Logger{logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))}
}

// LogError logs err at error level. An AppError in the chain contributes its
// type, code, message, cause and context as attributes.
func (l *Logger) LogError(err error, message string, args ...any) {
	l.logger.Error(message, append(errorAttrs(err), args...)...)
}

func errorAttrs(err error) []any {
	var appErr *AppError
	if !stdErrors.As(err, &appErr) {
		return []any{"error", err.Error()}
	}

	attrs := make([]any, 0, 8+2*len(appErr.Context))
	attrs = append(attrs,
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message)
	if appErr.Cause != nil {
		attrs = append(attrs, "cause", appErr.Cause.Error())
	}
	for key, value := range appErr.Context {
		attrs = append(attrs, key, value)
	}
	return attrs
}

func (l *Logger) Info(message string, args ...any)  { l.logger.Info(message, args...) }
func (l *Logger) Debug(message string, args ...any) { l.logger.Debug(message, args...) }
func (l *Logger) Warn(message string, args ...any)  { l.logger.Warn(message, args...) }

// With returns a logger that adds args to every record
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}
