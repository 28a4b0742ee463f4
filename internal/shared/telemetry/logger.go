package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetOutput(os.Stdout)
}

// SetOutput replaces the log destination. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "ts"
				a.Value = slog.StringValue(a.Value.Time().UTC().Format("2006-01-02T15:04:05Z07:00"))
			case slog.LevelKey:
				a.Value = slog.StringValue(levelName(a.Value.Any()))
			}
			return a
		},
	})
	logger.Store(slog.New(handler))
}

// Logger returns the shared structured logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(slog.LevelInfo, msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(slog.LevelWarn, msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(slog.LevelError, msg, fields)
}

func write(level slog.Level, msg string, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	Logger().LogAttrs(context.Background(), level, msg, attrs...)
}

func levelName(v any) string {
	lvl, ok := v.(slog.Level)
	if !ok {
		return "info"
	}
	switch {
	case lvl >= slog.LevelError:
		return "error"
	case lvl >= slog.LevelWarn:
		return "warn"
	case lvl >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
