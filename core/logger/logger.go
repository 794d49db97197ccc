// Package logger configures the process-wide structured logger and exposes
// per-component slog loggers plus context helpers for request correlation.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	initOnce sync.Once

	levelVar slog.LevelVar

	// L is the base logger; component loggers below derive from it.
	L *slog.Logger

	// TG logs Telegram transport events.
	TG *slog.Logger
	// DB logs database events.
	DB *slog.Logger
	// MIG logs migration events.
	MIG *slog.Logger
	// REG logs registration flow events.
	REG *slog.Logger
	// ROUTE logs update routing decisions.
	ROUTE *slog.Logger
)

func init() {
	// Safe defaults so components log before Init runs (tests, early boot).
	levelVar.Set(slog.LevelInfo)
	L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &levelVar}))
	wireComponents()
}

// Options selects log output format and verbosity.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Out    io.Writer
}

// Init configures the global structured logger. Subsequent calls are no-ops.
func Init(opts Options) {
	initOnce.Do(func() {
		levelVar.Set(parseLevel(opts.Level))

		out := opts.Out
		if out == nil {
			out = os.Stderr
		}

		var handler slog.Handler
		switch strings.ToLower(strings.TrimSpace(opts.Format)) {
		case "json":
			handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: &levelVar})
		default:
			handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: &levelVar})
		}

		L = slog.New(handler)
		slog.SetDefault(L)
		wireComponents()
	})
}

func wireComponents() {
	TG = L.With("component", "tg")
	DB = L.With("component", "db")
	MIG = L.With("component", "db.migrate")
	REG = L.With("component", "registration")
	ROUTE = L.With("component", "router")
}

// SetLevel adjusts verbosity at runtime.
func SetLevel(level string) {
	levelVar.Set(parseLevel(level))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Sanitize trims a string for logging, cutting it to max runes.
func Sanitize(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max] + "..."
	}
	return s
}
