// Package logging builds the runlens logger and carries it through
// contexts. Every package logs through [log/slog]; components tag their
// records with a "component" attribute.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/runlens/internal/config"
)

type ctxKey struct{}

// Setup builds the logger described by cfg on stderr and makes it the
// slog default.
func Setup(cfg *config.Config) *slog.Logger {
	logger := New(os.Stderr, cfg.EffectiveLogLevel(), cfg.LogFormat)
	slog.SetDefault(logger)

	return logger
}

// New returns a logger writing records at level and above to w, as JSON
// when format is "json" and as logfmt-style text otherwise.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a level name onto slog.Level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}

	return lvl
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the context logger, or slog.Default() when ctx
// carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, _ := ctx.Value(ctxKey{}).(*slog.Logger); logger != nil {
		return logger
	}

	return slog.Default()
}

// Component returns the context logger tagged with a component name.
func Component(ctx context.Context, name string) *slog.Logger {
	return FromContext(ctx).With(slog.String("component", name))
}
