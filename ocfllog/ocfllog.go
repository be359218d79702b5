// Package ocfllog provides the module's default structured logger: a
// log/slog.Logger that is disabled unless the embedding program opts in.
package ocfllog

import (
	"context"
	"log/slog"
	"os"
)

var (
	defaultLevel   slog.LevelVar
	defaultHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &defaultLevel})
	defaultLogger  = slog.New(defaultHandler)
	disabledLogger = slog.New(&disabledHandler{})
)

type disabledHandler struct{}

func (disabledHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (disabledHandler) Handle(context.Context, slog.Record) error { return nil }
func (d disabledHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d disabledHandler) WithGroup(string) slog.Handler           { return d }

// Default returns the module's default logger, writing text to stderr at
// the level set by SetLevel (info, by default).
func Default() *slog.Logger { return defaultLogger }

// SetLevel sets the level for the logger returned by Default.
func SetLevel(l slog.Level) { defaultLevel.Set(l) }

// Disabled returns a logger that discards everything. Repository methods
// use this when the caller supplies no logger.
func Disabled() *slog.Logger { return disabledLogger }

// OrDisabled returns l, or Disabled() if l is nil.
func OrDisabled(l *slog.Logger) *slog.Logger {
	if l == nil {
		return disabledLogger
	}
	return l
}
