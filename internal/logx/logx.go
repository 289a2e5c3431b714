// Package logx holds shared logging plumbing.
package logx

import (
	"context"
	"log/slog"
)

// Discard returns a logger that drops every record. Packages stay silent
// unless a caller installs a real logger.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
