// Package logging builds the structured logger shared by the server, the
// task queue and the CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mrlokans/library-manager/internal/config"
)

// New creates a [log.Logger] writing to w with timestamps enabled.
//
// The writer defaults to [os.Stderr]. Unknown levels fall back to info.
func New(w io.Writer, cfg config.Log) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{
		ReportTimestamp: true,
		ReportCaller:    strings.EqualFold(cfg.Level, "debug"),
		Level:           ParseLevel(cfg.Level),
	}
	if strings.EqualFold(cfg.Format, "json") {
		opts.Formatter = log.JSONFormatter
	}
	return log.NewWithOptions(w, opts)
}

// ParseLevel maps a config string to a [log.Level].
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// With creates a child logger with the given key-value pairs added to all entries.
func With(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
