package cli

import (
	"io"
	"log/slog"
	"time"

	"rfr/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	TestPath   string
	NameFilter string
	Timeout    time.Duration
	Open       bool
	NoProgress bool
	Verbose    bool
	Migrate    bool
	Tree       bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		TestPath:   f.TestPath,
		NameFilter: f.NameFilter,
		Timeout:    f.Timeout,
		Open:       f.Open,
		NoProgress: f.NoProgress,
		Verbose:    f.Verbose,
		Migrate:    f.Migrate,
		Tree:       f.Tree,
	}
}

// NewLogger returns a text logger for diagnostics. Only warnings are shown
// unless verbose is set.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
