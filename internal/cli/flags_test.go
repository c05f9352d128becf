package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rfr/internal/config"
)

func TestFlags_ToConfigFlags(t *testing.T) {
	flags := Flags{
		TestPath:   "suites",
		NameFilter: "*math*",
		Timeout:    3 * time.Second,
		Open:       true,
		NoProgress: true,
		Verbose:    true,
		Migrate:    true,
		Tree:       true,
	}

	assert.Equal(t, config.Flags{
		TestPath:   "suites",
		NameFilter: "*math*",
		Timeout:    3 * time.Second,
		Open:       true,
		NoProgress: true,
		Verbose:    true,
		Migrate:    true,
		Tree:       true,
	}, flags.ToConfigFlags())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	quiet := NewLogger(&buf, false)
	assert.False(t, quiet.Enabled(ctx, slog.LevelDebug))
	assert.True(t, quiet.Enabled(ctx, slog.LevelWarn))

	verbose := NewLogger(&buf, true)
	assert.True(t, verbose.Enabled(ctx, slog.LevelDebug))

	verbose.Debug("Suite started", "suite", "Math")
	assert.Contains(t, buf.String(), "suite=Math")
}
