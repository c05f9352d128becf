package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"rfr/internal/cli"
	"rfr/internal/cli/commands"
	"rfr/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "rfr",
		Short:         "Hierarchical test suite runner",
		Long:          `Runs suites of shell and SQL checks declared in YAML files. Suites nest, share before/after hooks, and produce a JSON report with pass, fail, skip and pending counts for every level.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)
	defer cmds.Close()

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Execute root command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, commands.ErrTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		cmds.Close()
		os.Exit(1)
	}
}
