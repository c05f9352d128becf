package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rfr/internal/cli"
	"rfr/internal/config"
	"rfr/internal/database"
	"rfr/internal/discovery"
	"rfr/internal/engine"
	"rfr/internal/storage"
	"rfr/internal/ui"
)

// ErrTestsFailed is returned by run when at least one test or suite failed.
var ErrTestsFailed = errors.New("tests failed")

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	loader    *discovery.Loader
	storage   storage.Storage
	formatter *ui.Formatter
	migrator  database.Migrator
	viewer    ui.Viewer
	stderr    io.Writer
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	loader *discovery.Loader,
	st storage.Storage,
	formatter *ui.Formatter,
	migrator database.Migrator,
	viewer ui.Viewer,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		loader:    loader,
		storage:   st,
		formatter: formatter,
		migrator:  migrator,
		viewer:    viewer,
		stderr:    os.Stderr,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := rc.config.Flags

	// Run migrations if flag is set
	if flags.Migrate {
		if err := rc.migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(rc.stderr)
	}

	// Discover suites
	testPath := rc.config.GetTestPath()
	files, err := rc.scanner.Scan(testPath)
	if err != nil {
		return err
	}

	// Filter suites
	files = rc.filter.FilterByName(files, flags.NameFilter)

	if len(files) == 0 {
		color.Yellow("No suites to execute")
		return nil
	}

	opts := []engine.RunnerOption{
		engine.WithTitle(filepath.Base(testPath)),
		engine.WithTimeout(rc.config.Timeout),
		engine.WithLogger(cli.NewLogger(rc.stderr, flags.Verbose)),
	}
	var progressBar *ui.ProgressBar
	if !flags.NoProgress {
		progressBar = ui.NewProgressBar(len(files), rc.stderr)
		opts = append(opts, engine.WithListener(progressBar))
	}

	runner := engine.NewRunner(opts...)
	if _, err := rc.loader.Load(runner, files); err != nil {
		return err
	}

	report, runErr := runner.Run(ctx)
	if progressBar != nil {
		progressBar.Finish()
	}
	if report == nil {
		return runErr
	}

	// Save results
	if err := rc.storage.Save(report); err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}

	rc.formatter.PrintStats(report)

	if flags.Open && rc.viewer != nil {
		if err := rc.viewer.View(report); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if report.HasFailures() {
		return ErrTestsFailed
	}
	return nil
}
