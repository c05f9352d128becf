package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Migrator prepares the database before suites run
type Migrator interface {
	Run(ctx context.Context) error
}

// Execer runs a statement that returns no rows
type Execer interface {
	Exec(ctx context.Context, query string) error
}

// SQLMigrator applies every .sql file of a directory in lexical order.
// Each file is sent as one multi-statement query.
type SQLMigrator struct {
	dir    string
	db     Execer
	ensure func(ctx context.Context) (bool, error)
	out    io.Writer
}

// NewSQLMigrator creates a migrator for the .sql files in dir. The database is
// created first when it does not exist yet.
func NewSQLMigrator(dir string, manager *Manager) *SQLMigrator {
	return &SQLMigrator{
		dir:    dir,
		db:     manager,
		ensure: manager.EnsureDatabase,
		out:    os.Stderr,
	}
}

// Run executes the migration files and reports progress on stderr
func (sm *SQLMigrator) Run(ctx context.Context) error {
	color.Cyan("\n╔════════════════════════════════════════════════════════════╗")
	color.Cyan("║               Running Database Migrations                  ║")
	color.Cyan("╚════════════════════════════════════════════════════════════╝\n")

	if sm.ensure != nil {
		created, err := sm.ensure(ctx)
		if err != nil {
			return fmt.Errorf("failed to check database: %w", err)
		}
		if created {
			color.White("Database created\n")
		}
	}

	files, err := FindMigrationFiles(sm.dir)
	if err != nil {
		return fmt.Errorf("failed to find migration files: %w", err)
	}
	color.White("Migration files: %d\n\n", len(files))
	if len(files) == 0 {
		return nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription(color.CyanString("Migrating: ")),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(sm.out),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(sm.out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	startTime := time.Now()
	for _, file := range files {
		bar.Describe(color.CyanString("Migrating: ") + filepath.Base(file))
		if err := sm.apply(ctx, file); err != nil {
			bar.Exit()
			color.Red("✗ Migration failed: %v\n", err)
			return err
		}
		bar.Add(1)
	}
	bar.Finish()

	color.Green("✓ Migrations completed successfully (%d files)\n", len(files))
	color.White("Duration: %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

func (sm *SQLMigrator) apply(ctx context.Context, file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	query := strings.TrimSpace(string(content))
	if query == "" {
		return nil
	}
	if err := sm.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(file), err)
	}
	return nil
}

// FindMigrationFiles returns the .sql files directly inside dir, sorted by name.
// A missing directory yields no files.
func FindMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
