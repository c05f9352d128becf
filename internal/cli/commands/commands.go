package commands

import (
	"os"

	"github.com/spf13/cobra"

	"rfr/internal/cli"
	"rfr/internal/config"
	"rfr/internal/database"
	"rfr/internal/discovery"
	"rfr/internal/storage"
	"rfr/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Run     *RunCommand
	List    *ListCommand
	Migrate *MigrateCommand
	View    *ViewCommand

	db *database.Manager
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	// Initialize dependencies
	scanner := discovery.NewScanner(cfg.PathsToIgnore, cfg.SuiteSuffix)
	filter := discovery.NewFilter()
	dbManager := database.NewManager(cfg)
	loader := discovery.NewLoader(dbManager)
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg, os.Stdout)
	migrator := database.NewSQLMigrator(cfg.GetMigrationsPath(), dbManager)
	viewer := ui.NewReportViewer()

	return &Commands{
		Run:     NewRunCommand(cfg, scanner, filter, loader, jsonStorage, formatter, migrator, viewer),
		List:    NewListCommand(cfg, scanner, filter, loader, formatter),
		Migrate: NewMigrateCommand(cfg, migrator),
		View:    NewViewCommand(cfg, jsonStorage, viewer),
		db:      dbManager,
	}
}

// Close releases the database connection opened by sql steps, if any
func (c *Commands) Close() error {
	return c.db.Close()
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	// Update config with flags after parsing
	applyFlags := func(cmd *cobra.Command, args []string) error {
		return cfg.Apply(flags.ToConfigFlags())
	}

	// Run command
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Run test suites",
		Long:    "Discover suite files, run every suite sequentially and save the report",
		RunE:    c.Run.Execute,
		PreRunE: applyFlags,
	}
	runCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where suite detection should start")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter suite files by name pattern (supports wildcards, e.g., '*math*')")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Default timeout for every test and hook (default 5s)")
	runCmd.Flags().BoolVarP(&flags.Migrate, "migrate", "m", false, "Apply database migrations before running suites")
	runCmd.Flags().BoolVar(&flags.Open, "open", false, "Open the report viewer when the run finishes")
	runCmd.Flags().BoolVar(&flags.NoProgress, "no-progress", false, "Disable the progress bar")
	runCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log suite and hook activity to stderr")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered suites",
		Long:    "Scan and list suite files, or their declared tests, without executing them",
		RunE:    c.List.Execute,
		PreRunE: applyFlags,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter suite files by name pattern (supports wildcards, e.g., '*math*')")
	listCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where suite detection should start")
	listCmd.Flags().BoolVarP(&flags.Tree, "tree", "c", false, "List declared suites and tests instead of suite files")
	rootCmd.AddCommand(listCmd)

	// Migrate command
	migrateCmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Prepare the test database",
		Long:    "Create the configured database if needed and apply the .sql files of the migrations directory",
		RunE:    c.Migrate.Execute,
		PreRunE: applyFlags,
	}
	rootCmd.AddCommand(migrateCmd)

	// View command
	viewCmd := &cobra.Command{
		Use:     "view",
		Short:   "View the last report interactively",
		Long:    "Display the suites, tests and failures of the last run in an interactive viewer",
		RunE:    c.View.Execute,
		PreRunE: applyFlags,
	}
	rootCmd.AddCommand(viewCmd)
}
