package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultTestPath is the default directory scanned for suite files
	DefaultTestPath = "."
	// DefaultSuiteSuffix is the file suffix of suite definition files
	DefaultSuiteSuffix = ".suite.yaml"
	// DefaultMigrationsPath is the directory of .sql fixture files
	DefaultMigrationsPath = "migrations"
	// DefaultOutputJSONFile is the default report file name
	DefaultOutputJSONFile = "report.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultTimeout bounds every test body and hook unless a suite overrides it
	DefaultTimeout = 5 * time.Second
	// DefaultEnvFile is loaded into the environment when present
	DefaultEnvFile = ".env"

	DefaultDBHost = "127.0.0.1"
	DefaultDBPort = "3306"
	DefaultDBUser = "root"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for suites
var DefaultPathsToIgnore = []string{
	".git",
	"vendor",
	"node_modules",
	"storage",
	"testdata",
}
