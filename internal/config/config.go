package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string
	TestPath    string
	SuiteSuffix string

	// MigrationsPath holds the .sql fixture files applied by migrate
	MigrationsPath string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings
	Timeout time.Duration

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Database settings, read from the environment
	Database Database

	// Command flags
	Flags Flags
}

// Database holds the connection settings used by sql steps
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

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

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		TestPath:       DefaultTestPath,
		SuiteSuffix:    DefaultSuiteSuffix,
		MigrationsPath: DefaultMigrationsPath,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Timeout:        DefaultTimeout,
		Database: Database{
			Host: DefaultDBHost,
			Port: DefaultDBPort,
			User: DefaultDBUser,
		},
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load creates a config, reads the environment and applies flags
func Load(flags Flags) (*Config, error) {
	cfg := New()
	if err := cfg.Apply(flags); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply reads the project's .env file and the environment, then applies flag overrides.
// Commands call it after cobra parsed the flags.
func (c *Config) Apply(flags Flags) error {
	c.Flags = flags

	if err := LoadEnv(filepath.Join(c.ProjectPath, DefaultEnvFile)); err != nil {
		return err
	}
	c.applyEnv()

	// Apply flag overrides
	if flags.Timeout > 0 {
		c.Timeout = flags.Timeout
	}
	return nil
}

// LoadEnv loads a dotenv file into the process environment. Variables that are
// already set win, and a missing file is not an error.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Database.Host, "DB_HOST")
	set(&c.Database.Port, "DB_PORT")
	set(&c.Database.User, "DB_USERNAME")
	set(&c.Database.Password, "DB_PASSWORD")
	set(&c.Database.Name, "DB_DATABASE")

	if v := os.Getenv("RFR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Timeout = d
		}
	}
}

// GetTestPath returns the test path, using flag if provided
func (c *Config) GetTestPath() string {
	if c.Flags.TestPath != "" {
		// If TestPath is provided, make it relative to the project path if it's not absolute
		if filepath.IsAbs(c.Flags.TestPath) {
			return c.Flags.TestPath
		}
		return filepath.Join(c.ProjectPath, c.Flags.TestPath)
	}

	// Default: combine project path and test path
	return filepath.Join(c.ProjectPath, c.TestPath)
}

// GetOutputPath returns the full path to the report file, so run and view
// always read and write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetMigrationsPath returns the fixture directory, relative to the project path unless absolute
func (c *Config) GetMigrationsPath() string {
	if filepath.IsAbs(c.MigrationsPath) {
		return c.MigrationsPath
	}
	return filepath.Join(c.ProjectPath, c.MigrationsPath)
}

// GetDatabaseName returns the configured database name
func (c *Config) GetDatabaseName() string {
	return c.Database.Name
}

// DatabaseDSN builds the MySQL DSN. With withDatabase false the DSN omits the
// schema, which is what creating the database needs.
func (c *Config) DatabaseDSN(withDatabase bool) string {
	dsn := mysql.NewConfig()
	dsn.User = c.Database.User
	dsn.Passwd = c.Database.Password
	dsn.Net = "tcp"
	dsn.Addr = c.Database.Host + ":" + c.Database.Port
	dsn.ParseTime = true
	dsn.MultiStatements = true
	if withDatabase {
		dsn.DBName = c.Database.Name
	}
	return dsn.FormatDSN()
}
