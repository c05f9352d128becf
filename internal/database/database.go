package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"

	"rfr/internal/config"
)

// ErrNoDatabase is returned when a query needs a schema but DB_DATABASE is empty.
var ErrNoDatabase = errors.New("database: DB_DATABASE is not set")

// Manager owns the connection used by sql steps and fixture migrations.
// The connection is opened on first use, so runs without sql steps never dial.
type Manager struct {
	config *config.Config

	mu sync.Mutex
	db *sql.DB
}

// NewManager creates a new Manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{config: cfg}
}

// conn returns the shared connection, opening it on first use
func (m *Manager) conn(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}
	if m.config.GetDatabaseName() == "" {
		return nil, ErrNoDatabase
	}

	db, err := sql.Open("mysql", m.config.DatabaseDSN(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}
	m.db = db
	return db, nil
}

// Exec runs a statement that returns no rows
func (m *Manager) Exec(ctx context.Context, query string) error {
	db, err := m.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// QueryValue runs a query and returns the first column of the first row as text.
// NULL is returned as "NULL".
func (m *Manager) QueryValue(ctx context.Context, query string) (string, error) {
	db, err := m.conn(ctx)
	if err != nil {
		return "", err
	}

	var value sql.NullString
	if err := db.QueryRowContext(ctx, query).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("query returned no rows: %s", query)
		}
		return "", fmt.Errorf("query failed: %w", err)
	}
	if !value.Valid {
		return "NULL", nil
	}
	return value.String, nil
}

// EnsureDatabase checks if the configured database exists and creates it if it doesn't.
// It reports whether the database was created.
func (m *Manager) EnsureDatabase(ctx context.Context) (bool, error) {
	name := m.config.GetDatabaseName()
	if name == "" {
		return false, ErrNoDatabase
	}
	if !isValidDatabaseName(name) {
		return false, fmt.Errorf("invalid database name: %s", name)
	}

	// Connect to the MySQL server without selecting a database
	db, err := sql.Open("mysql", m.config.DatabaseDSN(false))
	if err != nil {
		return false, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("failed to ping database server: %w", err)
	}

	exists, err := databaseExists(ctx, db, name)
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return true, nil
}

// Close closes the shared connection if it was opened
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

func databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

// isValidDatabaseName only accepts names that are safe to interpolate into CREATE DATABASE
func isValidDatabaseName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
		default:
			return false
		}
	}
	// Check for SQL injection patterns
	upper := strings.ToUpper(name)
	for _, word := range []string{"DROP", "DELETE", "TRUNCATE"} {
		if strings.Contains(upper, word) {
			return false
		}
	}
	return true
}
