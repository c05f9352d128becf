package database

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfr/internal/config"
)

func TestIsValidDatabaseName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "fixtures", true},
		{"underscores and digits", "rfr_testing_1", true},
		{"empty", "", false},
		{"too long", string(make([]byte, 65)), false},
		{"quote", "a'b", false},
		{"backtick", "a`b", false},
		{"statement separator", "a;b", false},
		{"comment", "a--b", false},
		{"keyword", "drop_me", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidDatabaseName(tt.input))
		})
	}
}

func TestManager_RequiresDatabaseName(t *testing.T) {
	cfg := config.New()
	m := NewManager(cfg)
	ctx := context.Background()

	_, err := m.QueryValue(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.ErrorIs(t, m.Exec(ctx, "SELECT 1"), ErrNoDatabase)

	_, err = m.EnsureDatabase(ctx)
	assert.ErrorIs(t, err, ErrNoDatabase)

	assert.NoError(t, m.Close())
}

func TestManager_EnsureDatabaseRejectsInvalidName(t *testing.T) {
	cfg := config.New()
	cfg.Database.Name = "x; DROP TABLE users"

	_, err := NewManager(cfg).EnsureDatabase(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database name")
}

type recordingExecer struct {
	queries []string
	failOn  string
}

func (r *recordingExecer) Exec(_ context.Context, query string) error {
	if r.failOn != "" && query == r.failOn {
		return errors.New("syntax error")
	}
	r.queries = append(r.queries, query)
	return nil
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestFindMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"002_seed.sql":   "INSERT INTO t VALUES (1);",
		"001_schema.sql": "CREATE TABLE t (id INT);",
		"notes.txt":      "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sql"), 0o755))

	files, err := FindMigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "001_schema.sql"),
		filepath.Join(dir, "002_seed.sql"),
	}, files)

	files, err = FindMigrationFiles(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSQLMigrator_Run(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"001_schema.sql": "CREATE TABLE t (id INT);\n",
		"002_empty.sql":  "   \n",
		"003_seed.sql":   "INSERT INTO t VALUES (1);",
	})

	t.Run("applies files in order", func(t *testing.T) {
		db := &recordingExecer{}
		ensured := false
		m := &SQLMigrator{
			dir: dir,
			db:  db,
			ensure: func(context.Context) (bool, error) {
				ensured = true
				return true, nil
			},
			out: io.Discard,
		}

		require.NoError(t, m.Run(context.Background()))
		assert.True(t, ensured)
		assert.Equal(t, []string{"CREATE TABLE t (id INT);", "INSERT INTO t VALUES (1);"}, db.queries)
	})

	t.Run("stops at the first failing file", func(t *testing.T) {
		db := &recordingExecer{failOn: "CREATE TABLE t (id INT);"}
		m := &SQLMigrator{dir: dir, db: db, out: io.Discard}

		err := m.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "001_schema.sql")
		assert.Empty(t, db.queries)
	})

	t.Run("database check failure", func(t *testing.T) {
		m := &SQLMigrator{
			dir:    dir,
			db:     &recordingExecer{},
			ensure: func(context.Context) (bool, error) { return false, ErrNoDatabase },
			out:    io.Discard,
		}
		assert.ErrorIs(t, m.Run(context.Background()), ErrNoDatabase)
	})
}
