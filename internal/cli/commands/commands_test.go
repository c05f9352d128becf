package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfr/internal/cli"
	"rfr/internal/config"
	"rfr/internal/database"
	"rfr/internal/discovery"
	"rfr/internal/domain"
	"rfr/internal/storage"
	"rfr/internal/ui"
)

func init() {
	color.NoColor = true
}

type fakeMigrator struct{ runs int }

func (f *fakeMigrator) Run(context.Context) error {
	f.runs++
	return nil
}

type fakeViewer struct{ viewed *domain.RunReport }

func (f *fakeViewer) View(report *domain.RunReport) error {
	f.viewed = report
	return nil
}

type fixture struct {
	cfg      *config.Config
	out      *bytes.Buffer
	storage  *storage.JSONStorage
	migrator *fakeMigrator
	viewer   *fakeViewer
	run      *RunCommand
	list     *ListCommand
}

func newFixture(t *testing.T, suites map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range suites {
		path := filepath.Join(dir, "suites", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.New()
	cfg.ProjectPath = dir
	cfg.Flags = config.Flags{TestPath: "suites", NoProgress: true}

	f := &fixture{
		cfg:      cfg,
		out:      &bytes.Buffer{},
		storage:  storage.NewJSONStorage(cfg),
		migrator: &fakeMigrator{},
		viewer:   &fakeViewer{},
	}
	scanner := discovery.NewScanner(cfg.PathsToIgnore, cfg.SuiteSuffix)
	loader := discovery.NewLoader(nil)
	formatter := ui.NewFormatter(cfg, f.out)
	f.run = NewRunCommand(cfg, scanner, discovery.NewFilter(), loader, f.storage, formatter, f.migrator, f.viewer)
	f.run.stderr = io.Discard
	f.list = NewListCommand(cfg, scanner, discovery.NewFilter(), loader, formatter)
	return f
}

func command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

const passingSuite = `
describe: Strings
children:
  - it: echoes
    run: echo hello
    expect_output: hello
`

const failingSuite = `
describe: Math
children:
  - it: adds
    run: expr 1 + 1
    expect_output: "2"
  - it: breaks
    run: expr 1 + 1
    expect_output: "3"
`

func TestRunCommand_Failures(t *testing.T) {
	f := newFixture(t, map[string]string{
		"strings.suite.yaml": passingSuite,
		"math.suite.yaml":    failingSuite,
	})

	err := f.run.Execute(command(), nil)
	assert.ErrorIs(t, err, ErrTestsFailed)

	report, err := f.storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "suites", report.Title)
	assert.Equal(t, 3, report.Stats.Tests.Registered)
	assert.Equal(t, 2, report.Stats.Tests.Passed)
	assert.Equal(t, 1, report.Stats.Tests.Failed)
	require.Len(t, report.Suites, 2)
	assert.Equal(t, "Math", report.Suites[0].Title, "files run in sorted path order")

	assert.Contains(t, f.out.String(), "✗ breaks")
	assert.Zero(t, f.migrator.runs)
	assert.Nil(t, f.viewer.viewed)
}

func TestRunCommand_PassingWithFilterMigrateAndOpen(t *testing.T) {
	f := newFixture(t, map[string]string{
		"strings.suite.yaml": passingSuite,
		"math.suite.yaml":    failingSuite,
	})
	f.cfg.Flags.NameFilter = "*strings*"
	f.cfg.Flags.Migrate = true
	f.cfg.Flags.Open = true

	require.NoError(t, f.run.Execute(command(), nil))
	assert.Equal(t, 1, f.migrator.runs)
	require.NotNil(t, f.viewer.viewed)
	assert.Equal(t, 1, f.viewer.viewed.Stats.Tests.Passed)
	assert.Contains(t, f.out.String(), "All tests passed")
}

func TestRunCommand_NoSuites(t *testing.T) {
	f := newFixture(t, map[string]string{"strings.suite.yaml": passingSuite})
	f.cfg.Flags.NameFilter = "*missing*"

	require.NoError(t, f.run.Execute(command(), nil))
	_, err := f.storage.Load()
	assert.ErrorIs(t, err, storage.ErrNoReport)
}

func TestRunCommand_InvalidSuite(t *testing.T) {
	f := newFixture(t, map[string]string{"broken.suite.yaml": "describe: Broken\nchildren:\n  - run: echo\n"})

	err := f.run.Execute(command(), nil)
	assert.ErrorIs(t, err, discovery.ErrInvalidSuite)
}

func TestRunCommand_WithProgress(t *testing.T) {
	f := newFixture(t, map[string]string{"strings.suite.yaml": passingSuite})
	f.cfg.Flags.NoProgress = false

	require.NoError(t, f.run.Execute(command(), nil))
}

func TestListCommand(t *testing.T) {
	f := newFixture(t, map[string]string{
		"strings.suite.yaml": passingSuite,
		"math.suite.yaml":    failingSuite,
	})

	require.NoError(t, f.list.Execute(command(), nil))
	assert.Contains(t, f.out.String(), "Found 2 suite file(s):")
	assert.Contains(t, f.out.String(), filepath.Join("suites", "math.suite.yaml"))

	f.out.Reset()
	f.cfg.Flags.Tree = true
	require.NoError(t, f.list.Execute(command(), nil))
	assert.Contains(t, f.out.String(), "Found 3 test(s) in 2 suite(s):")
	assert.Contains(t, f.out.String(), "breaks")
}

func TestViewCommand(t *testing.T) {
	f := newFixture(t, map[string]string{"strings.suite.yaml": passingSuite})
	view := NewViewCommand(f.cfg, f.storage, f.viewer)

	assert.ErrorIs(t, view.Execute(command(), nil), storage.ErrNoReport)

	require.NoError(t, f.run.Execute(command(), nil))
	f.viewer.viewed = nil
	require.NoError(t, view.Execute(command(), nil))
	require.NotNil(t, f.viewer.viewed)
	assert.Equal(t, "Strings", f.viewer.viewed.Suites[0].Title)
}

func TestRegister(t *testing.T) {
	cfg := config.New()
	cmds := NewCommands(cfg)
	defer cmds.Close()

	root := &cobra.Command{Use: "rfr"}
	var flags cli.Flags
	cmds.Register(root, &flags, cfg)

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "list", "migrate", "view"}, names)

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, run.ParseFlags([]string{"--timeout", "2s", "-f", "*math*", "--no-progress"}))
	require.NoError(t, run.PreRunE(run, nil))
	assert.Equal(t, "*math*", cfg.Flags.NameFilter)
	assert.True(t, cfg.Flags.NoProgress)
	assert.Equal(t, "2s", cfg.Timeout.String())
}

var _ database.Migrator = (*fakeMigrator)(nil)
