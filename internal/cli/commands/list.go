package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rfr/internal/config"
	"rfr/internal/discovery"
	"rfr/internal/engine"
	"rfr/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	loader    *discovery.Loader
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	loader *discovery.Loader,
	formatter *ui.Formatter,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		loader:    loader,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	files, err := lc.scanner.Scan(lc.config.GetTestPath())
	if err != nil {
		return err
	}

	// Filter suites
	files = lc.filter.FilterByName(files, lc.config.Flags.NameFilter)

	if len(files) == 0 {
		color.Yellow("No suites found")
		return nil
	}

	if !lc.config.Flags.Tree {
		lc.formatter.PrintFileList(files)
		return nil
	}

	// Declaring is enough to show the tree; nothing runs
	runner := engine.NewRunner()
	if _, err := lc.loader.Load(runner, files); err != nil {
		return err
	}
	lc.formatter.PrintDeclared(runner.Root())
	return nil
}
