package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"rfr/internal/domain"
)

// Viewer displays a run report interactively
type Viewer interface {
	View(report *domain.RunReport) error
}

// ReportViewer shows the report as a tree of suites and tests with a details pane
type ReportViewer struct{}

// NewReportViewer creates a new ReportViewer
func NewReportViewer() *ReportViewer {
	return &ReportViewer{}
}

// View runs the TUI until the user quits
func (rv *ReportViewer) View(report *domain.RunReport) error {
	app := tview.NewApplication()

	root := buildTreeNode(&report.SuiteResult)
	root.SetText(fmt.Sprintf("Run %s", report.ID))
	tree := tview.NewTreeView().
		SetRoot(root).
		SetCurrentNode(root)
	tree.SetBorder(true).SetTitle(" Results ")

	// Create text view for node details (right side)
	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)
	detailsView.SetBorder(true).SetTitle(" Details ")

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText(headerText(report))

	showDetails := func(node *tview.TreeNode) {
		switch ref := node.GetReference().(type) {
		case *domain.SuiteResult:
			detailsView.SetText(formatSuiteDetails(ref))
		case *domain.TestResult:
			detailsView.SetText(formatTestDetails(ref))
		}
		detailsView.ScrollToBeginning()
	}
	showDetails(root)

	tree.SetChangedFunc(showDetails)
	tree.SetSelectedFunc(func(node *tview.TreeNode) {
		node.SetExpanded(!node.IsExpanded())
	})

	tree.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC, tcell.KeyEsc:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				app.Stop()
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(tree)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(tree, 0, 1, true).
		AddItem(detailsView, 0, 2, false)

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(flex, 0, 1, true)

	// Run the application
	if err := app.SetRoot(mainLayout, true).SetFocus(tree).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func headerText(report *domain.RunReport) string {
	t := report.Stats.Tests
	return fmt.Sprintf(" [green]%d passed[white] | [red]%d failed[white] | [yellow]%d skipped[white] | %d pending | Enter to fold, → details, ← back, q to exit ",
		t.Passed, t.Failed, t.Skipped, t.Pending)
}

// buildTreeNode mirrors a suite result as tview nodes. Suites without failures start collapsed.
func buildTreeNode(res *domain.SuiteResult) *tview.TreeNode {
	node := tview.NewTreeNode(res.Title).
		SetReference(res).
		SetSelectable(true).
		SetColor(suiteColor(res))

	for _, test := range res.Tests {
		node.AddChild(tview.NewTreeNode(testNodeText(test)).
			SetReference(test).
			SetSelectable(true).
			SetColor(statusColor(test.Status)))
	}
	for _, child := range res.Suites {
		node.AddChild(buildTreeNode(child))
	}
	node.SetExpanded(res.IsRoot || res.HasFailures())
	return node
}

func testNodeText(test *domain.TestResult) string {
	switch test.Status {
	case domain.StatusPassed:
		return "✓ " + test.Title
	case domain.StatusFailed:
		return "✗ " + test.Title
	case domain.StatusSkipped:
		return "- " + test.Title
	default:
		return "○ " + test.Title
	}
}

func statusColor(status domain.TestStatus) tcell.Color {
	switch status {
	case domain.StatusPassed:
		return tcell.ColorGreen
	case domain.StatusFailed:
		return tcell.ColorRed
	case domain.StatusSkipped:
		return tcell.ColorYellow
	default:
		return tcell.ColorGray
	}
}

func suiteColor(res *domain.SuiteResult) tcell.Color {
	if res.HasFailures() {
		return tcell.ColorRed
	}
	if res.Stats.Tests.Pending > 0 {
		return tcell.ColorGray
	}
	return tcell.ColorDarkCyan
}

// formatSuiteDetails formats suite stats for display using tview color tags
func formatSuiteDetails(res *domain.SuiteResult) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[cyan]Suite: %s[white]\n\n", tview.Escape(res.Title))
	t := res.Stats.Tests
	fmt.Fprintf(w, "Tests\t%d\n", t.Registered)
	fmt.Fprintf(w, "Passed\t[green]%d[white]\n", t.Passed)
	fmt.Fprintf(w, "Failed\t[red]%d[white]\n", t.Failed)
	fmt.Fprintf(w, "Skipped\t[yellow]%d[white]\n", t.Skipped)
	fmt.Fprintf(w, "Pending\t%d\n", t.Pending)
	fmt.Fprintf(w, "Nested suites\t%d\n", res.Stats.Suites)
	fmt.Fprintf(w, "Pass\t%.1f%%\n", res.Stats.PassPercent)
	fmt.Fprintf(w, "Executed\t%.1f%%\n", res.Stats.ExecutedPercent)
	fmt.Fprintf(w, "Duration\t%s\n", FormatDuration(res.Stats.DurationMs))

	var hints []string
	if res.Sequence {
		hints = append(hints, "sequence")
	}
	if res.Story {
		hints = append(hints, "story")
	}
	if len(hints) > 0 {
		fmt.Fprintf(w, "Hints\t%s\n", strings.Join(hints, ", "))
	}
	w.Flush()

	writeFailure(&builder, res.Failure)
	return builder.String()
}

// formatTestDetails formats a test result for display using tview color tags
func formatTestDetails(test *domain.TestResult) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "[yellow]Test: %s[white]\n\n", tview.Escape(test.Title))
	fmt.Fprintf(&builder, "Status:   %s\n", test.Status)
	fmt.Fprintf(&builder, "Duration: %s\n", FormatDuration(test.DurationMs))
	if test.Start != nil {
		fmt.Fprintf(&builder, "Started:  %s\n", test.Start.Format("15:04:05.000"))
	}

	writeFailure(&builder, test.Failure)
	return builder.String()
}

func writeFailure(b *strings.Builder, failure *domain.Failure) {
	if failure == nil {
		return
	}
	fmt.Fprintf(b, "\n[red]✗ %s failure[white]\n\n", failure.Type)
	fmt.Fprintf(b, "[yellow]Message:[white]\n%s\n", tview.Escape(failure.Message))
	if failure.Expected != nil || failure.Actual != nil {
		fmt.Fprintf(b, "\n[green]Expected:[white] %s\n", tview.Escape(FormatValue(failure.Expected)))
		fmt.Fprintf(b, "[red]Actual:[white]   %s\n", tview.Escape(FormatValue(failure.Actual)))
	}
}
