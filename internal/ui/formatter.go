package ui

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"rfr/internal/config"
	"rfr/internal/domain"
	"rfr/internal/engine"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to out
func NewFormatter(cfg *config.Config, out io.Writer) *Formatter {
	return &Formatter{
		config: cfg,
		out:    out,
	}
}

// PrintStats prints the statistics table of a finished run followed by the
// tree of failing tests, if any.
func (f *Formatter) PrintStats(report *domain.RunReport) {
	fmt.Fprint(f.out, "\n")
	fmt.Fprintln(f.out, color.CyanString("╔═══════════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(f.out, color.CyanString("║                    Test Execution Statistics                  ║"))
	fmt.Fprintln(f.out, color.CyanString("╚═══════════════════════════════════════════════════════════════╝"))
	fmt.Fprintln(f.out)

	fmt.Fprint(f.out, StatsTable(report))
	fmt.Fprintln(f.out)

	// Print summary line
	tests := report.Stats.Tests
	switch {
	case report.Failure != nil:
		fmt.Fprintln(f.out, color.RedString("✗ Run aborted: %s", report.Failure.Message))
	case !report.HasFailures():
		fmt.Fprintln(f.out, color.GreenString("✓ All tests passed! (%d passed, %d skipped)", tests.Passed, tests.Skipped))
		return
	default:
		fmt.Fprintln(f.out, color.RedString("✗ %d of %d test(s) failed", tests.Failed, tests.Registered))
	}
	fmt.Fprintln(f.out)
	fmt.Fprint(f.out, ResultTree(&report.SuiteResult, true))
}

// StatsTable renders one row per suite with the totals of the whole run in the footer.
func StatsTable(report *domain.RunReport) string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	if report.ID != "" {
		t.SetTitle("Run " + report.ID)
	}
	t.AppendHeader(table.Row{"Suite", "Tests", "Passed", "Failed", "Skipped", "Pending", "Pass %", "Executed %", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Pending", Align: text.AlignRight},
		{Name: "Pass %", Align: text.AlignRight},
		{Name: "Executed %", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	var walk func(res *domain.SuiteResult, depth int)
	walk = func(res *domain.SuiteResult, depth int) {
		t.AppendRow(statsRow(strings.Repeat("  ", depth)+res.Title, res.Stats))
		for _, child := range res.Suites {
			walk(child, depth+1)
		}
	}
	for _, child := range report.Suites {
		walk(child, 0)
	}

	footer := statsRow("TOTAL", report.Stats)
	t.AppendFooter(footer)
	t.SetStyle(table.StyleLight)
	t.Render()
	return buf.String()
}

func statsRow(title string, s domain.Stats) table.Row {
	return table.Row{
		title,
		s.Tests.Registered,
		s.Tests.Passed,
		s.Tests.Failed,
		s.Tests.Skipped,
		s.Tests.Pending,
		fmt.Sprintf("%.1f", s.PassPercent),
		fmt.Sprintf("%.1f", s.ExecutedPercent),
		FormatDuration(s.DurationMs),
	}
}

// FormatDuration renders a millisecond duration, or "-" when it was never measured.
func FormatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).String()
}

// FormatValue renders an expected or actual value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// treeNode is one printable line with optional detail lines and children
type treeNode struct {
	label    string
	details  []string
	children []treeNode
}

func renderTree(b *strings.Builder, nodes []treeNode, prefix string) {
	for i, node := range nodes {
		isLast := i == len(nodes)-1
		connector, childPrefix := "├── ", "│   "
		if isLast {
			connector, childPrefix = "└── ", "    "
		}
		b.WriteString(prefix + connector + node.label + "\n")
		for _, detail := range node.details {
			b.WriteString(prefix + childPrefix + detail + "\n")
		}
		renderTree(b, node.children, prefix+childPrefix)
	}
}

// ResultTree renders a finished result as a tree. With failuresOnly, passing
// tests and suites without failures are left out.
func ResultTree(res *domain.SuiteResult, failuresOnly bool) string {
	var b strings.Builder
	title := res.Title
	if title == "" {
		title = "(root)"
	}
	b.WriteString(color.CyanString("%s", title) + "\n")
	for _, detail := range failureLines(res.Failure) {
		b.WriteString(detail + "\n")
	}
	renderTree(&b, resultChildren(res, failuresOnly), "")
	return b.String()
}

func resultChildren(res *domain.SuiteResult, failuresOnly bool) []treeNode {
	var nodes []treeNode
	for _, test := range res.Tests {
		if failuresOnly && test.Status != domain.StatusFailed {
			continue
		}
		nodes = append(nodes, treeNode{
			label:   testLabel(test),
			details: failureLines(test.Failure),
		})
	}
	for _, suite := range res.Suites {
		if failuresOnly && !suite.HasFailures() {
			continue
		}
		nodes = append(nodes, treeNode{
			label:    suiteLabel(suite),
			details:  failureLines(suite.Failure),
			children: resultChildren(suite, failuresOnly),
		})
	}
	return nodes
}

// StatusMarker returns the colored symbol for a test status
func StatusMarker(status domain.TestStatus) string {
	switch status {
	case domain.StatusPassed:
		return color.GreenString("✓")
	case domain.StatusFailed:
		return color.RedString("✗")
	case domain.StatusSkipped:
		return color.YellowString("-")
	default:
		return color.WhiteString("○")
	}
}

func testLabel(test *domain.TestResult) string {
	label := StatusMarker(test.Status) + " " + test.Title
	if test.DurationMs != nil && test.Status != domain.StatusSkipped {
		label += color.HiBlackString(" (%s)", FormatDuration(test.DurationMs))
	}
	return label
}

func suiteLabel(suite *domain.SuiteResult) string {
	t := suite.Stats.Tests
	counts := fmt.Sprintf(" [%d/%d passed", t.Passed, t.Registered)
	if t.Failed > 0 {
		counts += fmt.Sprintf(", %d failed", t.Failed)
	}
	if t.Pending > 0 {
		counts += fmt.Sprintf(", %d pending", t.Pending)
	}
	counts += "]"
	if suite.HasFailures() {
		return color.YellowString("%s", suite.Title) + color.RedString("%s", counts)
	}
	return color.YellowString("%s", suite.Title) + color.GreenString("%s", counts)
}

func failureLines(failure *domain.Failure) []string {
	if failure == nil {
		return nil
	}
	lines := []string{color.RedString("%s: %s", failure.Type, failure.Message)}
	if failure.Expected != nil || failure.Actual != nil {
		lines = append(lines,
			color.GreenString("expected: %s", FormatValue(failure.Expected)),
			color.RedString("actual:   %s", FormatValue(failure.Actual)))
	}
	return lines
}

// PrintDeclared prints the tree of declared suites and tests before anything runs.
func (f *Formatter) PrintDeclared(root *engine.Suite) {
	res := root.Result()
	fmt.Fprintln(f.out, color.GreenString("Found %d test(s) in %d suite(s):", res.Stats.Tests.Registered, res.Stats.Suites))
	fmt.Fprintln(f.out)
	fmt.Fprint(f.out, DeclaredTree(root))
}

// DeclaredTree renders the declared children of root in declaration order.
func DeclaredTree(root *engine.Suite) string {
	var b strings.Builder
	renderTree(&b, declaredChildren(root), "")
	return b.String()
}

func declaredChildren(s *engine.Suite) []treeNode {
	var nodes []treeNode
	s.Visit(func(sub *engine.Suite, u *engine.Unit) {
		if sub != nil {
			nodes = append(nodes, treeNode{
				label:    color.CyanString("%s", sub.Title()) + declaredHints(sub),
				children: declaredChildren(sub),
			})
			return
		}
		label := color.YellowString("%s", u.Title())
		switch {
		case u.Options().Skip:
			label += color.HiBlackString(" (skip)")
		case !u.HasBody():
			label += color.HiBlackString(" (todo)")
		}
		if u.Options().Timeout > 0 {
			label += color.HiBlackString(" (timeout %s)", u.Options().Timeout)
		}
		nodes = append(nodes, treeNode{label: label})
	})
	return nodes
}

func declaredHints(s *engine.Suite) string {
	hints := []string{fmt.Sprintf("%d tests", s.Result().Stats.Tests.Registered)}
	opts := s.Options()
	if opts.Skip {
		hints = append(hints, "skip")
	}
	if opts.Timeout > 0 {
		hints = append(hints, "timeout "+opts.Timeout.String())
	}
	if opts.Sequence {
		hints = append(hints, "sequence")
	}
	if opts.Story {
		hints = append(hints, "story")
	}
	return color.HiBlackString(" [%s]", strings.Join(hints, ", "))
}

// PrintFileList prints the suite files relative to the project path.
func (f *Formatter) PrintFileList(files []string) {
	fmt.Fprintln(f.out, color.GreenString("Found %d suite file(s):", len(files)))
	fmt.Fprintln(f.out)

	for i, file := range files {
		// Get relative path for cleaner display
		relPath, err := filepath.Rel(f.config.ProjectPath, file)
		if err != nil {
			relPath = file
		}

		if i == len(files)-1 {
			fmt.Fprintln(f.out, color.CyanString("└── %s", relPath))
		} else {
			fmt.Fprintln(f.out, color.CyanString("├── %s", relPath))
		}
	}
}
