package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"rfr/internal/domain"
	"rfr/internal/engine"
)

// ProgressBar follows a run and counts finished tests against the registered total.
// It is an engine.Listener.
type ProgressBar struct {
	engine.NopListener

	bar *progressbar.ProgressBar

	mu      sync.Mutex
	passed  int
	failed  int
	skipped int
}

// NewProgressBar creates a new progress bar writing to w. The count is
// replaced by the registered total when the run starts.
func NewProgressBar(count int, w io.Writer) *ProgressBar {
	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription(describe(0, 0, 0)),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

func describe(passed, failed, skipped int) string {
	return color.CyanString("Running tests: ") +
		color.GreenString("[passed: %d", passed) +
		" | " +
		color.RedString("failed: %d", failed) +
		" | " +
		color.YellowString("skipped: %d]", skipped)
}

// SuiteStarted sizes the bar from the root suite's registered total
func (p *ProgressBar) SuiteStarted(s *engine.Suite) {
	if s.Parent() != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if total := s.Result().Stats.Tests.Registered; total != p.bar.GetMax() {
		p.bar.ChangeMax(total)
	}
}

// Max returns the number of tests the bar expects
func (p *ProgressBar) Max() int {
	return p.bar.GetMax()
}

// TestFinished advances the bar by one test
func (p *ProgressBar) TestFinished(u *engine.Unit) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch u.Result().Status {
	case domain.StatusPassed:
		p.passed++
	case domain.StatusFailed:
		p.failed++
	case domain.StatusSkipped:
		p.skipped++
	}
	p.update()
}

func (p *ProgressBar) update() {
	p.bar.Set(p.passed + p.failed + p.skipped)
	p.bar.Describe(describe(p.passed, p.failed, p.skipped))
}

// Counts returns the tests seen so far by status
func (p *ProgressBar) Counts() (passed, failed, skipped int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.passed, p.failed, p.skipped
}

// Finish completes the progress bar. Tests left pending by a failed setup
// never reach the bar, so it is closed explicitly.
func (p *ProgressBar) Finish() {
	p.bar.Finish()
}
