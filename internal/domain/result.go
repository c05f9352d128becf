package domain

import (
	"fmt"
	"time"
)

// TestCounts totals the tests of a subtree by status
type TestCounts struct {
	Registered int `json:"registered"`
	Executed   int `json:"executed"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Pending    int `json:"pending"`
	Skipped    int `json:"skipped"`
}

// Stats aggregates a subtree. Start, End and DurationMs are nil until the subtree has run.
type Stats struct {
	// Suites is the number of suite nodes below the owner, excluding the owner itself
	Suites          int        `json:"suites"`
	Tests           TestCounts `json:"tests"`
	PassPercent     float64    `json:"pass_percent"`
	ExecutedPercent float64    `json:"executed_percent"`
	Start           *time.Time `json:"start"`
	End             *time.Time `json:"end"`
	DurationMs      *int64     `json:"duration_ms"`
}

// Register accounts for tests added to the subtree before it runs.
func (s *Stats) Register(tests int) {
	s.Tests.Registered += tests
	s.Tests.Pending += tests
}

// Record moves one pending test into the bucket of its terminal status.
func (s *Stats) Record(status TestStatus) {
	s.Tests.Pending--
	s.Tests.Executed++
	switch status {
	case StatusPassed:
		s.Tests.Passed++
	case StatusFailed:
		s.Tests.Failed++
	case StatusSkipped:
		s.Tests.Skipped++
	}
}

// Merge folds a finished child subtree into this one. Registration already
// happened when the child was added, so only execution counters move.
func (s *Stats) Merge(child TestCounts) {
	s.Tests.Pending -= child.Executed
	s.Tests.Executed += child.Executed
	s.Tests.Passed += child.Passed
	s.Tests.Failed += child.Failed
	s.Tests.Skipped += child.Skipped
}

// Recompute derives the percentage fields from the counters.
func (s *Stats) Recompute() {
	s.PassPercent = 0
	if s.Tests.Executed > 0 {
		s.PassPercent = float64(s.Tests.Passed) / float64(s.Tests.Executed) * 100
	}
	s.ExecutedPercent = 0
	if s.Tests.Registered > 0 {
		s.ExecutedPercent = float64(s.Tests.Executed) / float64(s.Tests.Registered) * 100
	}
}

// Begin opens the execution window.
func (s *Stats) Begin(at time.Time) {
	s.Start = &at
}

// Finish closes the execution window and refreshes derived fields.
func (s *Stats) Finish(end time.Time) {
	if s.Start == nil {
		s.Begin(end)
	}
	s.End = &end
	ms := end.Sub(*s.Start).Milliseconds()
	s.DurationMs = &ms
	s.Recompute()
}

// Duration returns the measured duration, or zero if the subtree has not finished.
func (s *Stats) Duration() time.Duration {
	if s.DurationMs == nil {
		return 0
	}
	return time.Duration(*s.DurationMs) * time.Millisecond
}

// Check verifies the counter invariants.
func (s *Stats) Check() error {
	t := s.Tests
	if t.Registered != t.Executed+t.Pending {
		return fmt.Errorf("registered %d != executed %d + pending %d", t.Registered, t.Executed, t.Pending)
	}
	if t.Executed != t.Passed+t.Failed+t.Skipped {
		return fmt.Errorf("executed %d != passed %d + failed %d + skipped %d", t.Executed, t.Passed, t.Failed, t.Skipped)
	}
	return nil
}

// SuiteShape is the declared structure of a suite, used to size its empty result
type SuiteShape interface {
	Title() string
	// UnitCount is the number of tests declared directly in the suite
	UnitCount() int
	// SuiteShapes are the directly nested suites in declaration order
	SuiteShapes() []SuiteShape
}

// SuiteResult holds the finished children of a suite and the stats of its whole subtree
type SuiteResult struct {
	Title  string         `json:"title"`
	Suites []*SuiteResult `json:"suites"`
	Tests  []*TestResult  `json:"tests"`
	Stats  Stats          `json:"stats"`
	// Failure is set when the suite could not run its children, or when a
	// fixture hook failed after the suite itself finished
	Failure  *Failure `json:"failure,omitempty"`
	Sequence bool     `json:"sequence,omitempty"`
	Story    bool     `json:"story,omitempty"`
	IsRoot   bool     `json:"is_root"`
}

// NewEmptySuiteResult returns the result of a suite before anything has run:
// every reachable test is registered and pending.
func NewEmptySuiteResult(shape SuiteShape) *SuiteResult {
	tests, suites := countShape(shape)
	res := &SuiteResult{
		Title:  shape.Title(),
		Suites: []*SuiteResult{},
		Tests:  []*TestResult{},
	}
	res.Stats.Suites = suites
	res.Stats.Register(tests)
	return res
}

func countShape(shape SuiteShape) (tests, suites int) {
	tests = shape.UnitCount()
	for _, child := range shape.SuiteShapes() {
		t, s := countShape(child)
		tests += t
		suites += s + 1
	}
	return tests, suites
}

// AddTest appends a finished test and records its status.
func (r *SuiteResult) AddTest(test *TestResult) {
	r.Tests = append(r.Tests, test)
	r.Stats.Record(test.Status)
}

// AddSuite appends a finished child suite and merges its counters.
func (r *SuiteResult) AddSuite(child *SuiteResult) {
	r.Suites = append(r.Suites, child)
	r.Stats.Merge(child.Stats.Tests)
}

// HasFailures reports whether any test failed or any suite in the subtree recorded a failure.
func (r *SuiteResult) HasFailures() bool {
	if r.Failure != nil || r.Stats.Tests.Failed > 0 {
		return true
	}
	for _, s := range r.Suites {
		if s.HasFailures() {
			return true
		}
	}
	return false
}

// RunReport is the root result of a run
type RunReport struct {
	ID string `json:"id"`
	SuiteResult
}

// NewRunReport wraps the finished root result.
func NewRunReport(id string, root *SuiteResult) *RunReport {
	report := &RunReport{ID: id, SuiteResult: *root}
	report.IsRoot = true
	return report
}
