package domain

import "time"

// TestStatus is the lifecycle state of a single test
type TestStatus string

const (
	StatusPending TestStatus = "pending"
	StatusPassed  TestStatus = "passed"
	StatusFailed  TestStatus = "failed"
	StatusSkipped TestStatus = "skipped"
)

// Terminal reports whether the status is final for an executed test.
func (s TestStatus) Terminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// TestResult is the outcome of one test. Timing fields stay nil until the test runs.
type TestResult struct {
	Title      string     `json:"title"`
	Status     TestStatus `json:"status"`
	Failure    *Failure   `json:"failure"`
	Start      *time.Time `json:"start"`
	End        *time.Time `json:"end"`
	DurationMs *int64     `json:"duration_ms"`
}

// NewEmptyTestResult returns the pending result of a test that has not run yet.
func NewEmptyTestResult(title string) *TestResult {
	return &TestResult{
		Title:  title,
		Status: StatusPending,
	}
}

// Begin records the start of execution.
func (r *TestResult) Begin(at time.Time) {
	r.Start = &at
}

// Finish sets the terminal status and closes the timing window.
// A result without a start time is treated as having started at end.
func (r *TestResult) Finish(status TestStatus, failure *Failure, end time.Time) {
	if r.Start == nil {
		r.Begin(end)
	}
	r.Status = status
	r.Failure = failure
	r.End = &end
	ms := end.Sub(*r.Start).Milliseconds()
	r.DurationMs = &ms
}

// Duration returns the measured duration, or zero if the test has not finished.
func (r *TestResult) Duration() time.Duration {
	if r.DurationMs == nil {
		return 0
	}
	return time.Duration(*r.DurationMs) * time.Millisecond
}
