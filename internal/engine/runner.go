package engine

import (
	"context"

	"github.com/google/uuid"

	"rfr/internal/domain"
)

// Runner is the root of a test tree. One Runner corresponds to one execution.
type Runner struct {
	env    *environment
	root   *Suite
	report *domain.RunReport
}

// NewRunner creates a runner with an empty root suite.
func NewRunner(opts ...RunnerOption) *Runner {
	env := newEnvironment(opts)
	return &Runner{
		env:  env,
		root: newSuite(env.title, nil, Options{}, env),
	}
}

// Root returns the root suite.
func (r *Runner) Root() *Suite { return r.root }

// Result returns the live root result. Before the run it shows the registered totals.
func (r *Runner) Result() *domain.SuiteResult { return r.root.result }

// Report returns the finished report, or nil if the runner has not run.
func (r *Runner) Report() *domain.RunReport { return r.report }

// Describe declares a top-level suite.
func (r *Runner) Describe(title string, definition func(*Suite), opts ...Option) *Suite {
	return r.root.Describe(title, definition, opts...)
}

// It declares a top-level test.
func (r *Runner) It(title string, fn TestFunc, opts ...Option) *Unit {
	return r.root.It(title, fn, opts...)
}

// Before sets the root hook run once before everything.
func (r *Runner) Before(fn HookFunc) { r.root.Before(fn) }

// After sets the root hook run once after everything.
func (r *Runner) After(fn HookFunc) { r.root.After(fn) }

// BeforeEach sets the root hook run before every top-level child.
func (r *Runner) BeforeEach(fn HookFunc) { r.root.BeforeEach(fn) }

// AfterEach sets the root hook run after every top-level child.
func (r *Runner) AfterEach(fn HookFunc) { r.root.AfterEach(fn) }

// Run executes the whole tree sequentially and returns the finished report.
// Failures of hooks and tests are recorded in the report; the only error
// besides ErrAlreadyRun is a failed root before hook, which wraps ErrSetupFailed
// and still comes with the (mostly pending) report.
func (r *Runner) Run(ctx context.Context) (*domain.RunReport, error) {
	if !r.env.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}

	id := uuid.New().String()
	r.env.logger.Info("Run started", "id", id, "tests", r.root.result.Stats.Tests.Registered)

	err := r.root.run(ctx)
	r.report = domain.NewRunReport(id, r.root.result)

	stats := r.report.Stats
	r.env.logger.Info("Run finished", "id", id,
		"passed", stats.Tests.Passed,
		"failed", stats.Tests.Failed,
		"skipped", stats.Tests.Skipped,
		"pending", stats.Tests.Pending,
		"duration", stats.Duration())
	return r.report, err
}
