package engine

import (
	"context"
	"time"

	"rfr/internal/domain"
)

// Unit is a single test. It owns its result and touches nothing else.
type Unit struct {
	title   string
	fn      TestFunc
	parent  *Suite
	options Options
	result  *domain.TestResult
}

func newUnit(title string, fn TestFunc, parent *Suite, opts Options) *Unit {
	return &Unit{
		title:   title,
		fn:      fn,
		parent:  parent,
		options: opts,
		result:  domain.NewEmptyTestResult(title),
	}
}

// Title returns the declared title.
func (u *Unit) Title() string { return u.title }

// Options returns the options the test was declared with.
func (u *Unit) Options() Options { return u.options }

// Parent returns the enclosing suite.
func (u *Unit) Parent() *Suite { return u.parent }

// Result returns the live result of the test.
func (u *Unit) Result() *domain.TestResult { return u.result }

// Path returns the titles from the root down to this test.
func (u *Unit) Path() string {
	return joinPath(u.parent.Path(), u.title)
}

// Timeout is the effective deadline: the test's own, else the nearest suite's.
func (u *Unit) Timeout() time.Duration {
	if u.options.Timeout > 0 {
		return u.options.Timeout
	}
	return u.parent.Timeout()
}

// HasBody reports whether the test was declared with a body.
func (u *Unit) HasBody() bool { return u.fn != nil }

// skipped reports whether the body will never be invoked.
// A test declared without a body counts as skipped.
func (u *Unit) skipped() bool {
	return u.options.Skip || u.fn == nil
}

func (u *Unit) run(ctx context.Context) {
	if u.skipped() {
		u.skip()
		return
	}

	u.result.Begin(time.Now())
	failure := invoke(ctx, u.fn, u.Timeout())
	status := domain.StatusPassed
	if failure != nil {
		status = domain.StatusFailed
	}
	u.result.Finish(status, failure, time.Now())
}

func (u *Unit) skip() {
	u.result.Finish(domain.StatusSkipped, nil, time.Now())
}

// fail finalizes a test that never ran because its fixture failed.
func (u *Unit) fail(failure *domain.Failure) {
	u.result.Finish(domain.StatusFailed, failure, time.Now())
}

// failAfter fails an already finished test. An earlier failure is kept.
func (u *Unit) failAfter(failure *domain.Failure) {
	if u.result.Status == domain.StatusFailed {
		return
	}
	u.result.Status = domain.StatusFailed
	u.result.Failure = failure
}
