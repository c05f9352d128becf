package engine

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds each test body and hook unless a suite or test overrides it.
const DefaultTimeout = 5 * time.Second

// TestFunc is the body of a test. Returning an error fails the test.
type TestFunc func(ctx context.Context) error

// HookFunc is a lifecycle hook. Returning an error records a failure.
type HookFunc func(ctx context.Context) error

// Options are the per-suite or per-test settings passed to Describe and It.
type Options struct {
	// Skip marks the node and every descendant as skipped without running anything
	Skip bool
	// Timeout bounds each body and hook; zero inherits from the enclosing suite
	Timeout time.Duration
	// Sequence is a reporting hint for suites whose tests read as ordered steps
	Sequence bool
	// Story is a reporting hint for narrative suites
	Story bool
}

// Option configures a suite or a test.
type Option func(*Options)

// Skip marks the suite or test as skipped.
func Skip() Option {
	return func(o *Options) {
		o.Skip = true
	}
}

// Timeout sets the deadline for test bodies and hooks.
// Non-positive values are ignored.
func Timeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// Sequence sets the sequence reporting hint.
func Sequence() Option {
	return func(o *Options) {
		o.Sequence = true
	}
}

// Story sets the story reporting hint.
func Story() Option {
	return func(o *Options) {
		o.Story = true
	}
}

func newOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// environment is shared by every node of one runner's tree.
type environment struct {
	title    string
	timeout  time.Duration
	logger   *slog.Logger
	listener Listener
	started  atomic.Bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*environment)

// WithTimeout sets the default timeout inherited by every suite.
// Non-positive values are ignored.
func WithTimeout(d time.Duration) RunnerOption {
	return func(e *environment) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(e *environment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithListener registers a listener notified as suites and tests finish.
func WithListener(l Listener) RunnerOption {
	return func(e *environment) {
		if l != nil {
			e.listener = l
		}
	}
}

// WithTitle sets the title of the root suite.
func WithTitle(title string) RunnerOption {
	return func(e *environment) {
		e.title = title
	}
}

func newEnvironment(opts []RunnerOption) *environment {
	env := &environment{
		timeout:  DefaultTimeout,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		listener: NopListener{},
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Listener observes execution progress. Calls happen on the runner's goroutine, in order.
type Listener interface {
	SuiteStarted(s *Suite)
	SuiteFinished(s *Suite)
	TestFinished(u *Unit)
}

// NopListener ignores every event. Embed it to implement only some callbacks.
type NopListener struct{}

func (NopListener) SuiteStarted(*Suite)  {}
func (NopListener) SuiteFinished(*Suite) {}
func (NopListener) TestFinished(*Unit)   {}
