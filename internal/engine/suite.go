package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rfr/internal/domain"
)

type nodeKind int

const (
	kindSuite nodeKind = iota
	kindUnit
)

// node is one entry of a suite's ordered children: either a suite or a test.
type node struct {
	kind  nodeKind
	suite *Suite
	unit  *Unit
}

func (c node) skipped() bool {
	if c.kind == kindUnit {
		return c.unit.skipped()
	}
	return c.suite.options.Skip
}

// Suite is a named, ordered group of tests and nested suites sharing lifecycle hooks.
// It owns its children and its result; parent is a lookup reference only.
type Suite struct {
	title   string
	parent  *Suite
	options Options
	env     *environment

	children []node

	before     HookFunc
	after      HookFunc
	beforeEach HookFunc
	afterEach  HookFunc

	result *domain.SuiteResult
	ran    bool
}

func newSuite(title string, parent *Suite, opts Options, env *environment) *Suite {
	s := &Suite{
		title:   title,
		parent:  parent,
		options: opts,
		env:     env,
	}
	s.result = domain.NewEmptySuiteResult(s)
	s.result.Sequence = opts.Sequence
	s.result.Story = opts.Story
	return s
}

// Title returns the declared title.
func (s *Suite) Title() string { return s.title }

// Options returns the options the suite was declared with.
func (s *Suite) Options() Options { return s.options }

// Parent returns the enclosing suite, or nil for the root.
func (s *Suite) Parent() *Suite { return s.parent }

// Result returns the live result of the suite.
func (s *Suite) Result() *domain.SuiteResult { return s.result }

// Path returns the titles from the root down to this suite.
func (s *Suite) Path() string {
	if s.parent == nil {
		return s.title
	}
	return joinPath(s.parent.Path(), s.title)
}

func joinPath(parent, title string) string {
	if parent == "" {
		return title
	}
	return parent + " > " + title
}

// Timeout is the effective deadline for hooks and tests declared in this suite.
func (s *Suite) Timeout() time.Duration {
	if s.options.Timeout > 0 {
		return s.options.Timeout
	}
	if s.parent != nil {
		return s.parent.Timeout()
	}
	return s.env.timeout
}

// UnitCount returns the number of tests declared directly in the suite.
func (s *Suite) UnitCount() int {
	n := 0
	for _, c := range s.children {
		if c.kind == kindUnit {
			n++
		}
	}
	return n
}

// SuiteShapes returns the nested suites as shapes for result sizing.
func (s *Suite) SuiteShapes() []domain.SuiteShape {
	var shapes []domain.SuiteShape
	for _, c := range s.children {
		if c.kind == kindSuite {
			shapes = append(shapes, c.suite)
		}
	}
	return shapes
}

// Suites returns the nested suites in declaration order.
func (s *Suite) Suites() []*Suite {
	var suites []*Suite
	for _, c := range s.children {
		if c.kind == kindSuite {
			suites = append(suites, c.suite)
		}
	}
	return suites
}

// Units returns the tests declared directly in the suite, in declaration order.
func (s *Suite) Units() []*Unit {
	var units []*Unit
	for _, c := range s.children {
		if c.kind == kindUnit {
			units = append(units, c.unit)
		}
	}
	return units
}

// Visit calls fn for each direct child in declaration order. Exactly one of
// sub and u is non-nil per call.
func (s *Suite) Visit(fn func(sub *Suite, u *Unit)) {
	for _, c := range s.children {
		fn(c.suite, c.unit)
	}
}

// Describe declares a nested suite and calls definition to populate it.
// A skipped parent makes the nested suite skipped too.
func (s *Suite) Describe(title string, definition func(*Suite), opts ...Option) *Suite {
	s.checkDeclarable("describe " + title)
	o := newOptions(opts)
	if s.options.Skip {
		o.Skip = true
	}
	sub := newSuite(title, s, o, s.env)
	s.addSuite(sub)
	if definition != nil {
		definition(sub)
	}
	return sub
}

// It declares a test. A nil fn declares a test that is reported as skipped.
func (s *Suite) It(title string, fn TestFunc, opts ...Option) *Unit {
	s.checkDeclarable("it " + title)
	o := newOptions(opts)
	if s.options.Skip {
		o.Skip = true
	}
	u := newUnit(title, fn, s, o)
	s.addUnit(u)
	return u
}

// Before sets the hook run once before the first child.
func (s *Suite) Before(fn HookFunc) {
	s.checkDeclarable("before hook")
	s.before = fn
}

// After sets the hook run once after the last child.
func (s *Suite) After(fn HookFunc) {
	s.checkDeclarable("after hook")
	s.after = fn
}

// BeforeEach sets the hook run before every child.
func (s *Suite) BeforeEach(fn HookFunc) {
	s.checkDeclarable("beforeEach hook")
	s.beforeEach = fn
}

// AfterEach sets the hook run after every child, whether or not it failed.
func (s *Suite) AfterEach(fn HookFunc) {
	s.checkDeclarable("afterEach hook")
	s.afterEach = fn
}

func (s *Suite) checkDeclarable(what string) {
	if s.env.started.Load() {
		panic(fmt.Sprintf("engine: cannot declare %s in %q after the run started", what, s.Path()))
	}
}

func (s *Suite) addSuite(sub *Suite) {
	s.children = append(s.children, node{kind: kindSuite, suite: sub})
	s.register(sub.result.Stats.Tests.Registered, sub.result.Stats.Suites+1)
}

func (s *Suite) addUnit(u *Unit) {
	s.children = append(s.children, node{kind: kindUnit, unit: u})
	s.register(1, 0)
}

// register bumps the advertised totals of this suite and every ancestor.
func (s *Suite) register(tests, suites int) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.result.Stats.Suites += suites
		cur.result.Stats.Register(tests)
	}
}

// run executes the suite once. It returns an error only when the before hook fails.
func (s *Suite) run(ctx context.Context) error {
	if s.ran {
		return ErrAlreadyRun
	}
	s.ran = true
	s.start()
	defer s.finish()

	if s.options.Skip {
		s.skipChildren()
		return nil
	}

	if s.before != nil {
		if failure := s.runHook(ctx, "before", s.before); failure != nil {
			s.result.Failure = hookFailure("before", failure, domain.FailureSetup)
			return fmt.Errorf("%w: %s: %s", ErrSetupFailed, s.Path(), failure.Message)
		}
	}

	for _, c := range s.children {
		s.runChild(ctx, c)
	}

	if s.after != nil {
		if failure := s.runHook(ctx, "after", s.after); failure != nil && s.result.Failure == nil {
			s.result.Failure = hookFailure("after", failure, failure.Type)
		}
	}
	return nil
}

func (s *Suite) start() {
	s.env.listener.SuiteStarted(s)
	s.env.logger.Debug("Suite started", "suite", s.Path())
	s.result.Stats.Begin(time.Now())
}

func (s *Suite) finish() {
	s.result.Stats.Finish(time.Now())
	s.env.logger.Debug("Suite finished", "suite", s.Path(),
		"passed", s.result.Stats.Tests.Passed,
		"failed", s.result.Stats.Tests.Failed,
		"pending", s.result.Stats.Tests.Pending)
	s.env.listener.SuiteFinished(s)
}

// runChild brackets one child with the each-hooks and merges its finished result.
func (s *Suite) runChild(ctx context.Context, c node) {
	if c.skipped() {
		s.runSkipped(c)
		return
	}

	var setupFailure *domain.Failure
	if s.beforeEach != nil {
		setupFailure = s.runHook(ctx, "beforeEach", s.beforeEach)
	}

	switch c.kind {
	case kindUnit:
		if setupFailure != nil {
			c.unit.fail(hookFailure("beforeEach", setupFailure, setupFailure.Type))
		} else {
			c.unit.run(ctx)
		}
	case kindSuite:
		if setupFailure != nil {
			c.suite.abort(hookFailure("beforeEach", setupFailure, domain.FailureSetup))
		} else if err := c.suite.run(ctx); err != nil {
			s.env.logger.Warn("Suite setup failed", "suite", c.suite.Path(), "err", err)
		}
	}

	if s.afterEach != nil {
		if failure := s.runHook(ctx, "afterEach", s.afterEach); failure != nil {
			s.recordTeardownFailure(c, hookFailure("afterEach", failure, failure.Type))
		}
	}

	s.merge(c)
}

func (s *Suite) runSkipped(c node) {
	switch c.kind {
	case kindUnit:
		c.unit.skip()
	case kindSuite:
		if err := c.suite.run(context.Background()); err != nil && !errors.Is(err, ErrAlreadyRun) {
			s.env.logger.Warn("Skipped suite reported an error", "suite", c.suite.Path(), "err", err)
		}
	}
	s.merge(c)
}

func (s *Suite) recordTeardownFailure(c node, failure *domain.Failure) {
	switch c.kind {
	case kindUnit:
		c.unit.failAfter(failure)
	case kindSuite:
		if c.suite.result.Failure == nil {
			c.suite.result.Failure = failure
		}
	}
}

// merge adds a finished child to this suite's result exactly once.
func (s *Suite) merge(c node) {
	switch c.kind {
	case kindUnit:
		s.result.AddTest(c.unit.result)
		s.env.logger.Debug("Test finished", "test", c.unit.Path(), "status", c.unit.result.Status)
		s.env.listener.TestFinished(c.unit)
	case kindSuite:
		s.result.AddSuite(c.suite.result)
	}
}

// skipChildren marks every descendant skipped without running hooks or bodies.
func (s *Suite) skipChildren() {
	for _, c := range s.children {
		if c.kind == kindSuite {
			c.suite.options.Skip = true
		} else {
			c.unit.options.Skip = true
		}
		s.runSkipped(c)
	}
}

// abort closes a suite that was prevented from running; its tests stay pending.
func (s *Suite) abort(failure *domain.Failure) {
	s.ran = true
	s.start()
	s.result.Failure = failure
	s.finish()
}

func (s *Suite) runHook(ctx context.Context, name string, fn HookFunc) *domain.Failure {
	s.env.logger.Debug("Running hook", "suite", s.Path(), "hook", name)
	failure := invoke(ctx, fn, s.Timeout())
	if failure != nil {
		s.env.logger.Warn("Hook failed", "suite", s.Path(), "hook", name, "type", failure.Type, "err", failure.Message)
	}
	return failure
}

func hookFailure(hook string, failure *domain.Failure, kind domain.FailureType) *domain.Failure {
	msg := failure.Message
	if !strings.HasPrefix(msg, hook+" hook") {
		msg = hook + " hook: " + msg
	}
	return &domain.Failure{
		Type:     kind,
		Message:  msg,
		Expected: failure.Expected,
		Actual:   failure.Actual,
	}
}
