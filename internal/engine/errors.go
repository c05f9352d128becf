package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rfr/internal/domain"
)

var (
	// ErrAlreadyRun is returned when a runner or suite is executed a second time.
	ErrAlreadyRun = errors.New("engine: already run")
	// ErrSetupFailed is returned when a suite's before hook fails.
	ErrSetupFailed = errors.New("engine: setup failed")
)

// AssertionError is an expectation mismatch. Bodies return it (or wrap it)
// so the failure is reported as an assertion with expected and actual values.
type AssertionError struct {
	Message  string
	Expected any
	Actual   any
}

// NewAssertionError creates an AssertionError.
func NewAssertionError(message string, expected, actual any) *AssertionError {
	return &AssertionError{Message: message, Expected: expected, Actual: actual}
}

func (e *AssertionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("expected %v, got %v", e.Expected, e.Actual)
}

// TimeoutError reports that a body or hook exceeded its deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout of %s exceeded", e.Timeout)
}

// failureFrom converts an error returned by a body or hook into a failure record.
func failureFrom(err error) *domain.Failure {
	if err == nil {
		return nil
	}
	var assertErr *AssertionError
	if errors.As(err, &assertErr) {
		return &domain.Failure{
			Type:     domain.FailureAssertion,
			Message:  err.Error(),
			Expected: assertErr.Expected,
			Actual:   assertErr.Actual,
		}
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return &domain.Failure{Type: domain.FailureTimeout, Message: err.Error()}
	}
	return &domain.Failure{Type: domain.FailureException, Message: err.Error()}
}

// invoke runs fn with a deadline and converts its outcome into a failure.
// A panic is captured as an exception. When the deadline passes first the
// call is abandoned and whatever it returns later is discarded.
func invoke(ctx context.Context, fn func(context.Context) error, timeout time.Duration) *domain.Failure {
	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn(callCtx)
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && errors.Is(err, context.DeadlineExceeded) {
			err = &TimeoutError{Timeout: timeout}
		}
		return failureFrom(err)
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return failureFrom(ctx.Err())
		}
		return failureFrom(&TimeoutError{Timeout: timeout})
	}
}
