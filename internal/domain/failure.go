package domain

// FailureType classifies why a test or suite failed
type FailureType string

const (
	// FailureAssertion is an expectation mismatch reported by the test body
	FailureAssertion FailureType = "assertion"
	// FailureException is any other error or panic raised by a body or hook
	FailureException FailureType = "exception"
	// FailureTimeout means the body did not finish before its deadline
	FailureTimeout FailureType = "timeout"
	// FailureSetup marks a suite whose setup hook failed, so none of its children ran
	FailureSetup FailureType = "setup"
)

// Failure is the failure record attached to a failed test or suite.
// Expected and Actual are nil unless the failure carries them.
type Failure struct {
	Type     FailureType `json:"type"`
	Message  string      `json:"message"`
	Expected any         `json:"expected"`
	Actual   any         `json:"actual"`
}
