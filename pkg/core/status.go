package core

// TestStatus represents the execution status of a test case
type TestStatus int

const (
	StatusPending TestStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Assertion failed (expected behavior didn't occur)
	StatusErrored                   // Unexpected error (session, timeout, panic)
	StatusSkipped                   // Not executed
)

// String returns the string representation of TestStatus
func (s TestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s TestStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the test passed
func (s TestStatus) IsSuccess() bool {
	return s == StatusPassed
}

// StatusFromError maps a test's returned error to its final status.
// Timeouts, session and connection problems are errored; everything
// else is treated as a failed assertion.
func StatusFromError(err error) TestStatus {
	if err == nil {
		return StatusPassed
	}
	switch CategoryOf(err) {
	case ErrCategoryTimeout, ErrCategorySession, ErrCategoryConnection, ErrCategoryConfig:
		return StatusErrored
	default:
		return StatusFailed
	}
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Element not found, text mismatch, visibility check failed
	ErrCategoryTimeout                         // Wait condition never held
	ErrCategoryConnection                      // Server connection lost
	ErrCategorySession                         // Session could not be created or is closed
	ErrCategoryConfig                          // Invalid configuration
	ErrCategoryTeardown                        // Quit/evidence failures, logged only
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategorySession:
		return "session"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}
