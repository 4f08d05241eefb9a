package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestExecutionError_ErrorWithDetailsIsSorted(t *testing.T) {
	err := ErrWaitTimeout.WithDetails(map[string]interface{}{
		"timeout":   "3s",
		"condition": "visible",
		"locator":   "By.id: submit",
	})

	want := "wait condition timed out [condition=visible, locator=By.id: submit, timeout=3s]"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	original := ErrSessionCreation
	cause := errors.New("dial tcp: connection refused")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Error("WithCause() changed code")
	}
	if original.Cause != nil {
		t.Error("WithCause() modified original error")
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	original := ErrWaitTimeout
	newErr := original.WithMessage("custom timeout message")

	if newErr.Message != "custom timeout message" {
		t.Errorf("Message = %q, want 'custom timeout message'", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == "custom timeout message" {
		t.Error("WithMessage() modified original error")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	original := &ExecutionError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{
		"locator": "By.id: button1",
		"timeout": 5000,
	})

	if newErr.Details["locator"] != "By.id: button1" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["locator"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestExecutionError_IsMatchesCopies(t *testing.T) {
	err := ErrWaitTimeout.
		WithDetails(map[string]interface{}{"condition": "visible"}).
		WithCause(errors.New("no such element"))

	if !errors.Is(err, ErrWaitTimeout) {
		t.Error("errors.Is(copy, ErrWaitTimeout) = false, want true")
	}
	if errors.Is(err, ErrSessionClosed) {
		t.Error("errors.Is(copy, ErrSessionClosed) = true, want false")
	}

	wrapped := fmt.Errorf("step failed: %w", err)
	if !errors.Is(wrapped, ErrWaitTimeout) {
		t.Error("errors.Is should see through fmt.Errorf wrapping")
	}
}

func TestExecutionError_ErrorsIsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrWaitTimeout.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrInvalidConfig, ErrCategoryConfig, "invalid_config"},
		{ErrSessionCreation, ErrCategorySession, "session_creation"},
		{ErrSessionClosed, ErrCategorySession, "session_closed"},
		{ErrWaitTimeout, ErrCategoryTimeout, "wait_timeout"},
		{ErrElementNotFound, ErrCategoryAssertion, "element_not_found"},
		{ErrPageNotLoaded, ErrCategoryAssertion, "page_not_loaded"},
		{ErrServerUnreachable, ErrCategoryConnection, "server_unreachable"},
		{ErrTeardown, ErrCategoryTeardown, "teardown"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(ErrCategoryAssertion, "custom_error", "custom message")

	if err.Category != ErrCategoryAssertion {
		t.Errorf("Category = %s, want %s", err.Category, ErrCategoryAssertion)
	}
	if err.Code != "custom_error" {
		t.Errorf("Code = %s, want 'custom_error'", err.Code)
	}
	if err.Message != "custom message" {
		t.Errorf("Message = %s, want 'custom message'", err.Message)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrCategoryNone},
		{"plain error", errors.New("boom"), ErrCategoryAssertion},
		{"timeout", ErrWaitTimeout, ErrCategoryTimeout},
		{"wrapped session", fmt.Errorf("acquire: %w", ErrSessionCreation), ErrCategorySession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
