package wait

import (
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/locator"
)

// Condition is what a wait polls for.
type Condition int

const (
	// Visible: located, displayed and rendered with non-zero size.
	Visible Condition = iota
	// Clickable: Visible and enabled.
	Clickable
	// Invisible: absent, hidden or zero-sized.
	Invisible
	// TextPresent: located and its text equals Spec.Text exactly.
	TextPresent
	// Present: exists in the UI tree, visible or not.
	Present
)

func (c Condition) String() string {
	switch c {
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	case Invisible:
		return "invisible"
	case TextPresent:
		return "text-present"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Spec describes one wait. Zero Timeout and PollInterval take the engine defaults.
type Spec struct {
	Locator      locator.Locator
	Condition    Condition
	Text         string // Expected text for TextPresent
	Timeout      time.Duration
	PollInterval time.Duration
}

// For returns a Spec for loc and cond with engine default timing.
func For(loc locator.Locator, cond Condition) Spec {
	return Spec{Locator: loc, Condition: cond}
}

// Within returns a copy of s with the given timeout.
func (s Spec) Within(timeout time.Duration) Spec {
	s.Timeout = timeout
	return s
}

// Every returns a copy of s with the given poll interval.
func (s Spec) Every(poll time.Duration) Spec {
	s.PollInterval = poll
	return s
}

// Element is an element reference resolved by a successful wait.
// It is valid only until the UI changes; resolve again for the next operation.
type Element struct {
	ID      string
	Locator locator.Locator
}
