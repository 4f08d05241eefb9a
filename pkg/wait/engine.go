// Package wait implements polling waits against a live session.
//
// Every wait is poll-then-check: sleep one poll interval (never past the
// deadline), evaluate the condition, repeat. The last evaluation happens at
// or after the deadline, so a condition that never holds fails in
// [timeout, timeout+poll) and one that holds at t succeeds in [poll, t+poll).
//
// Until is the strict form and returns core.ErrWaitTimeout. Probe is the
// probing form and reports false instead.
package wait

import (
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/driver/appium"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
	"github.com/devicelab-dev/mobile-harness/pkg/session"
)

// Defaults used when neither the Spec nor the config sets timing.
const (
	DefaultTimeout      = 15 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// Clock is the time source a wait sleeps on.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Engine runs waits. It holds no session; callers pass theirs per call.
// An Engine is safe for concurrent use.
type Engine struct {
	timeout time.Duration
	poll    time.Duration
	clock   Clock
	log     *logger.Logger
}

// NewEngine creates an engine with the given defaults (zero values use
// DefaultTimeout and DefaultPollInterval).
func NewEngine(timeout, poll time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Engine{timeout: timeout, poll: poll, clock: realClock{}, log: logger.Nop()}
}

// FromConfig creates an engine using explicit.wait and poll.interval.
func FromConfig(cfg *config.Config) *Engine {
	return NewEngine(cfg.ExplicitWait(), cfg.PollInterval())
}

// WithClock replaces the clock.
func (e *Engine) WithClock(c Clock) *Engine {
	e.clock = c
	return e
}

// WithLogger sets the logger used for DEBUG wait traces.
func (e *Engine) WithLogger(l *logger.Logger) *Engine {
	if l != nil {
		e.log = l
	}
	return e
}

// Timeout returns the default timeout.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// PollInterval returns the default poll interval.
func (e *Engine) PollInterval() time.Duration { return e.poll }

// Clock returns the engine clock.
func (e *Engine) Clock() Clock { return e.clock }

// Until blocks until spec holds and returns the matched element.
// For Invisible the returned Element is zero.
func (e *Engine) Until(s *session.Session, spec Spec) (Element, error) {
	return e.run(s, spec)
}

// Probe reports whether spec holds within its timeout. A timeout is false,
// not an error; err is set only when the session is closed or the server
// cannot be reached.
func (e *Engine) Probe(s *session.Session, spec Spec) (bool, error) {
	_, err := e.run(s, spec)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, core.ErrWaitTimeout) {
		e.log.Debug("Probe for %s to be %s returned false", spec.Locator, spec.Condition)
		return false, nil
	}
	return false, err
}

// Invisible waits until the element is absent or not rendered. It returns
// true on success and core.ErrWaitTimeout when it stays visible.
func (e *Engine) Invisible(s *session.Session, spec Spec) (bool, error) {
	spec.Condition = Invisible
	if _, err := e.run(s, spec); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) timing(spec Spec) (time.Duration, time.Duration) {
	timeout, poll := spec.Timeout, spec.PollInterval
	if timeout <= 0 {
		timeout = e.timeout
	}
	if poll <= 0 {
		poll = e.poll
	}
	return timeout, poll
}

func (e *Engine) run(s *session.Session, spec Spec) (Element, error) {
	timeout, poll := e.timing(spec)
	e.log.Debug("Waiting for %s to be %s (timeout %s)", spec.Locator, spec.Condition, timeout)

	if _, err := s.Remote(); err != nil {
		return Element{}, err
	}

	deadline := e.clock.Now().Add(timeout)
	attempts := 0
	last := ""
	for {
		sleep := poll
		if remaining := deadline.Sub(e.clock.Now()); remaining < sleep {
			sleep = remaining
		}
		if sleep > 0 {
			e.clock.Sleep(sleep)
		}

		// Re-check liveness every attempt so a wait never outlives its session.
		remote, err := s.Remote()
		if err != nil {
			return Element{}, err
		}

		attempts++
		el, ok, observation, err := check(remote, spec)
		if err != nil {
			return Element{}, e.abort(spec, err)
		}
		if ok {
			return el, nil
		}
		last = observation

		if !e.clock.Now().Before(deadline) {
			return Element{}, core.ErrWaitTimeout.
				WithMessage(fmt.Sprintf("timed out after %s waiting for %s to be %s", timeout, spec.Locator, spec.Condition)).
				WithDetails(map[string]interface{}{
					"locator":   spec.Locator.String(),
					"condition": spec.Condition.String(),
					"timeout":   timeout,
					"poll":      poll,
					"attempts":  attempts,
					"last":      last,
				})
		}
	}
}

// abort turns a non-retryable remote error into the harness taxonomy.
func (e *Engine) abort(spec Spec, err error) error {
	details := map[string]interface{}{
		"locator":   spec.Locator.String(),
		"condition": spec.Condition.String(),
	}
	if !appium.IsWebDriverError(err) {
		return core.ErrServerUnreachable.WithDetails(details).WithCause(err)
	}
	return core.ErrSessionClosed.WithDetails(details).WithCause(err)
}

// check evaluates spec once. It returns ok=false with an observation for
// "not yet" states and an error only for states polling cannot fix.
func check(r session.Remote, spec Spec) (Element, bool, string, error) {
	loc := spec.Locator
	id, err := r.FindElement(string(loc.Strategy), loc.Selector)
	if err != nil {
		if spec.Condition == Invisible && appium.IsNoSuchElement(err) {
			return Element{}, true, "", nil
		}
		return notYet(err, "not found")
	}
	el := Element{ID: id, Locator: loc}

	switch spec.Condition {
	case Present:
		return el, true, "", nil

	case TextPresent:
		text, err := r.GetElementText(id)
		if err != nil {
			return notYet(err, "text unreadable")
		}
		if text != spec.Text {
			return Element{}, false, fmt.Sprintf("text %q", text), nil
		}
		return el, true, "", nil

	case Invisible:
		visible, _, err := rendered(r, id)
		if err != nil {
			if appium.IsNoSuchElement(err) || appium.IsStaleElement(err) {
				return Element{}, true, "", nil
			}
			return notYet(err, "state unreadable")
		}
		if !visible {
			return Element{}, true, "", nil
		}
		return Element{}, false, "still visible", nil

	case Clickable:
		visible, observation, err := rendered(r, id)
		if err != nil {
			return notYet(err, "not rendered")
		}
		if !visible {
			return Element{}, false, observation, nil
		}
		enabled, err := r.IsElementEnabled(id)
		if err != nil {
			return notYet(err, "enabled unreadable")
		}
		if !enabled {
			return Element{}, false, "disabled", nil
		}
		return el, true, "", nil

	default: // Visible
		visible, observation, err := rendered(r, id)
		if err != nil {
			return notYet(err, "not rendered")
		}
		if !visible {
			return Element{}, false, observation, nil
		}
		return el, true, "", nil
	}
}

// rendered reports whether id is displayed with a non-zero size.
func rendered(r session.Remote, id string) (bool, string, error) {
	displayed, err := r.IsElementDisplayed(id)
	if err != nil {
		return false, "", err
	}
	if !displayed {
		return false, "not displayed", nil
	}
	rect, err := r.GetElementRect(id)
	if err != nil {
		return false, "", err
	}
	if rect.Width <= 0 || rect.Height <= 0 {
		return false, "zero size", nil
	}
	return true, "", nil
}

func notYet(err error, observation string) (Element, bool, string, error) {
	if retryable(err) {
		return Element{}, false, observation, nil
	}
	return Element{}, false, "", err
}

// retryable reports whether a remote error may clear up on the next poll.
// Missing and stale elements, plus any W3C error other than a dead session,
// are retried; transport failures are not.
func retryable(err error) bool {
	if appium.IsNoSuchElement(err) || appium.IsStaleElement(err) {
		return true
	}
	var wdErr *appium.WebDriverError
	if errors.As(err, &wdErr) {
		return wdErr.Code != appium.ErrCodeInvalidSession
	}
	return false
}
