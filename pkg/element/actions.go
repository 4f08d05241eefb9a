// Package element provides the primitive UI operations page objects are
// built from. Every operation resolves its locator through a wait first;
// FindAll is the only unconditioned query.
package element

import (
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/locator"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
	"github.com/devicelab-dev/mobile-harness/pkg/session"
	"github.com/devicelab-dev/mobile-harness/pkg/wait"
)

// DefaultProbeTimeout bounds IsDisplayed when no timeout is given.
const DefaultProbeTimeout = 3 * time.Second

// Actions binds a session to a wait engine. It holds a non-owning
// reference to the session and stops working once the session is released.
type Actions struct {
	sess   *session.Session
	engine *wait.Engine
	log    *logger.Logger
}

// New creates an action layer over sess.
func New(sess *session.Session, engine *wait.Engine, log *logger.Logger) *Actions {
	if log == nil {
		log = logger.Nop()
	}
	return &Actions{sess: sess, engine: engine, log: log}
}

// Session returns the bound session.
func (a *Actions) Session() *session.Session { return a.sess }

// Engine returns the wait engine.
func (a *Actions) Engine() *wait.Engine { return a.engine }

// Logger returns the logger.
func (a *Actions) Logger() *logger.Logger { return a.log }

// Find waits for loc to be visible.
func (a *Actions) Find(loc locator.Locator) (wait.Element, error) {
	a.log.Debug("Finding element: %s", loc)
	return a.engine.Until(a.sess, wait.For(loc, wait.Visible))
}

// FindAll returns every element matching loc right now, without waiting.
// Wait for the container first.
func (a *Actions) FindAll(loc locator.Locator) ([]wait.Element, error) {
	a.log.Debug("Finding elements: %s", loc)
	remote, err := a.sess.Remote()
	if err != nil {
		return nil, err
	}
	ids, err := remote.FindElements(string(loc.Strategy), loc.Selector)
	if err != nil {
		return nil, fmt.Errorf("find elements %s: %w", loc, err)
	}
	out := make([]wait.Element, len(ids))
	for i, id := range ids {
		out[i] = wait.Element{ID: id, Locator: loc}
	}
	return out, nil
}

// Click waits for loc to be clickable and clicks it.
func (a *Actions) Click(loc locator.Locator) error {
	a.log.Step("Clicking element: %s", loc)
	el, err := a.engine.Until(a.sess, wait.For(loc, wait.Clickable))
	if err != nil {
		return err
	}
	return a.ClickElement(el)
}

// ClickText clicks the element whose text equals text.
func (a *Actions) ClickText(text string) error {
	return a.Click(locator.Text(text))
}

// ClickElement clicks an element already resolved by FindAll or a wait.
func (a *Actions) ClickElement(el wait.Element) error {
	remote, err := a.sess.Remote()
	if err != nil {
		return err
	}
	if err := remote.ClickElement(el.ID); err != nil {
		return fmt.Errorf("click %s: %w", el.Locator, err)
	}
	return nil
}

// Type waits for loc to be visible, clears it and types text.
func (a *Actions) Type(loc locator.Locator, text string) error {
	a.log.Step("Entering text into: %s", loc)
	el, err := a.Find(loc)
	if err != nil {
		return err
	}
	remote, err := a.sess.Remote()
	if err != nil {
		return err
	}
	if err := remote.ClearElement(el.ID); err != nil {
		return fmt.Errorf("clear %s: %w", loc, err)
	}
	if err := remote.SendKeysToElement(el.ID, text); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// Clear waits for loc to be visible and clears it.
func (a *Actions) Clear(loc locator.Locator) error {
	a.log.Step("Clearing text from: %s", loc)
	el, err := a.Find(loc)
	if err != nil {
		return err
	}
	remote, err := a.sess.Remote()
	if err != nil {
		return err
	}
	if err := remote.ClearElement(el.ID); err != nil {
		return fmt.Errorf("clear %s: %w", loc, err)
	}
	return nil
}

// Text returns the text of the visible element at loc.
func (a *Actions) Text(loc locator.Locator) (string, error) {
	a.log.Debug("Getting text from: %s", loc)
	el, err := a.Find(loc)
	if err != nil {
		return "", err
	}
	return a.ElementText(el)
}

// ElementText returns the text of a resolved element.
func (a *Actions) ElementText(el wait.Element) (string, error) {
	remote, err := a.sess.Remote()
	if err != nil {
		return "", err
	}
	text, err := remote.GetElementText(el.ID)
	if err != nil {
		return "", fmt.Errorf("get text of %s: %w", el.Locator, err)
	}
	return text, nil
}

// Attribute returns the named attribute of the visible element at loc.
func (a *Actions) Attribute(loc locator.Locator, name string) (string, error) {
	el, err := a.Find(loc)
	if err != nil {
		return "", err
	}
	remote, err := a.sess.Remote()
	if err != nil {
		return "", err
	}
	value, err := remote.GetElementAttribute(el.ID, name)
	if err != nil {
		return "", fmt.Errorf("get attribute %q of %s: %w", name, loc, err)
	}
	return value, nil
}

// IsEnabled reports whether the visible element at loc is enabled.
// An element that never becomes visible is reported as not enabled.
func (a *Actions) IsEnabled(loc locator.Locator) (bool, error) {
	return a.state(loc, func(r session.Remote, id string) (bool, error) {
		return r.IsElementEnabled(id)
	})
}

// IsSelected reports whether the visible element at loc is selected.
// An element that never becomes visible is reported as not selected.
func (a *Actions) IsSelected(loc locator.Locator) (bool, error) {
	return a.state(loc, func(r session.Remote, id string) (bool, error) {
		return r.IsElementSelected(id)
	})
}

func (a *Actions) state(loc locator.Locator, read func(session.Remote, string) (bool, error)) (bool, error) {
	el, err := a.Find(loc)
	if err != nil {
		if errors.Is(err, core.ErrWaitTimeout) {
			return false, nil
		}
		return false, err
	}
	remote, err := a.sess.Remote()
	if err != nil {
		return false, err
	}
	v, err := read(remote, el.ID)
	if err != nil {
		return false, fmt.Errorf("read state of %s: %w", loc, err)
	}
	return v, nil
}

// IsDisplayed probes whether loc becomes visible within timeout
// (DefaultProbeTimeout when zero). Not appearing is false, not an error.
func (a *Actions) IsDisplayed(loc locator.Locator, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ok, err := a.engine.Probe(a.sess, wait.For(loc, wait.Visible).Within(timeout))
	if err == nil && !ok {
		a.log.Debug("Element not displayed: %s", loc)
	}
	return ok, err
}

// WaitVisible waits for loc to be visible.
func (a *Actions) WaitVisible(loc locator.Locator) (wait.Element, error) {
	return a.engine.Until(a.sess, wait.For(loc, wait.Visible))
}

// WaitClickable waits for loc to be clickable.
func (a *Actions) WaitClickable(loc locator.Locator) (wait.Element, error) {
	return a.engine.Until(a.sess, wait.For(loc, wait.Clickable))
}

// WaitInvisible waits for loc to disappear.
func (a *Actions) WaitInvisible(loc locator.Locator) (bool, error) {
	return a.engine.Invisible(a.sess, wait.For(loc, wait.Invisible))
}

// WaitText waits for any element showing exactly text to be visible.
func (a *Actions) WaitText(text string) error {
	_, err := a.engine.Until(a.sess, wait.For(locator.Text(text), wait.Visible))
	return err
}

// WaitTextIn waits for the element at loc to show exactly text.
func (a *Actions) WaitTextIn(loc locator.Locator, text string) error {
	_, err := a.engine.Until(a.sess, wait.Spec{Locator: loc, Condition: wait.TextPresent, Text: text})
	return err
}

// HideKeyboard dismisses the soft keyboard. A keyboard that is not shown
// is not an error; only a closed session is.
func (a *Actions) HideKeyboard() error {
	remote, err := a.sess.Remote()
	if err != nil {
		return err
	}
	if _, err := remote.ExecuteMobile("hideKeyboard", nil); err != nil {
		a.log.Debug("Keyboard not visible or already hidden")
		return nil
	}
	a.log.Debug("Keyboard hidden")
	return nil
}

// Back presses the system back button.
func (a *Actions) Back() error {
	a.log.Step("Pressing back button")
	remote, err := a.sess.Remote()
	if err != nil {
		return err
	}
	return remote.Back()
}

// Screenshot captures the screen as PNG.
func (a *Actions) Screenshot() ([]byte, error) {
	remote, err := a.sess.Remote()
	if err != nil {
		return nil, err
	}
	return remote.Screenshot()
}

// Source returns the page source XML.
func (a *Actions) Source() (string, error) {
	remote, err := a.sess.Remote()
	if err != nil {
		return "", err
	}
	return remote.Source()
}
