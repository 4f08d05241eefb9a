// Package pages is the navigation graph of the app under test.
//
// Each page is a small struct holding a Toolkit. Actions return errors;
// navigation methods click, wait the settle delay and return the target page
// without checking it loaded. Wrap a navigation in Verify when the caller
// needs that guarantee.
package pages

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/element"
	"github.com/devicelab-dev/mobile-harness/pkg/locator"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
)

// Probe timeouts used by readiness and display checks.
const (
	LoginLoadTimeout = 10 * time.Second
	PageLoadTimeout  = 5 * time.Second
	DisplayTimeout   = 3 * time.Second
)

// Fixed delays after actions whose effect the app renders asynchronously.
// The config keys login.delay and save.delay override them.
const (
	DefaultLoginDelay = config.DefaultLoginDelay * time.Millisecond
	DefaultSaveDelay  = config.DefaultSaveDelay * time.Millisecond
)

// Node is one UI state of the app.
type Node interface {
	Name() string
	IsLoaded() bool
}

// Toolkit is what every page is built from.
type Toolkit struct {
	Actions    *element.Actions
	Settle     time.Duration // After tab switches
	LoginDelay time.Duration // After submitting the login form
	SaveDelay  time.Duration // After saving switch state
	Sleep      func(time.Duration)
}

// NewToolkit builds a toolkit from the action layer and config.
func NewToolkit(a *element.Actions, cfg *config.Config) Toolkit {
	return Toolkit{
		Actions:    a,
		Settle:     cfg.SettleDelay(),
		LoginDelay: cfg.LoginDelay(),
		SaveDelay:  cfg.SaveDelay(),
		Sleep:      time.Sleep,
	}
}

func (tk Toolkit) log() *logger.Logger { return tk.Actions.Logger() }

// Pause sleeps d on the toolkit's sleeper.
func (tk Toolkit) Pause(d time.Duration) {
	if d <= 0 {
		return
	}
	if tk.Sleep == nil {
		time.Sleep(d)
		return
	}
	tk.Sleep(d)
}

// readiness is the error-returning form of IsLoaded.
type readiness interface {
	loaded() (bool, error)
}

func (tk Toolkit) probe(loc locator.Locator, timeout time.Duration) (bool, error) {
	return tk.Actions.IsDisplayed(loc, timeout)
}

// held collapses a check to a bool, logging err at WARN.
func (tk Toolkit) held(ok bool, err error) bool {
	if err != nil {
		tk.log().Warn("Check failed: %v", err)
		return false
	}
	return ok
}

func (tk Toolkit) displayed(loc locator.Locator, timeout time.Duration) bool {
	return tk.held(tk.probe(loc, timeout))
}

// Start returns the first page of the app.
func Start(tk Toolkit) *LoginPage {
	return &LoginPage{tk: tk}
}

// Verify passes through a navigation result, failing with
// core.ErrPageNotLoaded if the target page is not loaded. A closed session or
// unreachable server is returned as that error, not as a missing page.
//
//	buttons, err := pages.Verify(list.ToButtons())
func Verify[N Node](n N, err error) (N, error) {
	var zero N
	if err != nil {
		return n, err
	}
	ok := false
	if r, isReady := any(n).(readiness); isReady {
		if ok, err = r.loaded(); err != nil {
			return zero, fmt.Errorf("check %s loaded: %w", n.Name(), err)
		}
	} else {
		ok = n.IsLoaded()
	}
	if !ok {
		return zero, core.ErrPageNotLoaded.WithDetails(map[string]interface{}{"page": n.Name()})
	}
	return n, nil
}

// Tab is a bottom navigation tab.
type Tab string

const (
	TabList     Tab = "List"
	TabButtons  Tab = "Buttons"
	TabSwitches Tab = "Switches"
	TabInput    Tab = "Input"
)

// Locator returns the tab's locator.
func (t Tab) Locator() locator.Locator {
	return locator.XPath("//android.widget.LinearLayout[@content-desc='" + string(t) + "']")
}

func (tk Toolkit) openTab(t Tab) error {
	tk.log().Step("Navigating to %s tab", t)
	if err := tk.Actions.Click(t.Locator()); err != nil {
		return err
	}
	tk.Pause(tk.Settle)
	return nil
}

func toList(tk Toolkit) (*ListPage, error) {
	if err := tk.openTab(TabList); err != nil {
		return nil, err
	}
	return &ListPage{tk: tk}, nil
}

func toButtons(tk Toolkit) (*ButtonsPage, error) {
	if err := tk.openTab(TabButtons); err != nil {
		return nil, err
	}
	return &ButtonsPage{tk: tk}, nil
}

func toSwitches(tk Toolkit) (*SwitchesPage, error) {
	if err := tk.openTab(TabSwitches); err != nil {
		return nil, err
	}
	return &SwitchesPage{tk: tk}, nil
}

func toInput(tk Toolkit) (*InputPage, error) {
	if err := tk.openTab(TabInput); err != nil {
		return nil, err
	}
	return &InputPage{tk: tk}, nil
}
