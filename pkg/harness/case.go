// Package harness runs test cases against live automation sessions.
//
// Every case gets its own session, acquired from the registry under the
// worker's owner ID and released when the case ends. Failures capture a
// screenshot, the page source and the error text before release.
package harness

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/mobile-harness/pkg/element"
	"github.com/devicelab-dev/mobile-harness/pkg/evidence"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
	"github.com/devicelab-dev/mobile-harness/pkg/pages"
	"github.com/devicelab-dev/mobile-harness/pkg/session"
)

// Default login used by cases that only need to get past the login form.
const (
	DefaultUsername = "admin"
	DefaultPassword = "password"
)

// Case is one test.
type Case struct {
	Name        string
	Group       string // e.g. "LoginTest"; --only matches names and groups
	Description string

	// Setup runs before Run, e.g. to log in and open a tab.
	Setup func(t *T) error
	Run   func(t *T) error
}

// T is the per-case context handed to Setup and Run.
type T struct {
	ctx      context.Context
	name     string
	sess     *session.Session
	actions  *element.Actions
	tk       pages.Toolkit
	log      *logger.Logger
	recorder *evidence.Recorder
	warnings []error

	// Page slots filled in by Setup for Run.
	List     *pages.ListPage
	Buttons  *pages.ButtonsPage
	Switches *pages.SwitchesPage
	Input    *pages.InputPage
}

func (t *T) Name() string                 { return t.name }
func (t *T) Context() context.Context     { return t.ctx }
func (t *T) Session() *session.Session    { return t.sess }
func (t *T) Actions() *element.Actions    { return t.actions }
func (t *T) Toolkit() pages.Toolkit       { return t.tk }
func (t *T) Logger() *logger.Logger       { return t.log }
func (t *T) Recorder() *evidence.Recorder { return t.recorder }

// Start returns the login page the app opens on.
func (t *T) Start() *pages.LoginPage {
	return pages.Start(t.tk)
}

// Step logs a test step.
func (t *T) Step(format string, v ...interface{}) {
	t.log.Step(format, v...)
}

// Capture attaches a step screenshot. A capture problem is logged and kept
// as a warning on the case result; it never fails the case.
func (t *T) Capture(name string) {
	if err := t.recorder.Step(name); err != nil {
		t.warnings = append(t.warnings, err)
	}
}

// Login logs in and records the List tab in t.List.
func (t *T) Login(username, password string) (*pages.ListPage, error) {
	t.log.Info("Performing login...")
	t.Step("Login with username: %s", username)
	list, err := t.Start().Login(username, password)
	if err != nil {
		return nil, err
	}
	t.List = list
	return list, nil
}

// LoginDefault logs in with DefaultUsername and DefaultPassword.
func (t *T) LoginDefault() (*pages.ListPage, error) {
	return t.Login(DefaultUsername, DefaultPassword)
}

// Check returns an assertion error when ok is false.
func (t *T) Check(ok bool, format string, v ...interface{}) error {
	if ok {
		return nil
	}
	return fmt.Errorf("assertion failed: "+format, v...)
}

// Equal returns an assertion error when got != want.
func Equal[V comparable](t *T, got, want V, what string) error {
	if got == want {
		return nil
	}
	return fmt.Errorf("assertion failed: %s: got %v, want %v", what, got, want)
}
