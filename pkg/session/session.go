// Package session owns the lifecycle of Appium sessions: building them from
// configuration, handing one to each test owner, and tearing them down.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/driver/appium"
)

// Remote is the automation server surface used by the harness.
// *appium.Client implements it.
type Remote interface {
	SessionID() string
	DeleteSession() error

	FindElement(strategy, value string) (string, error)
	FindElements(strategy, value string) ([]string, error)
	ClickElement(elementID string) error
	ClearElement(elementID string) error
	SendKeysToElement(elementID, text string) error
	GetElementText(elementID string) (string, error)
	GetElementAttribute(elementID, name string) (string, error)
	GetElementRect(elementID string) (appium.Rect, error)
	IsElementDisplayed(elementID string) (bool, error)
	IsElementEnabled(elementID string) (bool, error)
	IsElementSelected(elementID string) (bool, error)

	Screenshot() ([]byte, error)
	Source() (string, error)
	Back() error
	ExecuteMobile(command string, args map[string]interface{}) (interface{}, error)
	SetImplicitWait(timeout time.Duration) error
}

// Session is a handle to one live remote automation session. It is owned by
// exactly one test owner and becomes unusable once Quit is called.
type Session struct {
	id           string
	owner        string
	platform     Platform
	caps         Capabilities
	implicitWait time.Duration
	created      time.Time

	mu     sync.Mutex
	remote Remote
}

// ID returns the server-assigned session ID.
func (s *Session) ID() string { return s.id }

// Owner returns the owner the session was built for.
func (s *Session) Owner() string { return s.owner }

// Platform returns the session platform.
func (s *Session) Platform() Platform { return s.platform }

// Capabilities returns a copy of the requested capabilities.
func (s *Session) Capabilities() Capabilities { return s.caps.Clone() }

// ImplicitWait returns the implicit wait applied at creation.
func (s *Session) ImplicitWait() time.Duration { return s.implicitWait }

// Created returns when the session was created.
func (s *Session) Created() time.Time { return s.created }

// Remote returns the live client, or core.ErrSessionClosed after Quit.
func (s *Session) Remote() (Remote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == nil {
		return nil, core.ErrSessionClosed.WithDetails(map[string]interface{}{"session": s.id})
	}
	return s.remote, nil
}

// Live reports whether Quit has not been called yet.
func (s *Session) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote != nil
}

// Quit ends the remote session. Only the first call talks to the server;
// the session is unusable afterwards even if the server call fails.
func (s *Session) Quit() error {
	s.mu.Lock()
	remote := s.remote
	s.remote = nil
	s.mu.Unlock()

	if remote == nil {
		return nil
	}
	if err := remote.DeleteSession(); err != nil {
		return core.ErrTeardown.
			WithMessage("failed to quit session").
			WithDetails(map[string]interface{}{"session": s.id}).
			WithCause(err)
	}
	return nil
}

func (s *Session) String() string {
	return fmt.Sprintf("%s session %s", s.platform, s.id)
}
