package wait

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/driver/appium"
	"github.com/devicelab-dev/mobile-harness/pkg/driver/mock"
	"github.com/devicelab-dev/mobile-harness/pkg/locator"
	"github.com/devicelab-dev/mobile-harness/pkg/session"
)

// fakeClock advances only when slept on and runs hooks scheduled at offsets
// from its start.
type fakeClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	hooks []hook
}

type hook struct {
	at time.Duration
	fn func()
}

func newFakeClock() *fakeClock {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &fakeClock{start: t, now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	elapsed := c.now.Sub(c.start)
	var due []func()
	kept := c.hooks[:0]
	for _, h := range c.hooks {
		if h.at <= elapsed {
			due = append(due, h.fn)
		} else {
			kept = append(kept, h)
		}
	}
	c.hooks = kept
	c.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

func (c *fakeClock) At(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook{at: d, fn: fn})
}

func (c *fakeClock) Elapsed() time.Duration {
	return c.Now().Sub(c.start)
}

type fixture struct {
	srv    *mock.Server
	clock  *fakeClock
	engine *Engine
	sess   *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := mock.NewServer(mock.Config{})
	t.Cleanup(srv.Close)

	clock := newFakeClock()
	srv.SetClock(clock.Now)

	cfg := config.New(map[string]string{
		config.KeyAppiumURL: srv.URL,
		config.KeyAppPath:   "/nonexistent/app.apk",
	})
	sess, err := session.NewBuilder(nil).Build(cfg, "wait-test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	return &fixture{
		srv:    srv,
		clock:  clock,
		engine: NewEngine(3*time.Second, 500*time.Millisecond).WithClock(clock),
		sess:   sess,
	}
}

func TestEngine_VisibleAfterDelay(t *testing.T) {
	f := newFixture(t)
	f.srv.Add(mock.Element{Strategy: "id", Selector: "late", AppearAfter: 1200 * time.Millisecond})

	spec := For(locator.ID("late"), Visible).Within(3 * time.Second).Every(500 * time.Millisecond)
	el, err := f.engine.Until(f.sess, spec)
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if el.ID == "" || el.Locator != locator.ID("late") {
		t.Errorf("unexpected element %+v", el)
	}
	if polls := f.srv.Finds("late"); polls > 3 {
		t.Errorf("polled %d times, want at most 3", polls)
	}
	if got := f.clock.Elapsed(); got != 1500*time.Millisecond {
		t.Errorf("elapsed = %s, want 1.5s", got)
	}
}

func TestEngine_SuccessElapsedBounds(t *testing.T) {
	poll := 500 * time.Millisecond
	for _, appear := range []time.Duration{
		100 * time.Millisecond,
		500 * time.Millisecond,
		1200 * time.Millisecond,
		2 * time.Second,
		2900 * time.Millisecond,
	} {
		t.Run(appear.String(), func(t *testing.T) {
			f := newFixture(t)
			f.srv.Add(mock.Element{Strategy: "id", Selector: "e", AppearAfter: appear})

			if _, err := f.engine.Until(f.sess, For(locator.ID("e"), Visible)); err != nil {
				t.Fatalf("Until failed: %v", err)
			}
			elapsed := f.clock.Elapsed()
			if elapsed < poll || elapsed >= appear+poll {
				t.Errorf("elapsed %s outside [%s, %s)", elapsed, poll, appear+poll)
			}
		})
	}
}

func TestEngine_TimeoutElapsedBounds(t *testing.T) {
	poll := 500 * time.Millisecond
	for _, timeout := range []time.Duration{
		500 * time.Millisecond,
		1200 * time.Millisecond,
		3 * time.Second,
	} {
		t.Run(timeout.String(), func(t *testing.T) {
			f := newFixture(t)
			spec := For(locator.ID("never"), Visible).Within(timeout).Every(poll)

			_, err := f.engine.Until(f.sess, spec)
			if !errors.Is(err, core.ErrWaitTimeout) {
				t.Fatalf("expected ErrWaitTimeout, got %v", err)
			}
			elapsed := f.clock.Elapsed()
			if elapsed < timeout || elapsed >= timeout+poll {
				t.Errorf("elapsed %s outside [%s, %s)", elapsed, timeout, timeout+poll)
			}
		})
	}
}

func TestEngine_TimeoutErrorContext(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Until(f.sess, For(locator.ID("com.example.trusttest:id/missing"), Clickable))
	var execErr *core.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %T", err)
	}
	if execErr.Category != core.ErrCategoryTimeout {
		t.Errorf("Category = %s, want timeout", execErr.Category)
	}
	want := map[string]interface{}{
		"locator":   "By.id: com.example.trusttest:id/missing",
		"condition": "clickable",
		"timeout":   3 * time.Second,
		"poll":      500 * time.Millisecond,
		"attempts":  6,
		"last":      "not found",
	}
	for k, v := range want {
		if execErr.Details[k] != v {
			t.Errorf("Details[%s] = %v, want %v", k, execErr.Details[k], v)
		}
	}
	if !strings.Contains(err.Error(), "By.id: com.example.trusttest:id/missing") {
		t.Errorf("message should name the locator: %v", err)
	}
}

func TestEngine_ProbeMissingReturnsFalse(t *testing.T) {
	f := newFixture(t)

	ok, err := f.engine.Probe(f.sess, For(locator.ID("missing"), Visible).Within(3*time.Second))
	if err != nil {
		t.Fatalf("Probe must not raise on timeout: %v", err)
	}
	if ok {
		t.Error("Probe = true for a missing element")
	}
	if elapsed := f.clock.Elapsed(); elapsed < 3*time.Second || elapsed >= 3500*time.Millisecond {
		t.Errorf("elapsed %s outside [3s, 3.5s)", elapsed)
	}
}

func TestEngine_ProbePresent(t *testing.T) {
	f := newFixture(t)
	f.srv.Add(mock.Element{Strategy: "id", Selector: "here"})

	ok, err := f.engine.Probe(f.sess, For(locator.ID("here"), Visible))
	if err != nil || !ok {
		t.Errorf("Probe = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestEngine_VisibleRequiresNonZeroSize(t *testing.T) {
	f := newFixture(t)
	f.srv.Add(mock.Element{Strategy: "id", Selector: "flat", Rect: &appium.Rect{Width: 100}})

	_, err := f.engine.Until(f.sess, For(locator.ID("flat"), Visible).Within(time.Second))
	if !errors.Is(err, core.ErrWaitTimeout) {
		t.Fatalf("expected timeout for zero height, got %v", err)
	}
	if !strings.Contains(err.Error(), "last=zero size") {
		t.Errorf("expected zero size observation: %v", err)
	}
}

func TestEngine_PresentIgnoresVisibility(t *testing.T) {
	f := newFixture(t)
	f.srv.Add(mock.Element{Strategy: "id", Selector: "hidden", Hidden: true})

	if _, err := f.engine.Until(f.sess, For(locator.ID("hidden"), Present)); err != nil {
		t.Errorf("Present should match a hidden element: %v", err)
	}
	ok, _ := f.engine.Probe(f.sess, For(locator.ID("hidden"), Visible).Within(time.Second))
	if ok {
		t.Error("hidden element should not be visible")
	}
}

func TestEngine_ClickableWaitsForEnabled(t *testing.T) {
	f := newFixture(t)
	id := f.srv.Add(mock.Element{Strategy: "id", Selector: "submit", Disabled: true})
	f.clock.At(time.Second, func() {
		f.srv.Update(id, func(e *mock.Element) { e.Disabled = false })
	})

	el, err := f.engine.Until(f.sess, For(locator.ID("submit"), Clickable))
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if el.ID != id {
		t.Errorf("ID = %s, want %s", el.ID, id)
	}
	if got := f.clock.Elapsed(); got != time.Second {
		t.Errorf("elapsed = %s, want 1s", got)
	}
}

func TestEngine_TextPresentExactMatch(t *testing.T) {
	f := newFixture(t)
	id := f.srv.Add(mock.Element{Strategy: "id", Selector: "saveStateText", Text: "Saved "})
	f.clock.At(1500*time.Millisecond, func() {
		f.srv.Update(id, func(e *mock.Element) { e.Text = "Saved" })
	})

	spec := Spec{Locator: locator.ID("saveStateText"), Condition: TextPresent, Text: "Saved"}
	if _, err := f.engine.Until(f.sess, spec); err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if got := f.clock.Elapsed(); got != 1500*time.Millisecond {
		t.Errorf("elapsed = %s, want 1.5s", got)
	}
}

func TestEngine_TextPresentTimeoutReportsText(t *testing.T) {
	f := newFixture(t)
	f.srv.Add(mock.Element{Strategy: "id", Selector: "label", Text: "Button 1"})

	spec := Spec{Locator: locator.ID("label"), Condition: TextPresent, Text: "button 1", Timeout: time.Second}
	_, err := f.engine.Until(f.sess, spec)
	if !errors.Is(err, core.ErrWaitTimeout) {
		t.Fatalf("match must be exact, got %v", err)
	}
	if !strings.Contains(err.Error(), `last=text "Button 1"`) {
		t.Errorf("expected last observed text: %v", err)
	}
}

func TestEngine_Invisible(t *testing.T) {
	tests := []struct {
		name    string
		element *mock.Element
		elapsed time.Duration
	}{
		{"absent", nil, 500 * time.Millisecond},
		{"hidden", &mock.Element{Strategy: "id", Selector: "spinner", Hidden: true}, 500 * time.Millisecond},
		{"zero size", &mock.Element{Strategy: "id", Selector: "spinner", Rect: &appium.Rect{}}, 500 * time.Millisecond},
		{"goes away", &mock.Element{Strategy: "id", Selector: "spinner", GoneAfter: 2 * time.Second}, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.element != nil {
				f.srv.Add(*tt.element)
			}
			ok, err := f.engine.Invisible(f.sess, For(locator.ID("spinner"), Invisible))
			if err != nil || !ok {
				t.Fatalf("Invisible = (%v, %v), want (true, nil)", ok, err)
			}
			if got := f.clock.Elapsed(); got != tt.elapsed {
				t.Errorf("elapsed = %s, want %s", got, tt.elapsed)
			}
		})
	}
}

func TestEngine_InvisibleTimeout(t *testing.T) {
	f := newFixture(t)
	f.srv.Add(mock.Element{Strategy: "id", Selector: "spinner"})

	ok, err := f.engine.Invisible(f.sess, For(locator.ID("spinner"), Visible).Within(time.Second))
	if ok || !errors.Is(err, core.ErrWaitTimeout) {
		t.Fatalf("Invisible = (%v, %v), want (false, ErrWaitTimeout)", ok, err)
	}
	if !strings.Contains(err.Error(), "to be invisible") {
		t.Errorf("condition should be forced to invisible: %v", err)
	}
}

func TestEngine_ClosedSessionFailsFast(t *testing.T) {
	f := newFixture(t)
	f.srv.Add(mock.Element{Strategy: "id", Selector: "e"})
	if err := f.sess.Quit(); err != nil {
		t.Fatal(err)
	}

	_, err := f.engine.Until(f.sess, For(locator.ID("e"), Visible))
	if !errors.Is(err, core.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if f.clock.Elapsed() != 0 {
		t.Errorf("closed session should not poll, elapsed %s", f.clock.Elapsed())
	}

	ok, err := f.engine.Probe(f.sess, For(locator.ID("e"), Visible))
	if ok || !errors.Is(err, core.ErrSessionClosed) {
		t.Errorf("Probe on closed session = (%v, %v)", ok, err)
	}
}

func TestEngine_UnreachableServerAborts(t *testing.T) {
	f := newFixture(t)
	f.srv.Close()

	_, err := f.engine.Until(f.sess, For(locator.ID("e"), Visible).Within(10*time.Second))
	if !errors.Is(err, core.ErrServerUnreachable) {
		t.Fatalf("expected ErrServerUnreachable, got %v", err)
	}
	if got := f.clock.Elapsed(); got != 500*time.Millisecond {
		t.Errorf("should abort after one attempt, elapsed %s", got)
	}
}

func TestEngine_FromConfig(t *testing.T) {
	e := FromConfig(config.New(map[string]string{
		config.KeyExplicitWait: "20",
		config.KeyPollInterval: "250",
	}))
	if e.Timeout() != 20*time.Second || e.PollInterval() != 250*time.Millisecond {
		t.Errorf("timing = (%s, %s)", e.Timeout(), e.PollInterval())
	}

	d := NewEngine(0, 0)
	if d.Timeout() != DefaultTimeout || d.PollInterval() != DefaultPollInterval {
		t.Errorf("defaults = (%s, %s)", d.Timeout(), d.PollInterval())
	}
}

func TestCondition_String(t *testing.T) {
	tests := map[Condition]string{
		Visible:       "visible",
		Clickable:     "clickable",
		Invisible:     "invisible",
		TextPresent:   "text-present",
		Present:       "present",
		Condition(99): "unknown",
	}
	for c, want := range tests {
		if got := c.String(); got != want {
			t.Errorf("Condition(%d).String() = %s, want %s", c, got, want)
		}
	}
}
