package suite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/driver/mock"
	"github.com/devicelab-dev/mobile-harness/pkg/evidence"
	"github.com/devicelab-dev/mobile-harness/pkg/harness"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
	"github.com/devicelab-dev/mobile-harness/pkg/session"
	"github.com/devicelab-dev/mobile-harness/pkg/wait"
)

type instantClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *instantClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *instantClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func run(t *testing.T, cases []harness.Case) (*harness.RunResult, *mock.App, *evidence.MemorySink) {
	t.Helper()
	srv := mock.NewServer(mock.Config{})
	t.Cleanup(srv.Close)
	app := mock.InstallApp(srv)

	cfg := config.New(map[string]string{
		config.KeyAppiumURL: srv.URL,
		config.KeyAppPath:   "/nonexistent/app.apk",
	})
	log := logger.Nop()
	sink := &evidence.MemorySink{}
	runner := harness.NewRunner(session.NewRegistry(session.NewBuilder(log), cfg, log), cfg, log, harness.Options{
		Sink:   sink,
		Engine: wait.NewEngine(2*time.Second, 500*time.Millisecond).WithClock(&instantClock{now: time.Unix(0, 0)}),
		Sleep:  func(time.Duration) {},
	})
	result, err := runner.Run(context.Background(), cases)
	if err != nil {
		t.Fatal(err)
	}
	return result, app, sink
}

func TestAll_PassAgainstSimulatedApp(t *testing.T) {
	result, _, sink := run(t, All())

	for _, c := range result.Cases {
		if c.Status != core.StatusPassed {
			t.Errorf("%s: %s: %v", c.Name, c.Status, c.Err)
		}
	}
	if !result.Success() {
		t.Fatalf("suite failed: %d passed of %d", result.Passed, result.Total)
	}
	if len(sink.ByTest("testLoginPageDisplayed")) != 1 {
		t.Error("step capture missing for testLoginPageDisplayed")
	}
}

func TestAll_FailureIsReported(t *testing.T) {
	c, ok := ByName("testListItemsDisplayed")
	if !ok {
		t.Fatal("case not found")
	}
	srv := mock.NewServer(mock.Config{})
	defer srv.Close()

	// Without the app there is no login form: setup times out.
	cfg := config.New(map[string]string{config.KeyAppiumURL: srv.URL, config.KeyAppPath: "/nonexistent/app.apk"})
	log := logger.Nop()
	sink := &evidence.MemorySink{}
	runner := harness.NewRunner(session.NewRegistry(session.NewBuilder(log), cfg, log), cfg, log, harness.Options{
		Sink:   sink,
		Engine: wait.NewEngine(time.Second, 500*time.Millisecond).WithClock(&instantClock{now: time.Unix(0, 0)}),
		Sleep:  func(time.Duration) {},
	})
	result, err := runner.Run(context.Background(), []harness.Case{c})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cases[0].Status != core.StatusErrored {
		t.Errorf("status = %s, want errored", result.Cases[0].Status)
	}
	if len(sink.ByTest(c.Name)) != 3 {
		t.Errorf("failure evidence = %d attachments, want 3", len(sink.ByTest(c.Name)))
	}
}

func TestAll_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range All() {
		if c.Name == "" || c.Group == "" || c.Run == nil {
			t.Errorf("incomplete case %+v", c)
		}
		if seen[c.Name] {
			t.Errorf("duplicate case %s", c.Name)
		}
		seen[c.Name] = true
	}
	if len(seen) != 22 {
		t.Errorf("got %d cases, want 22", len(seen))
	}
}

func TestFilter(t *testing.T) {
	all := All()
	if got := Filter(all, nil); len(got) != len(all) {
		t.Errorf("empty filter kept %d of %d", len(got), len(all))
	}
	if got := Filter(all, []string{"switchestest"}); len(got) != 7 {
		t.Errorf("group filter kept %d, want 7", len(got))
	}
	got := Filter(all, []string{"testButtonText", "testInputZeroValue"})
	if len(got) != 2 || got[0].Name != "testButtonText" {
		t.Errorf("name filter = %v", got)
	}
	if len(Filter(all, []string{"nothing"})) != 0 {
		t.Error("unknown name should match nothing")
	}
}

func TestGroups(t *testing.T) {
	want := []string{"ButtonsTest", "InputTest", "ListTest", "LoginTest", "SwitchesTest"}
	got := Groups()
	if len(got) != len(want) {
		t.Fatalf("Groups = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Groups[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSwitchToggleLeavesAppState(t *testing.T) {
	c, _ := ByName("testSwitch2Toggle")
	result, app, _ := run(t, []harness.Case{c})
	if result.Cases[0].Status != core.StatusPassed {
		t.Fatalf("toggle case: %v", result.Cases[0].Err)
	}
	if app.Screen() != mock.ScreenSwitches {
		t.Errorf("screen = %s, want switches", app.Screen())
	}
}
