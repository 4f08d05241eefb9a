package pages

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/driver/mock"
	"github.com/devicelab-dev/mobile-harness/pkg/element"
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

type fixture struct {
	srv    *mock.Server
	app    *mock.App
	tk     Toolkit
	out    *bytes.Buffer
	sleeps []time.Duration
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := mock.NewServer(mock.Config{})
	t.Cleanup(srv.Close)
	f := &fixture{srv: srv, app: mock.InstallApp(srv), out: &bytes.Buffer{}}

	cfg := config.New(map[string]string{
		config.KeyAppiumURL:   srv.URL,
		config.KeyAppPath:     "/nonexistent/app.apk",
		config.KeySettleDelay: "1000",
	})
	sess, err := session.NewBuilder(nil).Build(cfg, "pages-test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = sess.Quit() })

	log, err := logger.New(logger.Options{Console: f.out, ErrConsole: f.out, NoColor: true})
	if err != nil {
		t.Fatal(err)
	}
	engine := wait.NewEngine(2*time.Second, 500*time.Millisecond).WithClock(&instantClock{now: time.Unix(0, 0)})
	f.tk = NewToolkit(element.New(sess, engine, log), cfg)
	f.tk.Sleep = func(d time.Duration) { f.sleeps = append(f.sleeps, d) }
	return f
}

func (f *fixture) login(t *testing.T) *ListPage {
	t.Helper()
	list, err := Start(f.tk).Login("admin", "password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	f.sleeps = nil
	return list
}

func TestLoginPage_Displayed(t *testing.T) {
	f := setup(t)
	login := Start(f.tk)

	if !login.IsLoaded() {
		t.Fatal("login page should be loaded at start")
	}
	if !login.IsUsernameFieldDisplayed() || !login.IsPasswordFieldDisplayed() || !login.IsSubmitButtonDisplayed() {
		t.Error("login form fields should be displayed")
	}
	if login.Name() != "LoginPage" {
		t.Errorf("Name = %q", login.Name())
	}
}

func TestLoginPage_Login(t *testing.T) {
	f := setup(t)

	list, err := Start(f.tk).Login("admin", "password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if f.app.Screen() != mock.ScreenList {
		t.Fatalf("screen = %s, want list", f.app.Screen())
	}
	if !list.IsLoaded() {
		t.Error("list page should be loaded after login")
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != DefaultLoginDelay {
		t.Errorf("sleeps = %v, want [%s]", f.sleeps, DefaultLoginDelay)
	}
	if s := f.srv.Scripts(); len(s) != 1 || s[0] != "mobile: hideKeyboard" {
		t.Errorf("keyboard not hidden: %v", s)
	}

	logs := f.out.String()
	if !strings.Contains(logs, "Entering username: admin") {
		t.Error("username step not logged")
	}
	if strings.Contains(logs, "password:") || strings.Contains(logs, "Entering password: ") {
		t.Error("password must not be logged")
	}
	if !strings.Contains(logs, "Login completed") {
		t.Error("expected PASS line for login")
	}
}

func TestLoginPage_EmptyCredentialsStay(t *testing.T) {
	f := setup(t)
	login := Start(f.tk)

	if err := login.ClearUsername(); err != nil {
		t.Fatal(err)
	}
	if err := login.ClearPassword(); err != nil {
		t.Fatal(err)
	}
	_, err := Verify(login.Submit())
	if !errors.Is(err, core.ErrPageNotLoaded) {
		t.Fatalf("Verify(Submit) = %v, want ErrPageNotLoaded", err)
	}
	if !login.IsLoaded() {
		t.Error("should stay on login page")
	}
}

func TestVerify_PropagatesNavigationError(t *testing.T) {
	f := setup(t)
	// Tabs are not displayed on the login screen.
	list := &ListPage{tk: f.tk}

	_, err := Verify(list.ToButtons())
	if !errors.Is(err, core.ErrWaitTimeout) {
		t.Fatalf("err = %v, want ErrWaitTimeout", err)
	}
}

func TestNavigation_RoundTrip(t *testing.T) {
	f := setup(t)
	list := f.login(t)

	buttons, err := Verify(list.ToButtons())
	if err != nil {
		t.Fatalf("to buttons: %v", err)
	}
	back, err := Verify(buttons.ToList())
	if err != nil {
		t.Fatalf("back to list: %v", err)
	}
	if !back.IsLoaded() {
		t.Error("list should be loaded after round trip")
	}

	switches, err := Verify(back.ToSwitches())
	if err != nil {
		t.Fatalf("to switches: %v", err)
	}
	input, err := Verify(switches.ToInput())
	if err != nil {
		t.Fatalf("to input: %v", err)
	}
	if _, err := Verify(input.ToButtons()); err != nil {
		t.Fatalf("input to buttons: %v", err)
	}
	if f.app.Screen() != mock.ScreenButtons {
		t.Errorf("screen = %s, want buttons", f.app.Screen())
	}

	for _, d := range f.sleeps {
		if d != time.Second {
			t.Errorf("settle pause = %s, want 1s", d)
		}
	}
	if len(f.sleeps) != 5 {
		t.Errorf("got %d settle pauses, want 5", len(f.sleeps))
	}
}

func TestNavigation_OptimisticWithoutVerify(t *testing.T) {
	f := setup(t)
	list := f.login(t)

	// Tab clicks land even when the app ignores them; only Verify notices.
	f.srv.Update(f.app.ID("button1"), func(e *mock.Element) { e.GoneAfter = -1 })
	buttons, err := list.ToButtons()
	if err != nil {
		t.Fatalf("ToButtons failed: %v", err)
	}
	if buttons.IsLoaded() {
		t.Error("buttons page cannot be loaded without Button 1")
	}
	if _, err := Verify(buttons, nil); !errors.Is(err, core.ErrPageNotLoaded) {
		t.Errorf("Verify = %v, want ErrPageNotLoaded", err)
	}
}

func TestListPage(t *testing.T) {
	f := setup(t)
	list := f.login(t)

	text, err := list.InstructionsText()
	if err != nil || !strings.Contains(text, "Explore") {
		t.Errorf("InstructionsText = (%q, %v)", text, err)
	}
	count, err := list.ItemCount()
	if err != nil || count < 10 {
		t.Errorf("ItemCount = (%d, %v), want at least 10", count, err)
	}
	if !list.IsItemDisplayed("Item 3") {
		t.Error("Item 3 should be displayed")
	}
	if err := list.ClickItem("Item 3"); err != nil {
		t.Errorf("ClickItem failed: %v", err)
	}
	if err := list.ClickItemAt(0); err != nil {
		t.Errorf("ClickItemAt(0) failed: %v", err)
	}
	if err := list.NavigateUp(); err != nil {
		t.Errorf("NavigateUp failed: %v", err)
	}

	clicks := f.srv.Clicks()
	tail := clicks[len(clicks)-3:]
	want := []string{f.app.ID("list.item3"), f.app.ID("list.row1"), f.app.ID("list.up")}
	for i := range want {
		if tail[i] != want[i] {
			t.Errorf("click %d = %s, want %s", i, tail[i], want[i])
		}
	}
}

func TestListPage_ClickItemAtOutOfRange(t *testing.T) {
	f := setup(t)
	list := f.login(t)

	for _, index := range []int{-1, mock.ListItems} {
		err := list.ClickItemAt(index)
		if !errors.Is(err, core.ErrElementNotFound) {
			t.Errorf("ClickItemAt(%d) = %v, want ErrElementNotFound", index, err)
		}
	}
	if !strings.Contains(f.out.String(), "Index out of bounds") {
		t.Error("expected a WARN for out of range index")
	}
}

func TestButtonsPage(t *testing.T) {
	f := setup(t)
	buttons, err := Verify(f.login(t).ToButtons())
	if err != nil {
		t.Fatal(err)
	}

	for n := 1; n <= ButtonCount; n++ {
		if !buttons.IsButtonDisplayed(n) {
			t.Errorf("button %d not displayed", n)
		}
		text, err := buttons.ButtonText(n)
		if err != nil || text != "Button "+string(rune('0'+n)) {
			t.Errorf("ButtonText(%d) = (%q, %v)", n, text, err)
		}
	}
	if !buttons.IsResetDisplayed() {
		t.Error("reset not displayed")
	}

	before := len(f.srv.Clicks())
	if err := buttons.ClickAll(); err != nil {
		t.Fatal(err)
	}
	if err := buttons.ClickReset(); err != nil {
		t.Fatal(err)
	}
	clicks := f.srv.Clicks()[before:]
	want := []string{f.app.ID("button1"), f.app.ID("button2"), f.app.ID("button3"), f.app.ID("reset")}
	if len(clicks) != len(want) {
		t.Fatalf("clicks = %v, want %v", clicks, want)
	}
	for i := range want {
		if clicks[i] != want[i] {
			t.Errorf("click %d = %s, want %s", i, clicks[i], want[i])
		}
	}

	if err := buttons.ClickButton(4); err == nil {
		t.Error("ClickButton(4) should fail")
	}
	if buttons.IsButtonDisplayed(0) {
		t.Error("IsButtonDisplayed(0) should be false")
	}
}

func TestSwitchesPage(t *testing.T) {
	f := setup(t)
	switches, err := Verify(f.login(t).ToSwitches())
	if err != nil {
		t.Fatal(err)
	}
	for n := 1; n <= SwitchCount; n++ {
		if !switches.IsSwitchDisplayed(n) {
			t.Errorf("switch %d not displayed", n)
		}
	}
	if !switches.IsSaveDisplayed() {
		t.Error("save not displayed")
	}

	before, err := switches.IsOn(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := switches.Toggle(1); err != nil {
		t.Fatal(err)
	}
	after, _ := switches.IsOn(1)
	if before == after {
		t.Error("toggle did not change switch 1")
	}

	if err := switches.TurnOnAll(); err != nil {
		t.Fatal(err)
	}
	for n := 1; n <= SwitchCount; n++ {
		if on, _ := switches.IsOn(n); !on {
			t.Errorf("switch %d should be on", n)
		}
	}

	f.sleeps = nil
	if err := switches.Save(); err != nil {
		t.Fatal(err)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != DefaultSaveDelay {
		t.Errorf("sleeps = %v, want [%s]", f.sleeps, DefaultSaveDelay)
	}
	state, err := switches.SaveStateText()
	if err != nil || !strings.Contains(state, "ON") {
		t.Errorf("SaveStateText = (%q, %v)", state, err)
	}

	if err := switches.TurnOffAll(); err != nil {
		t.Fatal(err)
	}
	for n := 1; n <= SwitchCount; n++ {
		if on, _ := switches.IsOn(n); on {
			t.Errorf("switch %d should be off", n)
		}
	}

	if _, err := switches.IsOn(9); err == nil {
		t.Error("IsOn(9) should fail")
	}
}

func TestInputPage(t *testing.T) {
	f := setup(t)
	input, err := Verify(f.login(t).ToInput())
	if err != nil {
		t.Fatal(err)
	}
	if !input.IsFieldDisplayed() || !input.IsFieldEnabled() {
		t.Error("input field should be displayed and enabled")
	}

	for _, value := range []string{"12345", "999999", "0", "123.45"} {
		if err := input.EnterValue(value); err != nil {
			t.Fatal(err)
		}
		got, err := input.Value()
		if err != nil || got != value {
			t.Errorf("Value after EnterValue(%q) = (%q, %v)", value, got, err)
		}
	}

	if err := input.ClearValue(); err != nil {
		t.Fatal(err)
	}
	if got, _ := input.Value(); got != "" {
		t.Errorf("Value after clear = %q", got)
	}
}

func TestPages_DeadSessionFailsClearly(t *testing.T) {
	f := setup(t)
	list := f.login(t)
	if err := f.tk.Actions.Session().Quit(); err != nil {
		t.Fatal(err)
	}

	verifies := map[string]error{}
	_, verifies["login"] = Verify(Start(f.tk), nil)
	_, verifies["list"] = Verify(list, nil)
	_, verifies["buttons"] = Verify(&ButtonsPage{tk: f.tk}, nil)
	_, verifies["switches"] = Verify(&SwitchesPage{tk: f.tk}, nil)
	_, verifies["input"] = Verify(&InputPage{tk: f.tk}, nil)
	for name, err := range verifies {
		if !errors.Is(err, core.ErrSessionClosed) {
			t.Errorf("Verify(%s) = %v, want ErrSessionClosed", name, err)
		}
		if errors.Is(err, core.ErrPageNotLoaded) {
			t.Errorf("Verify(%s) reported a missing page for a closed session", name)
		}
	}

	f.out.Reset()
	if list.IsLoaded() || (&InputPage{tk: f.tk}).IsFieldEnabled() {
		t.Error("bool checks should read false on a dead session")
	}
	if strings.Count(f.out.String(), "[WARN]") != 2 || !strings.Contains(f.out.String(), "no longer live") {
		t.Errorf("dead session checks should warn with the cause:\n%s", f.out.String())
	}
	if _, err := Start(f.tk).Login("admin", "password"); !errors.Is(err, core.ErrSessionClosed) {
		t.Errorf("Login = %v, want ErrSessionClosed", err)
	}
}
