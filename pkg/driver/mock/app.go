package mock

import (
	"fmt"
	"strings"
	"sync"
)

// Screens of the simulated app.
const (
	ScreenLogin    = "login"
	ScreenList     = "list"
	ScreenButtons  = "buttons"
	ScreenSwitches = "switches"
	ScreenInput    = "input"
)

const appPackage = "com.example.trusttest:id/"

// ListItems is the number of rows the simulated List tab renders.
const ListItems = 12

// App simulates the trust test app on a Server: a login form followed by
// four bottom tabs. Elements of inactive screens stay in the tree but are
// not displayed. Every new session restarts the app on the login screen.
type App struct {
	srv *Server

	mu      sync.Mutex
	screen  string
	screens map[string][]string
	tabs    []string
	byName  map[string]string
}

// InstallApp registers the app's elements on srv.
func InstallApp(srv *Server) *App {
	a := &App{
		srv:     srv,
		screens: make(map[string][]string),
		byName:  make(map[string]string),
	}

	a.add(ScreenLogin, "login.title", Element{Strategy: "xpath", Selector: "//android.widget.TextView[@text='Login']", Text: "Login"})
	a.add(ScreenLogin, "login.username", Element{Strategy: "id", Selector: appPackage + "editTextUsername"})
	a.add(ScreenLogin, "login.password", Element{Strategy: "id", Selector: appPackage + "editTextPassword"})
	a.add(ScreenLogin, "login.submit", Element{Strategy: "id", Selector: appPackage + "buttonSubmit", Text: "Submit", OnClick: a.submit})

	a.add(ScreenList, "list.title", Element{Strategy: "xpath", Selector: "//android.widget.TextView[@text='Test']", Text: "Test"})
	a.add(ScreenList, "list.instructions", Element{
		Strategy: "id",
		Selector: appPackage + "instructionsText",
		Text:     "Explore the tabs below. Tap a row to select it.",
	})
	a.add(ScreenList, "list.up", Element{Strategy: "xpath", Selector: "//android.widget.ImageButton[@content-desc='Navigate up']"})
	for i := 1; i <= ListItems; i++ {
		text := fmt.Sprintf("Item %d", i)
		a.add(ScreenList, "list.row"+fmt.Sprint(i), Element{Strategy: "id", Selector: "android:id/text1", Text: text})
		a.add(ScreenList, "list.item"+fmt.Sprint(i), Element{
			Strategy: "xpath",
			Selector: "//android.widget.TextView[@text='" + text + "']",
			Text:     text,
		})
	}

	for i := 1; i <= 3; i++ {
		a.add(ScreenButtons, fmt.Sprintf("button%d", i), Element{
			Strategy: "id",
			Selector: fmt.Sprintf("%sbutton%d", appPackage, i),
			Text:     fmt.Sprintf("Button %d", i),
		})
	}
	a.add(ScreenButtons, "reset", Element{Strategy: "id", Selector: appPackage + "resetButton", Text: "Reset"})

	for i := 1; i <= 3; i++ {
		a.add(ScreenSwitches, fmt.Sprintf("switch%d", i), Element{
			Strategy:   "id",
			Selector:   fmt.Sprintf("%sswitch%d", appPackage, i),
			Text:       fmt.Sprintf("Switch %d", i),
			Attributes: map[string]string{"checked": "false"},
			Toggle:     true,
		})
	}
	a.add(ScreenSwitches, "save", Element{Strategy: "id", Selector: appPackage + "saveButton", Text: "Save", OnClick: a.save})
	a.add(ScreenSwitches, "saveState", Element{Strategy: "id", Selector: appPackage + "saveStateText"})

	a.add(ScreenInput, "input", Element{Strategy: "id", Selector: appPackage + "inputValue"})

	for _, tab := range []struct{ desc, screen string }{
		{"List", ScreenList},
		{"Buttons", ScreenButtons},
		{"Switches", ScreenSwitches},
		{"Input", ScreenInput},
	} {
		target := tab.screen
		id := srv.Add(Element{
			Strategy: "xpath",
			Selector: "//android.widget.LinearLayout[@content-desc='" + tab.desc + "']",
			OnClick:  func(*Server) { a.Show(target) },
		})
		a.tabs = append(a.tabs, id)
	}

	srv.OnSession(func(string) { a.Reset() })
	a.Reset()
	return a
}

func (a *App) add(screen, name string, e Element) {
	id := a.srv.Add(e)
	a.screens[screen] = append(a.screens[screen], id)
	a.byName[name] = id
}

// ID returns the element ID registered under name, e.g. "login.username",
// "button2", "switch1", "saveState" or "input".
func (a *App) ID(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.byName[name]
}

// Screen returns the screen currently shown.
func (a *App) Screen() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

// Show switches the displayed screen.
func (a *App) Show(screen string) {
	a.mu.Lock()
	a.screen = screen
	screens := a.screens
	tabs := a.tabs
	a.mu.Unlock()

	for name, ids := range screens {
		hidden := name != screen
		for _, id := range ids {
			a.srv.Update(id, func(e *Element) { e.Hidden = hidden })
		}
	}
	for _, id := range tabs {
		a.srv.Update(id, func(e *Element) { e.Hidden = screen == ScreenLogin })
	}
}

// Reset restores initial state and shows the login screen.
func (a *App) Reset() {
	for _, name := range []string{"login.username", "login.password", "input", "saveState"} {
		a.srv.Update(a.ID(name), func(e *Element) { e.Text = "" })
	}
	for i := 1; i <= 3; i++ {
		a.srv.Update(a.ID(fmt.Sprintf("switch%d", i)), func(e *Element) {
			e.Selected = false
			e.Attributes["checked"] = "false"
		})
	}
	a.Show(ScreenLogin)
}

// submit stays on the login screen unless both fields are filled in.
func (a *App) submit(s *Server) {
	if s.Element(a.ID("login.username")).Text == "" || s.Element(a.ID("login.password")).Text == "" {
		return
	}
	a.Show(ScreenList)
}

func (a *App) save(s *Server) {
	states := make([]string, 0, 3)
	for i := 1; i <= 3; i++ {
		state := "OFF"
		if s.Element(a.ID(fmt.Sprintf("switch%d", i))).Selected {
			state = "ON"
		}
		states = append(states, fmt.Sprintf("Switch %d: %s", i, state))
	}
	text := strings.Join(states, ", ")
	s.Update(a.ID("saveState"), func(e *Element) { e.Text = text })
}
