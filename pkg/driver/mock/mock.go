// Package mock provides a fake Appium server for testing without a real device.
//
// The server speaks enough of the W3C WebDriver protocol for the appium
// client: session create/delete, element lookup and commands, screenshot,
// page source, back and execute. Elements are programmed by the test and
// can appear or disappear after a delay measured on the server's clock.
package mock

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/driver/appium"
)

// W3C WebDriver element identifier key
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Minimal valid PNG (1x1 transparent pixel)
var PNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}

var defaultRect = appium.Rect{X: 0, Y: 0, Width: 200, Height: 50}

// Element is a programmable UI element.
type Element struct {
	Strategy   string // "id", "xpath", "accessibility id", ...
	Selector   string
	Text       string
	Attributes map[string]string

	Hidden   bool
	Disabled bool
	Selected bool
	Rect     *appium.Rect // nil uses a 200x50 box

	// AppearAfter and GoneAfter are measured from the server epoch.
	// Zero AppearAfter means present from the start; zero GoneAfter means never gone.
	AppearAfter time.Duration
	GoneAfter   time.Duration

	// Toggle flips the "checked" attribute and Selected on every click.
	Toggle bool
	// OnClick runs after a click is recorded, outside the server lock.
	OnClick func(s *Server)
}

// Config configures fake server behavior.
type Config struct {
	// FailSessions makes POST /session return this W3C error code ("" = succeed).
	FailSessions string
	// SessionDelay adds artificial delay to session creation.
	SessionDelay time.Duration
	// PageSource is returned by GET /source.
	PageSource string
}

// CreatedSession is a recorded session creation.
type CreatedSession struct {
	ID           string
	Capabilities map[string]interface{}
}

// Server is an httptest-backed fake Appium server.
type Server struct {
	*httptest.Server
	Config Config

	mu       sync.Mutex
	now      func() time.Time
	epoch    time.Time
	nextID   int
	elements map[string]*Element
	order    []string
	live     map[string]bool

	onSession func(id string)

	created  []CreatedSession
	deleted  []string
	clicks   []string
	scripts  []string
	finds    map[string]int
	backs    int
	implicit []int64
}

// NewServer starts a fake server. Call Close when done.
func NewServer(cfg Config) *Server {
	if cfg.PageSource == "" {
		cfg.PageSource = `<hierarchy><android.widget.FrameLayout/></hierarchy>`
	}
	s := &Server{
		Config:   cfg,
		now:      time.Now,
		elements: make(map[string]*Element),
		live:     make(map[string]bool),
		finds:    make(map[string]int),
	}
	s.epoch = s.now()
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// FailSessions makes later session creations fail with a W3C error code.
// An empty code restores success.
func (s *Server) FailSessions(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Config.FailSessions = code
}

// SetClock replaces the server clock and resets the epoch to its current time.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.epoch = now()
}

// OnSession registers fn to run after each session is created.
func (s *Server) OnSession(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSession = fn
}

// Add registers an element and returns its element ID.
func (s *Server) Add(e Element) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("el-%d", s.nextID)
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	s.elements[id] = &e
	s.order = append(s.order, id)
	return id
}

// Update mutates an element under the server lock.
func (s *Server) Update(id string, fn func(e *Element)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.elements[id]; ok {
		fn(e)
	}
}

// Remove deletes an element; later commands on its ID report a stale element.
func (s *Server) Remove(id string) {
	s.Update(id, func(e *Element) { e.GoneAfter = -1 })
}

// Element returns a copy of an element's current state.
func (s *Server) Element(id string) Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.elements[id]; ok {
		return *e
	}
	return Element{}
}

// Created returns the recorded session creations.
func (s *Server) Created() []CreatedSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CreatedSession(nil), s.created...)
}

// Deleted returns the IDs of sessions closed by DELETE, in order.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// LiveSessions returns the number of sessions not yet deleted.
func (s *Server) LiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, live := range s.live {
		if live {
			n++
		}
	}
	return n
}

// Clicks returns the clicked element IDs, in order.
func (s *Server) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicks...)
}

// Scripts returns the executed scripts, in order.
func (s *Server) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

// Finds returns how many lookups were made for a selector.
func (s *Server) Finds(selector string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds[selector]
}

// Backs returns how many back navigations were made.
func (s *Server) Backs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backs
}

// ImplicitWaits returns the implicit wait values (ms) applied, in order.
func (s *Server) ImplicitWaits() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.implicit...)
}

// present reports whether e exists at the current server time. Caller holds mu.
func (s *Server) present(e *Element) bool {
	if e.GoneAfter < 0 {
		return false
	}
	elapsed := s.now().Sub(s.epoch)
	if elapsed < e.AppearAfter {
		return false
	}
	if e.GoneAfter > 0 && elapsed >= e.GoneAfter {
		return false
	}
	return true
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 0 || parts[0] != "session" {
		writeError(w, http.StatusNotFound, "unknown command", "unknown path "+r.URL.Path)
		return
	}

	var body map[string]interface{}
	if r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if len(parts) == 1 && r.Method == http.MethodPost {
		s.createSession(w, body)
		return
	}
	if len(parts) < 2 {
		writeError(w, http.StatusMethodNotAllowed, "unknown method", r.Method+" "+r.URL.Path)
		return
	}

	sessionID := parts[1]
	s.mu.Lock()
	live := s.live[sessionID]
	s.mu.Unlock()
	if !live {
		writeError(w, http.StatusNotFound, appium.ErrCodeInvalidSession, "session "+sessionID+" is either terminated or not started")
		return
	}

	rest := parts[2:]
	switch {
	case len(rest) == 0 && r.Method == http.MethodDelete:
		s.mu.Lock()
		s.live[sessionID] = false
		s.deleted = append(s.deleted, sessionID)
		s.mu.Unlock()
		writeValue(w, nil)
	case len(rest) == 1 && rest[0] == "element":
		s.findElement(w, body, false)
	case len(rest) == 1 && rest[0] == "elements":
		s.findElement(w, body, true)
	case len(rest) >= 3 && rest[0] == "element":
		s.elementCommand(w, rest[1], rest[2:], body)
	case len(rest) == 1 && rest[0] == "screenshot":
		writeValue(w, base64.StdEncoding.EncodeToString(PNG))
	case len(rest) == 1 && rest[0] == "source":
		s.mu.Lock()
		source := s.Config.PageSource
		s.mu.Unlock()
		writeValue(w, source)
	case len(rest) == 1 && rest[0] == "back":
		s.mu.Lock()
		s.backs++
		s.mu.Unlock()
		writeValue(w, nil)
	case len(rest) == 1 && rest[0] == "timeouts":
		ms, _ := body["implicit"].(float64)
		s.mu.Lock()
		s.implicit = append(s.implicit, int64(ms))
		s.mu.Unlock()
		writeValue(w, nil)
	case len(rest) == 2 && rest[0] == "execute":
		script, _ := body["script"].(string)
		s.mu.Lock()
		s.scripts = append(s.scripts, script)
		s.mu.Unlock()
		writeValue(w, nil)
	default:
		writeError(w, http.StatusNotFound, "unknown command", "unknown path "+r.URL.Path)
	}
}

func (s *Server) createSession(w http.ResponseWriter, body map[string]interface{}) {
	s.mu.Lock()
	cfg := s.Config
	s.mu.Unlock()

	if cfg.SessionDelay > 0 {
		time.Sleep(cfg.SessionDelay)
	}
	if cfg.FailSessions != "" {
		writeError(w, http.StatusInternalServerError, cfg.FailSessions, "A new session could not be created")
		return
	}

	caps := map[string]interface{}{}
	if c, ok := body["capabilities"].(map[string]interface{}); ok {
		if always, ok := c["alwaysMatch"].(map[string]interface{}); ok {
			caps = always
		}
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("session-%d", s.nextID)
	s.live[id] = true
	s.created = append(s.created, CreatedSession{ID: id, Capabilities: caps})
	hook := s.onSession
	s.mu.Unlock()

	if hook != nil {
		hook(id)
	}

	writeValue(w, map[string]interface{}{
		"sessionId":    id,
		"capabilities": caps,
	})
}

func (s *Server) findElement(w http.ResponseWriter, body map[string]interface{}, multiple bool) {
	using, _ := body["using"].(string)
	value, _ := body["value"].(string)

	s.mu.Lock()
	s.finds[value]++
	var found []interface{}
	for _, id := range s.order {
		e := s.elements[id]
		if e.Strategy == using && e.Selector == value && s.present(e) {
			found = append(found, map[string]interface{}{w3cElementKey: id})
		}
	}
	s.mu.Unlock()

	if multiple {
		if found == nil {
			found = []interface{}{}
		}
		writeValue(w, found)
		return
	}
	if len(found) == 0 {
		writeError(w, http.StatusNotFound, appium.ErrCodeNoSuchElement,
			"An element could not be located on the page using the given search parameters.")
		return
	}
	writeValue(w, found[0])
}

func (s *Server) elementCommand(w http.ResponseWriter, id string, cmd []string, body map[string]interface{}) {
	s.mu.Lock()
	e, ok := s.elements[id]
	if !ok || !s.present(e) {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, appium.ErrCodeStaleElement, "The element '"+id+"' does not exist in DOM anymore")
		return
	}

	var value interface{}
	var onClick func(*Server)
	switch cmd[0] {
	case "click":
		s.clicks = append(s.clicks, id)
		if e.Toggle {
			e.Selected = !e.Selected
			e.Attributes["checked"] = fmt.Sprint(e.Selected)
		}
		onClick = e.OnClick
	case "clear":
		e.Text = ""
	case "value":
		text, _ := body["text"].(string)
		e.Text += text
	case "text":
		value = e.Text
	case "attribute":
		if len(cmd) > 1 {
			if v, ok := e.Attributes[cmd[1]]; ok {
				value = v
			}
		}
	case "rect":
		rect := defaultRect
		if e.Rect != nil {
			rect = *e.Rect
		}
		value = map[string]interface{}{"x": rect.X, "y": rect.Y, "width": rect.Width, "height": rect.Height}
	case "displayed":
		value = !e.Hidden
	case "enabled":
		value = !e.Disabled
	case "selected":
		value = e.Selected
	default:
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "unknown command", "unknown element command "+cmd[0])
		return
	}
	s.mu.Unlock()

	if onClick != nil {
		onClick(s)
	}
	writeValue(w, value)
}

func writeValue(w http.ResponseWriter, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"value": value})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"value": map[string]interface{}{
			"error":   code,
			"message": message,
		},
	})
}
