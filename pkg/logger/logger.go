// Package logger provides the run-scoped log stream for mobile-harness.
//
// A Logger is created once per run and passed explicitly to the components
// that log. Every line goes to the console (colored) and to the run's log
// file (plain). There is no package-level logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is a log severity tag.
type Level int

// Levels, in the order they appear in the tag column.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelStep
	LevelPass
	LevelWarn
	LevelError
)

// String returns the tag written in brackets.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelStep:
		return "STEP"
	case LevelPass:
		return "PASS"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

const (
	lineTimeFormat = "2006-01-02 15:04:05"
	fileTimeFormat = "2006-01-02_15-04-05"
	banner         = "================================================================================"
)

// Options configures a Logger.
type Options struct {
	Dir        string    // Directory for the run log file; empty disables file logging
	Console    io.Writer // Defaults to os.Stdout
	ErrConsole io.Writer // ERROR lines; defaults to os.Stderr
	Verbose    bool      // Emit DEBUG lines
	NoColor    bool      // Disable ANSI colors on the console
	Now        func() time.Time
}

type sink struct {
	mu         sync.Mutex
	console    io.Writer
	errConsole io.Writer
	file       *os.File
	path       string
	verbose    bool
	now        func() time.Time
	colors     map[Level]*color.Color
	closed     bool
}

// Logger writes tagged lines to the console and the run file.
// A Logger is safe for concurrent use; children from With share sinks.
type Logger struct {
	s    *sink
	test string
}

// New creates the run logger. When opts.Dir is set the directory is created
// and a file test_execution_<timestamp>.log is opened in append mode.
func New(opts Options) (*Logger, error) {
	s := &sink{
		console:    opts.Console,
		errConsole: opts.ErrConsole,
		verbose:    opts.Verbose,
		now:        opts.Now,
		colors: map[Level]*color.Color{
			LevelInfo:  color.New(color.FgBlue),
			LevelStep:  color.New(color.FgBlue),
			LevelPass:  color.New(color.FgGreen),
			LevelWarn:  color.New(color.FgYellow),
			LevelError: color.New(color.FgRed),
		},
	}
	if s.console == nil {
		s.console = os.Stdout
	}
	if s.errConsole == nil {
		s.errConsole = os.Stderr
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.NoColor {
		for _, c := range s.colors {
			c.DisableColor()
		}
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		path := filepath.Join(opts.Dir, "test_execution_"+s.now().Format(fileTimeFormat)+".log")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //#nosec G304 -- path built from configured log dir
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		s.file = f
		s.path = path
		s.writeFile(fmt.Sprintf("%s\nTEST EXECUTION SESSION STARTED\nTimestamp: %s\n%s", banner, s.timestamp(), banner))
	}

	return &Logger{s: s}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	l, _ := New(Options{Console: io.Discard, ErrConsole: io.Discard, NoColor: true})
	return l
}

// Path returns the run log file path, or "" when file logging is disabled.
func (l *Logger) Path() string {
	return l.s.path
}

// With returns a child logger whose lines carry the test name.
func (l *Logger) With(test string) *Logger {
	return &Logger{s: l.s, test: test}
}

// Close writes the session footer and closes the log file. Safe to call twice.
func (l *Logger) Close() error {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	s.writeFile(fmt.Sprintf("\n%s\nTEST EXECUTION SESSION ENDED\nTimestamp: %s\nLog file: %s\n%s", banner, s.timestamp(), s.path, banner))
	err := s.file.Close()
	s.file = nil
	return err
}

// Info logs an info message.
func (l *Logger) Info(format string, v ...interface{}) { l.log(LevelInfo, format, v...) }

// Debug logs a debug message. Dropped unless the logger is verbose.
func (l *Logger) Debug(format string, v ...interface{}) { l.log(LevelDebug, format, v...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...interface{}) { l.log(LevelWarn, format, v...) }

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) { l.log(LevelError, format, v...) }

// Step logs a test step.
func (l *Logger) Step(format string, v ...interface{}) { l.log(LevelStep, format, v...) }

// Pass logs a success message.
func (l *Logger) Pass(format string, v ...interface{}) { l.log(LevelPass, format, v...) }

// TestStart writes the test start banner.
func (l *Logger) TestStart(name string) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	sep := "========================================"
	fmt.Fprintf(s.console, "\n%s\n%s\n%s\n",
		s.colors[LevelPass].Sprint(sep),
		s.colors[LevelPass].Sprint("TEST STARTED: "+name),
		s.colors[LevelPass].Sprint(sep))
	s.writeFile(fmt.Sprintf("\n%s\nTEST STARTED: %s\nTimestamp: %s\n%s", banner, name, s.timestamp(), banner))
}

// TestEnd writes the test end banner with its outcome.
func (l *Logger) TestEnd(name string, passed bool) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	status, c := "PASSED", s.colors[LevelPass]
	if !passed {
		status, c = "FAILED", s.colors[LevelError]
	}
	sep := "========================================"
	fmt.Fprintf(s.console, "%s\n%s\n%s\n\n",
		s.colors[LevelPass].Sprint(sep),
		c.Sprint(status+": "+name),
		s.colors[LevelPass].Sprint(sep))
	s.writeFile(fmt.Sprintf("%s\nTEST %s: %s\nTimestamp: %s\n%s\n", banner, status, name, s.timestamp(), banner))
}

func (l *Logger) log(level Level, format string, v ...interface{}) {
	s := l.s
	if level == LevelDebug && !s.verbose {
		return
	}

	msg := fmt.Sprintf(format, v...)
	if l.test != "" {
		msg = "(" + l.test + ") " + msg
	}
	tag := fmt.Sprintf("%-7s", "["+level.String()+"]")
	line := tag + " " + s.timestamp() + " - " + msg

	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.console
	if level == LevelError {
		out = s.errConsole
	}
	if c, ok := s.colors[level]; ok {
		fmt.Fprintln(out, c.Sprint(line))
	} else {
		fmt.Fprintln(out, line)
	}
	s.writeFile(line)
}

// writeFile appends a line to the run file. Caller holds mu (or is New).
func (s *sink) writeFile(line string) {
	if s.file == nil {
		return
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, _ = s.file.WriteString(line)
}

func (s *sink) timestamp() string {
	return s.now().Format(lineTimeFormat)
}
