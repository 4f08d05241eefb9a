// Package evidence stores screenshots, page sources and error text captured
// while a test runs.
package evidence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
)

// Sink receives attachments.
type Sink interface {
	Attach(a core.Attachment) error
}

const fileTimeFormat = "20060102_150405"

// DirSink writes each attachment to its own file in Dir.
type DirSink struct {
	Dir string
	log *logger.Logger
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string, log *logger.Logger) (*DirSink, error) {
	if log == nil {
		log = logger.Nop()
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create evidence dir: %w", err)
		}
		log.Info("Created screenshots directory: %s", dir)
	}
	return &DirSink{Dir: dir, log: log}, nil
}

// FileName returns <test>_<name>_<yyyyMMdd_HHmmss>_<id><ext>. The short id
// keeps names unique when parallel workers capture in the same second.
func FileName(a core.Attachment) string {
	parts := make([]string, 0, 4)
	if a.Test != "" {
		parts = append(parts, sanitize(a.Test))
	}
	parts = append(parts, sanitize(a.Name), a.CapturedAt.Format(fileTimeFormat), uuid.NewString()[:8])
	return strings.Join(parts, "_") + a.Extension()
}

// Attach writes a to disk.
func (s *DirSink) Attach(a core.Attachment) error {
	path := filepath.Join(s.Dir, FileName(a))
	if err := os.WriteFile(path, a.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.Name, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	s.log.Info("Evidence saved: %s", path)
	return nil
}

// sanitize collapses whitespace and path separators to underscores.
func sanitize(s string) string {
	s = strings.Join(strings.Fields(s), "_")
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(s)
}

// MemorySink keeps attachments in memory.
type MemorySink struct {
	mu    sync.Mutex
	items []core.Attachment
}

func (m *MemorySink) Attach(a core.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, a)
	return nil
}

// Attachments returns everything attached so far, in order.
func (m *MemorySink) Attachments() []core.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Attachment(nil), m.items...)
}

// ByTest returns the attachments of one test.
func (m *MemorySink) ByTest(test string) []core.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Attachment
	for _, a := range m.items {
		if a.Test == test {
			out = append(out, a)
		}
	}
	return out
}
