package session

import (
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
)

// Registry hands each owner (one test worker) at most one live session.
//
// The mutex guards only the owner map. Sessions are built outside the lock
// so one owner's network round trip never blocks another; concurrent
// acquires for the same owner share a single build.
type Registry struct {
	builder *Builder
	cfg     *config.Config
	log     *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	inflight singleflight.Group
}

// NewRegistry creates a registry that builds sessions from cfg.
func NewRegistry(builder *Builder, cfg *config.Config, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		builder:  builder,
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Acquire returns owner's live session, building one from a fresh config
// snapshot when none exists. Build failures are returned, never retried.
func (r *Registry) Acquire(owner string) (*Session, error) {
	return r.AcquireWith(owner, nil)
}

// AcquireWith is Acquire with per-owner config overrides applied to the
// snapshot (a worker pinned to its own device.name, for example).
// Overrides are ignored when owner already holds a live session.
func (r *Registry) AcquireWith(owner string, overrides map[string]string) (*Session, error) {
	if s := r.lookup(owner); s != nil {
		return s, nil
	}

	v, err, _ := r.inflight.Do(owner, func() (interface{}, error) {
		if s := r.lookup(owner); s != nil {
			return s, nil
		}
		cfg := r.cfg.Snapshot()
		for k, v := range overrides {
			cfg.Set(k, v)
		}
		s, err := r.builder.Build(cfg, owner)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.sessions[owner] = s
		r.mu.Unlock()
		r.log.Debug("Session %s acquired by %s", s.ID(), owner)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// lookup returns owner's session if it is still live, dropping dead entries.
func (r *Registry) lookup(owner string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[owner]
	if !ok {
		return nil
	}
	if !s.Live() {
		delete(r.sessions, owner)
		return nil
	}
	return s
}

// Release quits owner's session and clears the entry. It is a no-op when
// the owner has no session. Quit failures are logged and swallowed.
func (r *Registry) Release(owner string) {
	if err := r.release(owner); err != nil {
		r.log.Warn("Error quitting driver: %v", err)
	}
}

func (r *Registry) release(owner string) error {
	r.mu.Lock()
	s, ok := r.sessions[owner]
	delete(r.sessions, owner)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if err := s.Quit(); err != nil {
		return err
	}
	r.log.Debug("Session %s released by %s", s.ID(), owner)
	return nil
}

// IsActive reports whether owner holds a live session.
func (r *Registry) IsActive(owner string) bool {
	return r.lookup(owner) != nil
}

// Owners returns the owners holding a session, sorted.
func (r *Registry) Owners() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := make([]string, 0, len(r.sessions))
	for o := range r.sessions {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners
}

// ReleaseAll releases every remaining session at run end. Each failure is
// logged; the aggregate is returned for reporting only.
func (r *Registry) ReleaseAll() error {
	var result *multierror.Error
	for _, owner := range r.Owners() {
		if err := r.release(owner); err != nil {
			r.log.Warn("Error quitting driver for %s: %v", owner, err)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
