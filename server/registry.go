package server

import (
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-authflow"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("form session not found")

type entry struct {
	screen  *authflow.Screen
	effects *effectRecorder
	touched time.Time
}

// Registry keeps the mounted screens of every UI client.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry returns a registry expiring sessions idle for longer than ttl.
// A zero ttl keeps sessions until they are removed.
func NewRegistry(ttl time.Duration, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries: map[string]*entry{},
		ttl:     ttl,
		now:     now,
	}
}

func (r *Registry) add(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.touched = r.now()
	r.entries[e.screen.Session().ID()] = e
}

func (r *Registry) get(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if r.expired(e, now) {
		delete(r.entries, id)
		e.screen.Close()
		return nil, ErrSessionNotFound
	}
	e.touched = now
	return e, nil
}

// Remove closes and forgets a session. It reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		e.screen.Close()
	}
	return ok
}

// Sweep closes expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	now := r.now()
	var stale []*entry
	for id, e := range r.entries {
		if r.expired(e, now) {
			stale = append(stale, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.screen.Close()
	}
	return len(stale)
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.entries
	r.entries = map[string]*entry{}
	r.mu.Unlock()

	for _, e := range all {
		e.screen.Close()
	}
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.touched) > r.ttl
}
