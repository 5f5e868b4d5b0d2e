// Package session maps caller-chosen match ids to the ids minted for a run.
package session

import (
	"fmt"
	"sync"
	"time"
)

// Registry maps caller match ids to effective match ids for the lifetime of
// the process. Entries are never evicted.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]string
	now      func() time.Time
}

// Option is a functional option for configuring Registry
type Option func(*Registry)

// WithClock sets the time source used when minting ids
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]string),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the effective match id for a segment upload.
// The first segment (start 0) of an unseen caller id mints
// callerID_<unix millis>; the check and insert happen under one lock so
// concurrent first segments agree on a single id. Callers without a mapping
// get their own id back.
func (r *Registry) Resolve(callerID string, segmentStart float64) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.sessions[callerID]; ok {
		return id
	}
	if segmentStart != 0 {
		return callerID
	}

	id := fmt.Sprintf("%s_%d", callerID, r.now().UnixMilli())
	r.sessions[callerID] = id
	return id
}

// Lookup returns the effective id for callerID without minting one
func (r *Registry) Lookup(callerID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.sessions[callerID]; ok {
		return id
	}
	return callerID
}

// Len returns the number of recorded sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
