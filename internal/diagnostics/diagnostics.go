// Package diagnostics is the lock-free metrics registry and
// UI-diagnostic channel for the core, grounded on the teacher's
// status package (status/registry.go, status/metric_map.go,
// status/atomic_string.go): a get-or-create-pointer map of atomics that
// systems cache once and write to directly, avoiding per-tick map
// lookups in the hot path.
package diagnostics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Counters is a thread-safe registry of named int64 gauges.
type Counters struct {
	mu    sync.RWMutex
	items map[string]*atomic.Int64
}

// NewCounters creates an empty registry.
func NewCounters() *Counters {
	return &Counters{items: make(map[string]*atomic.Int64)}
}

// Get returns the counter for key, creating it on first use. Callers
// are expected to cache the returned pointer (as the teacher's systems
// cache status.Registry pointers at construction) rather than calling
// Get on every tick.
func (c *Counters) Get(key string) *atomic.Int64 {
	c.mu.RLock()
	if p, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return p
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.items[key]; ok {
		return p
	}
	p := new(atomic.Int64)
	c.items[key] = p
	return p
}

// Snapshot returns every counter's current value as a map; callers that
// need a stable order must sort its keys themselves.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]int64, len(keys))
	for _, k := range keys {
		out[k] = c.items[k].Load()
	}
	return out
}

// Kind discriminates a user-visible diagnostic: a silent no-op the UI
// should surface somehow (spec §7: "Rejected recording starts and
// invalid dialog responses are silent no-ops accompanied by a UI
// diagnostic channel event").
type Kind uint8

const (
	RejectedStart Kind = iota
	InvalidDialogChoice
	CorruptedTimeline
	InvariantClamped
)

// Event is one diagnostic notification.
type Event struct {
	Kind    Kind
	Message string
}

// Channel is a small buffered fan-out for diagnostic events. Buffered
// and non-blocking on send so a full channel never stalls the tick
// pipeline — diagnostics are best-effort by definition.
type Channel struct {
	c chan Event
}

// NewChannel creates a diagnostic channel with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{c: make(chan Event, buffer)}
}

// Emit attempts to send an event, dropping it silently if the buffer is
// full rather than blocking the caller.
func (ch *Channel) Emit(ev Event) {
	select {
	case ch.c <- ev:
	default:
	}
}

// Events exposes the receive side for a UI collaborator to drain.
func (ch *Channel) Events() <-chan Event {
	return ch.c
}
