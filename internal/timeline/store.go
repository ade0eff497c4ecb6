package timeline

import (
	"fmt"
	"sync"

	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
)

// Store owns every character's Draft and Publish timeline. It is the
// single collaborator the Capture Pipeline and Playback Scheduler both
// talk to, matching the teacher's pattern of routing all component
// access through one owning store (engine/position_store.go) rather
// than letting systems reach into each other's state directly.
type Store struct {
	mu      sync.RWMutex
	drafts  map[core.CharacterId]*Draft
	publish map[core.CharacterId]*Publish

	// Debug enables fatal (error-returning) behavior for invariant
	// violations that are otherwise silently clamped in release builds
	// (spec §7).
	Debug bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		drafts:  make(map[core.CharacterId]*Draft),
		publish: make(map[core.CharacterId]*Publish),
	}
}

// BeginDraft installs an empty Draft for character. It is a
// PreconditionViolation to call this while a draft already exists for
// that character (spec §4.2); the Recording State Machine is expected
// to have already enforced "not already Recording" before calling this.
func (s *Store) BeginDraft(c core.CharacterId) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drafts[c]; exists {
		return nil, fmt.Errorf("timeline: character %d already has an open draft", c)
	}
	d := newDraft(c)
	s.drafts[c] = d
	return d, nil
}

// Append appends an event to the named character's open draft. The
// caller (Capture Pipeline) is responsible for stamping
// event.Timestamp == clock.current(arena_of(character)) before calling.
func (s *Store) Append(c core.CharacterId, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[c]
	if !ok {
		return fmt.Errorf("timeline: character %d has no open draft", c)
	}
	return d.Append(ev, s.Debug)
}

// Commit seals the character's draft into an immutable Publish,
// installs it as the character's active timeline, and discards the
// draft. It is a PreconditionViolation to commit with no open draft.
func (s *Store) Commit(c core.CharacterId) (*Publish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[c]
	if !ok {
		return nil, fmt.Errorf("timeline: character %d has no open draft to commit", c)
	}
	pub := d.seal()
	s.publish[c] = pub
	delete(s.drafts, c)
	return pub, nil
}

// Clear discards the character's open draft without publishing it. A
// no-op (not an error) if no draft is open, mirroring spec §8's
// "Clear-is-empty" law: clearing never touches the existing Publish.
func (s *Store) Clear(c core.CharacterId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, c)
}

// Publish returns the character's active, immutable timeline, or nil if
// none has been committed (or it was dropped on despawn).
func (s *Store) Publish(c core.CharacterId) *Publish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publish[c]
}

// HasDraft reports whether character currently has an open draft.
func (s *Store) HasDraft(c core.CharacterId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.drafts[c]
	return ok
}

// DraftLen reports the number of events captured so far in an open
// draft, or 0 if none is open.
func (s *Store) DraftLen(c core.CharacterId) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.drafts[c]; ok {
		return d.Len()
	}
	return 0
}

// DraftEvents returns a character's open draft events in capture order,
// or nil if no draft is open.
func (s *Store) DraftEvents(c core.CharacterId) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.drafts[c]; ok {
		return d.Events()
	}
	return nil
}

// Query returns the character's published events with Timestamp in
// (prev, curr], wrap-aware (spec §4.2).
func (s *Store) Query(c core.CharacterId, prev, curr clock.TimeStamp, period clock.TimeStamp) []Event {
	s.mu.RLock()
	pub := s.publish[c]
	s.mu.RUnlock()
	return pub.Query(prev, curr, period)
}

// Despawn drops a character's committed timeline and any open draft,
// matching spec §3's PublishTimeline lifecycle ("dropped when its
// owning character is despawned").
func (s *Store) Despawn(c core.CharacterId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, c)
	delete(s.publish, c)
}
