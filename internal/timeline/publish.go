package timeline

import (
	"sort"

	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
)

// Publish is the immutable, shared timeline produced by committing a
// Draft. It is never mutated after creation (spec §4.2: "PublishTimeline
// is reference-counted and cheaply shared among read-only consumers").
// In Go, ordinary pointer sharing plus the garbage collector already
// gives cheap multi-reader sharing without hand-rolled reference
// counting, so Publish carries no refcount field — every holder of a
// *Publish shares the same backing slice, and the last holder to drop
// it lets the GC reclaim it, which is the observable behavior spec §3
// asks for ("dropped when its owning character is despawned").
type Publish struct {
	owner  core.CharacterId
	events []Event // sorted by Timestamp; ties in insertion order
}

// Owner returns the character this timeline belongs to.
func (p *Publish) Owner() core.CharacterId { return p.owner }

// Len reports the number of events.
func (p *Publish) Len() int {
	if p == nil {
		return 0
	}
	return len(p.events)
}

// Events returns every event in the timeline, in order. The returned
// slice must not be mutated by the caller.
func (p *Publish) Events() []Event {
	if p == nil {
		return nil
	}
	return p.events
}

// Query returns every event with Timestamp in (prev, curr], in
// timestamp order with insertion order preserved among ties
// (spec §4.2). When curr < prev the caller has wrapped; Query handles
// that by scanning (prev, period) then [0, curr].
func (p *Publish) Query(prev, curr clock.TimeStamp, period clock.TimeStamp) []Event {
	if p == nil || len(p.events) == 0 {
		return nil
	}
	if prev <= curr {
		return p.scanRange(prev, curr)
	}
	// Wrap: union of (prev, period) and [0, curr].
	head := p.scanRange(prev, period-1)
	// scanRange(prev, period-1) covers (prev, period) in whole
	// milliseconds; the tail half is [0, curr], inclusive of ts==0.
	tail := p.scanFromZero(curr)
	if len(head) == 0 {
		return tail
	}
	if len(tail) == 0 {
		return head
	}
	out := make([]Event, 0, len(head)+len(tail))
	out = append(out, head...)
	out = append(out, tail...)
	return out
}

// scanRange returns events with Timestamp in (prev, curr], assuming
// prev <= curr (no wrap). Uses sort.Search for the lower bound — the Go
// stdlib equivalent of the "partition_point" binary search spec §4.2
// names.
func (p *Publish) scanRange(prev, curr clock.TimeStamp) []Event {
	lo := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].Timestamp > prev
	})
	hi := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].Timestamp > curr
	})
	if lo >= hi {
		return nil
	}
	return p.events[lo:hi]
}

// scanFromZero returns events with Timestamp in [0, curr].
func (p *Publish) scanFromZero(curr clock.TimeStamp) []Event {
	hi := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].Timestamp > curr
	})
	if hi == 0 {
		return nil
	}
	return p.events[:hi]
}

// MovementAt returns the most recent Movement event with Timestamp <= t,
// and whether one was found. Used by the Playback Scheduler to resolve
// "prev_move" (spec §4.5).
func (p *Publish) MovementAt(t clock.TimeStamp) (Event, bool) {
	if p == nil {
		return Event{}, false
	}
	for i := len(p.events) - 1; i >= 0; i-- {
		ev := p.events[i]
		if ev.Kind == Movement && ev.Timestamp <= t {
			return ev, true
		}
	}
	return Event{}, false
}

// NextMovementAfter returns the earliest Movement event with
// Timestamp > t, and whether one was found. Used to resolve
// "next_move" (spec §4.5).
func (p *Publish) NextMovementAfter(t clock.TimeStamp) (Event, bool) {
	if p == nil {
		return Event{}, false
	}
	for i := range p.events {
		ev := p.events[i]
		if ev.Kind == Movement && ev.Timestamp > t {
			return ev, true
		}
	}
	return Event{}, false
}

// FirstMovement returns the earliest Movement event in the timeline, if
// any. Used by the Playback Scheduler when a wrap search for the next
// movement must restart from time zero (spec §4.5 step 3).
func (p *Publish) FirstMovement() (Event, bool) {
	if p == nil {
		return Event{}, false
	}
	for i := range p.events {
		if p.events[i].Kind == Movement {
			return p.events[i], true
		}
	}
	return Event{}, false
}
