package timeline

import (
	"fmt"

	"github.com/arenic/timelinecore/internal/core"
)

// Draft is the mutable, append-only capture buffer owned exclusively by
// the Capture Pipeline while its character is Recording (spec §3/§4.2:
// "Draft is exclusively owned by the Capture Pipeline... no aliasing
// between draft and publish for the same character"). Nothing else may
// hold a reference to it concurrently, so it needs no internal locking —
// matching the teacher's single-writer DraftTimeline-equivalent
// ownership discipline for its own per-tick mutable buffers.
type Draft struct {
	owner  core.CharacterId
	events []Event
	nextSeq uint64
}

func newDraft(owner core.CharacterId) *Draft {
	return &Draft{owner: owner, events: make([]Event, 0, 64)}
}

// Append adds an event. The event's timestamp must be non-decreasing
// relative to the last appended event — spec §4.2: violating this is an
// InvariantViolation (fatal in debug, clamped in release), since the
// state machine already guarantees monotonicity by construction; this
// is a defense against a caller bug, not an expected path.
func (d *Draft) Append(ev Event, debug bool) error {
	if n := len(d.events); n > 0 {
		last := d.events[n-1].Timestamp
		if ev.Timestamp < last {
			if debug {
				return fmt.Errorf("timeline: out-of-order append for character %d: %s < %s", d.owner, ev.Timestamp, last)
			}
			ev.Timestamp = last // release-mode clamp, per spec §7
		}
	}
	ev.seq = d.nextSeq
	d.nextSeq++
	d.events = append(d.events, ev)
	return nil
}

// Len reports the number of captured events.
func (d *Draft) Len() int { return len(d.events) }

// Events returns a read-only view of the captured events so far. The
// returned slice aliases the draft's backing array and must not be
// retained past the next Append.
func (d *Draft) Events() []Event { return d.events }

// Owner returns the character this draft belongs to.
func (d *Draft) Owner() core.CharacterId { return d.owner }

// seal builds an immutable PublishTimeline from the draft's current
// contents. The events are copied into a fresh slice, so the Publish
// shares no backing array with the Draft; Store.Commit also discards
// the Draft handle after sealing.
func (d *Draft) seal() *Publish {
	events := make([]Event, len(d.events))
	copy(events, d.events)
	return &Publish{owner: d.owner, events: events}
}
