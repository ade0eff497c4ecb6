// Package timeline implements the append-only capture buffer
// (DraftTimeline), the immutable shared replay buffer
// (PublishTimeline), and the Store that mediates between them.
package timeline

import (
	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
)

// Kind discriminates the tagged union a TimelineEvent carries. Modeled
// as an enum over a single struct (spec §9: "tagged unions... no
// subtype polymorphism is required"), the same shape the teacher uses
// for event.GameEvent{Type, Payload}, specialized here since each
// variant's payload is small enough to inline rather than box.
type Kind uint8

const (
	Movement Kind = iota
	Ability
	Death
	Revive
)

func (k Kind) String() string {
	switch k {
	case Movement:
		return "Movement"
	case Ability:
		return "Ability"
	case Death:
		return "Death"
	case Revive:
		return "Revive"
	default:
		return "Unknown"
	}
}

// Event is one entry in a timeline. Only the fields relevant to Kind
// are meaningful; e.g. Ability and Target are zero for Movement events.
type Event struct {
	Timestamp clock.TimeStamp
	Kind      Kind

	// Movement, Revive
	Position core.GridPosition

	// Ability
	AbilityID core.AbilityId
	Target    *core.Target // nil means Option::None

	// seq breaks ties between events sharing a Timestamp, in insertion
	// (capture) order — spec §4.2: "ties break deterministically by
	// insertion index, so replay order equals capture order."
	seq uint64
}

// NewMovement builds a Movement event.
func NewMovement(ts clock.TimeStamp, pos core.GridPosition) Event {
	return Event{Timestamp: ts, Kind: Movement, Position: pos}
}

// NewAbility builds an Ability event. target may be nil.
func NewAbility(ts clock.TimeStamp, id core.AbilityId, target *core.Target) Event {
	return Event{Timestamp: ts, Kind: Ability, AbilityID: id, Target: target}
}

// NewDeath builds a Death marker event.
func NewDeath(ts clock.TimeStamp) Event {
	return Event{Timestamp: ts, Kind: Death}
}

// NewRevive builds a Revive marker event.
func NewRevive(ts clock.TimeStamp, pos core.GridPosition) Event {
	return Event{Timestamp: ts, Kind: Revive, Position: pos}
}
