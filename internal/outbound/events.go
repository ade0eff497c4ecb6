// Package outbound defines the events the core emits downstream (spec
// §6 Outbound) and the lock-free queue and stable-ordering machinery
// used to flush them once per tick.
package outbound

import (
	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
)

// Kind discriminates the three outward event shapes spec §6 names.
type Kind uint8

const (
	// KindAbilityTrigger is realized by the out-of-scope Ability
	// Resolution collaborator.
	KindAbilityTrigger Kind = iota
	// KindGhostMovement is consumed by the Transform/Rendering
	// collaborator.
	KindGhostMovement
	// KindRecordingModeChanged is consumed by UI collaborators.
	KindRecordingModeChanged
)

// AbilityTriggerEvent is emitted when a ghost's timeline reaches an
// Ability event during playback (spec §4.5 step 1).
type AbilityTriggerEvent struct {
	Caster    core.CharacterId
	Ability   core.AbilityId
	Target    *core.Target
	Timestamp clock.TimeStamp
}

// GhostMovement reports a ghost's interpolated world position for this
// tick (spec §4.5 step 2).
type GhostMovement struct {
	Character     core.CharacterId
	WorldPosition core.Vec3
}

// RecordingModeChanged reports a global mode transition (spec §4.3).
type RecordingModeChanged struct {
	From string
	To   string
}

// Event is a tagged union over the three outward shapes, carried
// through the queue so a single consumer can flush all three kinds in
// one stable-ordered pass. Modeled the same way timeline.Event models
// its own tagged union: one struct, a Kind tag, and only the
// kind-relevant fields populated.
type Event struct {
	Kind        Kind
	Arena       core.ArenaId // arena-major ordering key for flush (spec §5)
	seq         uint64       // insertion order within an arena, for stable tie-break
	Ability     AbilityTriggerEvent
	Movement    GhostMovement
	ModeChanged RecordingModeChanged
}
