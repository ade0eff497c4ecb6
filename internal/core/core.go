// Package core holds the small, copyable value types shared by every
// other package in the timeline core. Nothing here carries behavior.
package core

// ArenaId identifies one of the fixed play regions. Valid range is
// [0, ARENAS) — see internal/config.
type ArenaId int

// CharacterId is a stable handle for a character, unique for the
// lifetime of the process. Zero is never a valid id.
type CharacterId uint64

// AbilityId identifies an ability binding. Slots 1-4 map to AbilityId
// values through the character's own binding table, which this core
// does not own.
type AbilityId uint32

// GridPosition is an integer tile coordinate within an arena.
type GridPosition struct {
	X, Y int32
}

// Vec3 is a world-space position, used only on the outbound boundary
// (GhostMovement) where downstream rendering expects continuous space.
type Vec3 struct {
	X, Y, Z float64
}

// Target is the optional payload an Ability event may carry. A nil
// *Target means "no target" (spec §3: Ability(AbilityId, Option<Target>)).
type Target struct {
	Kind   TargetKind
	Entity CharacterId
	Pos    GridPosition
}

// TargetKind discriminates how a Target should be interpreted.
type TargetKind uint8

const (
	// TargetNone should not appear on a constructed Target; absence of a
	// target is represented by a nil *Target, not TargetNone.
	TargetNone TargetKind = iota
	TargetEntity
	TargetPosition
)
