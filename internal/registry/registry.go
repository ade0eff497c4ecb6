// Package registry defines the character registry contract the
// Recording State Machine, Capture Pipeline, and Playback Scheduler
// consume to resolve a character's arena and position without owning
// character lifecycle themselves (spec §6: "Character registry (from
// world collaborator)"). Grounded on engine/world.go's split between
// entity ownership (World) and component lookup (typed stores) —
// reduced here to the narrow read contract this core needs.
package registry

import "github.com/arenic/timelinecore/internal/core"

// Registry resolves character placement and receives despawn
// notifications. The world collaborator that owns spawning is expected
// to provide an implementation; InMemory below is a reference
// implementation used by tests and the cmd/arenic-sim harness.
type Registry interface {
	ArenaOf(core.CharacterId) (core.ArenaId, bool)
	PositionOf(core.CharacterId) (core.GridPosition, bool)
}

// DespawnNotifier is implemented by registries that can tell
// subscribers when a character leaves the session, so owners of
// per-character state (the Timeline Store, the Recording Controller)
// can drop it (spec §3: PublishTimeline "dropped when its owning
// character is despawned").
type DespawnNotifier interface {
	OnDespawn(func(core.CharacterId))
}

// InMemory is a simple registry backed by maps, suitable for tests and
// the simulation harness. A production world collaborator would
// implement Registry directly against its own entity/position stores.
type InMemory struct {
	arenas    map[core.CharacterId]core.ArenaId
	positions map[core.CharacterId]core.GridPosition
	despawnCb []func(core.CharacterId)
}

// NewInMemory creates an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{
		arenas:    make(map[core.CharacterId]core.ArenaId),
		positions: make(map[core.CharacterId]core.GridPosition),
	}
}

// Spawn registers a character at a position within an arena.
func (r *InMemory) Spawn(c core.CharacterId, arena core.ArenaId, pos core.GridPosition) {
	r.arenas[c] = arena
	r.positions[c] = pos
}

// Move updates a character's current grid position.
func (r *InMemory) Move(c core.CharacterId, pos core.GridPosition) {
	r.positions[c] = pos
}

// Despawn removes a character and notifies subscribers.
func (r *InMemory) Despawn(c core.CharacterId) {
	delete(r.arenas, c)
	delete(r.positions, c)
	for _, cb := range r.despawnCb {
		cb(c)
	}
}

// ArenaOf implements Registry.
func (r *InMemory) ArenaOf(c core.CharacterId) (core.ArenaId, bool) {
	a, ok := r.arenas[c]
	return a, ok
}

// PositionOf implements Registry.
func (r *InMemory) PositionOf(c core.CharacterId) (core.GridPosition, bool) {
	p, ok := r.positions[c]
	return p, ok
}

// OnDespawn implements DespawnNotifier.
func (r *InMemory) OnDespawn(fn func(core.CharacterId)) {
	r.despawnCb = append(r.despawnCb, fn)
}
