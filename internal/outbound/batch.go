package outbound

import "github.com/arenic/timelinecore/internal/core"

// Batch is a thread-local, unsynchronized event buffer one arena's
// playback resolution writes into. Spec §5 permits per-arena
// parallelism only if "outward event buffering is thread-local and
// merged in arena-major order at (5)" — Batch is that thread-local
// buffer; MergeBatches is the arena-major merge step.
type Batch struct {
	arena  core.ArenaId
	events []Event
	nextSeq uint64
}

// NewBatch creates an empty batch for one arena.
func NewBatch(arena core.ArenaId) *Batch {
	return &Batch{arena: arena}
}

// PushAbility appends an AbilityTriggerEvent, in the order it was
// resolved within this arena's tick.
func (b *Batch) PushAbility(ev AbilityTriggerEvent) {
	b.events = append(b.events, Event{Kind: KindAbilityTrigger, Arena: b.arena, seq: b.nextSeq, Ability: ev})
	b.nextSeq++
}

// PushMovement appends a GhostMovement.
func (b *Batch) PushMovement(ev GhostMovement) {
	b.events = append(b.events, Event{Kind: KindGhostMovement, Arena: b.arena, seq: b.nextSeq, Movement: ev})
	b.nextSeq++
}

// PushModeChanged appends a RecordingModeChanged. Mode changes are
// global, not arena-scoped, but are still routed through a batch so a
// single flush call can carry every outward event kind.
func (b *Batch) PushModeChanged(ev RecordingModeChanged) {
	b.events = append(b.events, Event{Kind: KindRecordingModeChanged, Arena: b.arena, seq: b.nextSeq, ModeChanged: ev})
	b.nextSeq++
}

// Events returns the batch's buffered events in insertion order.
func (b *Batch) Events() []Event { return b.events }

// AppendEvent appends an already-constructed Event, restamping its
// Arena and seq to this batch's own sequence. Used when concatenating
// per-ghost scratch batches (internal/playback's concurrent resolution
// path) into one arena-level batch, where the event payloads are
// already built but need a single batch's monotonic seq.
func (b *Batch) AppendEvent(ev Event) {
	ev.Arena = b.arena
	ev.seq = b.nextSeq
	b.events = append(b.events, ev)
	b.nextSeq++
}

// MergeBatches concatenates per-arena batches in arena-major order,
// preserving each batch's internal insertion order — the stable,
// specified intra-tick order spec §4.5/§5 requires: "arena-major then
// character-insertion order."
func MergeBatches(batches []*Batch) []Event {
	total := 0
	for _, b := range batches {
		total += len(b.events)
	}
	out := make([]Event, 0, total)
	ordered := make([]*Batch, len(batches))
	copy(ordered, batches)
	// Batches are expected to already be indexed by arena; sort defensively
	// so callers that build them out of order still get arena-major flush.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].arena < ordered[j-1].arena; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	for _, b := range ordered {
		out = append(out, b.events...)
	}
	return out
}
