// Package playback implements the Playback Scheduler (spec §4.5): for
// every ghost in every unpaused arena, it resolves the arena's
// (prev, curr] clock window, dispatches Ability trigger events found in
// that window (deduplicated within a sliding time window), and
// interpolates the ghost's world position from the surrounding
// Movement events, with full wrap-around support. Grounded on
// engine/clock_scheduler.go's processTick, which is this project's model
// for "one ordered pass per tick across many independently-clocked
// actors" — generalized here from the teacher's single world clock to
// the eight independent per-arena clocks spec §4.5 requires.
package playback

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
	"github.com/arenic/timelinecore/internal/diagnostics"
	"github.com/arenic/timelinecore/internal/outbound"
	"github.com/arenic/timelinecore/internal/registry"
	"github.com/arenic/timelinecore/internal/timeline"
)

// AliveState is a ghost's playback lifecycle state (spec §4.5: "State
// machine for a ghost's playback: Alive -> Dead -> Alive").
type AliveState uint8

const (
	Alive AliveState = iota
	Dead
)

// ghost tracks one character's per-tick playback state. Held privately
// by Scheduler, keyed by character id, so a ghost's dedupe window and
// alive/dead toggle survive across ticks without the caller threading
// anything through.
type ghost struct {
	arena core.ArenaId
	state AliveState

	// dedupeSeen holds the (timestamp, ability) pairs dispatched within
	// the last DedupeWindow of simulation time, oldest first, so a
	// linear scan can evict stale entries each tick (spec §4.5 step 1:
	// "retained for no more than 1s of simulation time").
	dedupeSeen []dedupeEntry

	warnedCorrupted bool
}

type dedupeEntry struct {
	ts      clock.TimeStamp
	ability core.AbilityId
}

// Scheduler is the Playback Scheduler. One instance drives every ghost
// in every arena; arena association and per-ghost state are both
// self-contained so arena resolution can be safely parallelized per
// spec §5's permitted (not required) concurrency -- see ResolveArena.
type Scheduler struct {
	store    *timeline.Store
	registry registry.Registry
	diag     *diagnostics.Channel
	logger   *log.Logger

	dedupeWindow clock.TimeStamp

	ghosts map[core.CharacterId]*ghost
	// order preserves character-insertion order per arena, the
	// "arena-major then character-insertion order" tiebreak spec §4.5
	// and §5 both require for stable intra-tick ordering.
	order map[core.ArenaId][]core.CharacterId
}

// NewScheduler creates a Scheduler reading published timelines from
// store and character placement from reg.
func NewScheduler(store *timeline.Store, reg registry.Registry, diag *diagnostics.Channel, dedupeWindow clock.TimeStamp, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		store:        store,
		registry:     reg,
		diag:         diag,
		logger:       logger,
		dedupeWindow: dedupeWindow,
		ghosts:       make(map[core.CharacterId]*ghost),
		order:        make(map[core.ArenaId][]core.CharacterId),
	}
}

// AddGhost registers a character as a ghost in arena a, starting Alive
// (spec §4.5: "Initial state: Alive"). Call once when Timeline.Commit
// transitions a character to the Ghost role.
func (s *Scheduler) AddGhost(c core.CharacterId, a core.ArenaId) {
	if _, exists := s.ghosts[c]; exists {
		return
	}
	s.ghosts[c] = &ghost{arena: a, state: Alive}
	s.order[a] = append(s.order[a], c)
}

// RemoveGhost drops a character's playback state, called on despawn or
// when it is promoted back out of the Ghost role (spec §4.3's
// DraftNew/Retry choices).
func (s *Scheduler) RemoveGhost(c core.CharacterId) {
	g, ok := s.ghosts[c]
	if !ok {
		return
	}
	delete(s.ghosts, c)
	list := s.order[g.arena]
	for i, id := range list {
		if id == c {
			s.order[g.arena] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

// AliveStateOf reports a ghost's current lifecycle state, for tests and
// inspection tooling.
func (s *Scheduler) AliveStateOf(c core.CharacterId) AliveState {
	if g, ok := s.ghosts[c]; ok {
		return g.state
	}
	return Alive
}

// Resolve runs one scheduler pass across every arena for the windows
// ClockGrid.Tick produced this frame, appending outward events to out.
// Paused arenas (windows[a].Prev == windows[a].Curr with the grid
// globally paused) still get a pass, but the caller is expected to
// skip calling Resolve entirely while any dialog is open (spec §4.5:
// "Runs once per tick while global mode is not DialogPaused") --
// Resolve itself has no notion of global mode.
func (s *Scheduler) Resolve(windows [clock.NumArenas]clock.Window, period clock.TimeStamp, out *outbound.Batch) {
	for a := core.ArenaId(0); a < clock.NumArenas; a++ {
		s.ResolveArena(a, windows[a], period, out)
	}
}

// ResolveArena runs the scheduler pass for a single arena. Spec §5
// permits but does not require parallelizing this per arena; when run
// concurrently each goroutine must write into its own *outbound.Batch
// and the caller merges them with outbound.MergeBatches to preserve
// arena-major ordering.
func (s *Scheduler) ResolveArena(a core.ArenaId, w clock.Window, period clock.TimeStamp, out *outbound.Batch) {
	for _, c := range s.order[a] {
		s.resolveGhost(c, s.ghosts[c], w, period, out)
	}
}

// ResolveConcurrent is the parallel form spec §5 permits: one goroutine
// per arena (errgroup.Group), each writing into its own thread-local
// Batch, with a semaphore bounding how many ghosts within a single
// arena resolve concurrently -- resolveGhost mutates only that ghost's
// own dedupe and alive-state fields, so up to maxGhostConcurrency ghosts
// of one arena run at once, and arena-to-arena work overlaps freely
// since no state is shared across arenas. Batches are
// merged with outbound.MergeBatches to restore the stable arena-major,
// character-insertion order spec §4.5/§5 requires regardless of
// completion order.
func (s *Scheduler) ResolveConcurrent(ctx context.Context, windows [clock.NumArenas]clock.Window, period clock.TimeStamp, maxGhostConcurrency int64) ([]outbound.Event, error) {
	batches := make([]*outbound.Batch, clock.NumArenas)
	g, gctx := errgroup.WithContext(ctx)
	for a := core.ArenaId(0); a < clock.NumArenas; a++ {
		a := a
		batch := outbound.NewBatch(a)
		batches[a] = batch
		w := windows[a]
		g.Go(func() error {
			return s.resolveArenaConcurrent(gctx, a, w, period, batch, maxGhostConcurrency)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outbound.MergeBatches(batches), nil
}

// resolveArenaConcurrent resolves every ghost in arena a concurrently,
// each into its own private Batch slot so goroutine completion order
// never affects output order -- the slots are concatenated in
// character-insertion order once every goroutine finishes, which is
// what keeps this path byte-identical to the sequential ResolveArena
// despite running ghosts out of order (spec §3's determinism
// invariant: "the sequence of dispatched ability triggers and movement
// samples is byte-identical across runs").
func (s *Scheduler) resolveArenaConcurrent(ctx context.Context, a core.ArenaId, w clock.Window, period clock.TimeStamp, out *outbound.Batch, maxGhostConcurrency int64) error {
	if maxGhostConcurrency <= 0 {
		maxGhostConcurrency = 1
	}
	order := s.order[a]
	slots := make([]*outbound.Batch, len(order))
	sem := semaphore.NewWeighted(maxGhostConcurrency)
	var inner errgroup.Group
	for i, c := range order {
		i, c := i, c
		ghostState := s.ghosts[c]
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		inner.Go(func() error {
			defer sem.Release(1)
			slot := outbound.NewBatch(a)
			s.resolveGhost(c, ghostState, w, period, slot)
			slots[i] = slot
			return nil
		})
	}
	if err := inner.Wait(); err != nil {
		return err
	}
	for _, slot := range slots {
		for _, ev := range slot.Events() {
			out.AppendEvent(ev)
		}
	}
	return nil
}

func (s *Scheduler) resolveGhost(c core.CharacterId, g *ghost, w clock.Window, period clock.TimeStamp, out *outbound.Batch) {
	pub := s.store.Publish(c)
	if pub.Len() == 0 {
		// spec §4.5 "Failure semantics": empty/corrupted timeline is a
		// no-op, diagnosed at most once per ghost per session.
		if !g.warnedCorrupted {
			g.warnedCorrupted = true
			s.emitCorrupted(c)
		}
		return
	}

	events := pub.Query(w.Prev, w.Curr, period)
	s.applyLifecycle(g, events, w.Wrapped)
	s.dispatchAbilities(c, g, events, w.Curr, out)
	s.resolveMovement(c, g, pub, w, period, out)
}

// applyLifecycle toggles a ghost's Alive/Dead state from Death/Revive
// markers encountered in this tick's window, in timestamp order, then
// resets to Alive on wrap regardless of what the window contained
// (spec §4.5 step 4: "on wrap, reset to alive with the first Movement
// position"). The dedupe window is cleared on wrap too: its entries are
// timestamps within the just-ended cycle, and carrying them into the
// next cycle would falsely suppress a dispatch at the same in-cycle
// timestamp next time around.
func (s *Scheduler) applyLifecycle(g *ghost, events []timeline.Event, wrapped bool) {
	for _, ev := range events {
		switch ev.Kind {
		case timeline.Death:
			g.state = Dead
		case timeline.Revive:
			g.state = Alive
		}
	}
	if wrapped {
		g.state = Alive
		g.dedupeSeen = g.dedupeSeen[:0]
	}
}

// dispatchAbilities emits AbilityTriggerEvent for every Ability event in
// this tick's window, in timestamp order (ties broken by capture/
// insertion order, preserved by Query), skipping duplicates already
// seen within the dedupe window and skipping entirely while the ghost
// is Dead (spec §9: "dead ghosts dispatch nothing"). Eviction runs every
// tick against the window's own advancing clock, not just when a new
// ability is dispatched -- otherwise an ability dispatched near the end
// of a cycle, with no further ability following it before wrap, would
// never have its dedupe entry evicted and would be falsely treated as a
// repeat the next time a same-timestamp ability is captured.
func (s *Scheduler) dispatchAbilities(c core.CharacterId, g *ghost, events []timeline.Event, curr clock.TimeStamp, out *outbound.Batch) {
	s.evictDedupe(g, curr)
	if g.state == Dead {
		return
	}
	for _, ev := range events {
		if ev.Kind != timeline.Ability {
			continue
		}
		if s.isDuplicate(g, ev) {
			continue
		}
		g.dedupeSeen = append(g.dedupeSeen, dedupeEntry{ts: ev.Timestamp, ability: ev.AbilityID})
		out.PushAbility(outbound.AbilityTriggerEvent{
			Caster:    c,
			Ability:   ev.AbilityID,
			Target:    ev.Target,
			Timestamp: ev.Timestamp,
		})
	}
}

func (s *Scheduler) isDuplicate(g *ghost, ev timeline.Event) bool {
	for _, d := range g.dedupeSeen {
		if d.ts == ev.Timestamp && d.ability == ev.AbilityID {
			return true
		}
	}
	return false
}

// evictDedupe drops dedupe entries older than the dedupe window,
// measured against curr -- the current tick's window time -- rather
// than against whatever ability timestamp happens to be dispatching
// this tick, so the window keeps advancing even on ticks that dispatch
// nothing.
func (s *Scheduler) evictDedupe(g *ghost, curr clock.TimeStamp) {
	cutoff := curr - s.dedupeWindow
	kept := g.dedupeSeen[:0]
	for _, d := range g.dedupeSeen {
		if d.ts > cutoff {
			kept = append(kept, d)
		}
	}
	g.dedupeSeen = kept
}

// resolveMovement interpolates the ghost's world position between the
// surrounding Movement events (spec §4.5 step 2) with wrap support
// (step 3), and suppresses emission while Dead.
func (s *Scheduler) resolveMovement(c core.CharacterId, g *ghost, pub *timeline.Publish, w clock.Window, period clock.TimeStamp, out *outbound.Batch) {
	if g.state == Dead {
		return
	}

	prevMove, hasPrev := pub.MovementAt(w.Curr)
	if !hasPrev {
		return
	}

	nextMove, hasNext := pub.NextMovementAfter(w.Curr)
	if !hasNext {
		// Wrap the search: the earliest Movement event after time 0
		// (spec §4.5 step 3), distinct from prevMove only if the
		// timeline has more than one Movement event.
		if first, ok := pub.FirstMovement(); ok && first.Timestamp != prevMove.Timestamp {
			nextMove, hasNext = first, true
		}
	}

	pos := interpolate(prevMove, nextMove, hasNext, w.Curr, period)
	out.PushMovement(outbound.GhostMovement{
		Character:     c,
		WorldPosition: pos,
	})
}

// interpolate computes a ghost's world-space position at time curr
// given the bracketing Movement events. If next does not exist (or
// exists but bracketing is degenerate) the position holds at prev's
// (spec §4.5 step 2: "If only prev_move exists, hold its position").
func interpolate(prev, next timeline.Event, hasNext bool, curr, period clock.TimeStamp) core.Vec3 {
	prevPos := gridToWorld(prev.Position)
	if !hasNext {
		return prevPos
	}

	// Inter-event duration, accounting for the case where next wraps
	// past the cycle boundary relative to prev (spec §4.5 step 3:
	// "(T - prev_move.ts) + next_move.ts").
	var duration, elapsed clock.TimeStamp
	if next.Timestamp > prev.Timestamp {
		duration = next.Timestamp - prev.Timestamp
	} else {
		duration = (period - prev.Timestamp) + next.Timestamp
	}
	if duration <= 0 {
		return prevPos
	}

	if curr >= prev.Timestamp {
		elapsed = curr - prev.Timestamp
	} else {
		// curr has wrapped past 0 relative to prev.
		elapsed = (period - prev.Timestamp) + curr
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > duration {
		elapsed = duration
	}

	frac := float64(elapsed) / float64(duration)
	nextPos := gridToWorld(next.Position)
	return core.Vec3{
		X: lerp(prevPos.X, nextPos.X, frac),
		Y: lerp(prevPos.Y, nextPos.Y, frac),
		Z: lerp(prevPos.Z, nextPos.Z, frac),
	}
}

func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}

// gridToWorld converts an integer tile coordinate to a continuous
// world position. This core has no tile-size authority of its own
// (spec §1 scopes world/arena content authoring out); a unit tile size
// is used so downstream rendering rescales as needed.
func gridToWorld(p core.GridPosition) core.Vec3 {
	return core.Vec3{X: float64(p.X), Y: float64(p.Y), Z: 0}
}

func (s *Scheduler) emitCorrupted(c core.CharacterId) {
	s.logger.Printf("playback: character %d has an empty or corrupted timeline, standing idle", c)
	if s.diag != nil {
		s.diag.Emit(diagnostics.Event{
			Kind:    diagnostics.CorruptedTimeline,
			Message: "playback: ghost has empty or corrupted timeline",
		})
	}
}
