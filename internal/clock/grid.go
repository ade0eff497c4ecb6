package clock

import (
	"log"

	"github.com/arenic/timelinecore/internal/core"
)

// NumArenas is the fixed arena count (spec §6: ARENAS = 8).
const NumArenas = 8

type arenaState struct {
	current    TimeStamp
	cycleCount uint64
}

// ClockGrid maintains one monotonic clock per arena sharing the same
// wrap-around period, plus a single global pause flag. It has no
// internal notion of wall-clock time: every advance is driven by an
// explicit delta supplied by the caller, which is what spec §5's
// determinism requirement ("wall-clock time is forbidden") demands —
// the teacher's PausableClock (engine/pausable_clock.go) instead reads
// time.Now() because the game it drives is not required to be
// frame-reproducible across runs; this grid keeps its pause/resume
// bookkeeping shape but replaces the time source with an injected
// delta.
type ClockGrid struct {
	period TimeStamp
	paused bool
	arenas [NumArenas]arenaState

	logger *log.Logger
}

// NewClockGrid creates a grid with all arena clocks at zero.
func NewClockGrid(period TimeStamp, logger *log.Logger) *ClockGrid {
	if logger == nil {
		logger = log.Default()
	}
	return &ClockGrid{period: period, logger: logger}
}

// Period returns the configured wrap-around period (spec: T = 120.0s).
func (g *ClockGrid) Period() TimeStamp { return g.period }

// Tick advances all arena clocks by delta and returns each arena's
// (prev, curr] window, wrapping modulo Period. If the grid is paused
// every window reports prev == curr (spec's pause invariant: "for
// every arena clock.current(arena) is identical before and after any
// number of ticks"). A delta greater than the period is a fatal
// correctness bug upstream (spec §4.1); it is clamped and logged, never
// rejected, because Tick is total.
func (g *ClockGrid) Tick(delta TimeStamp) [NumArenas]Window {
	var windows [NumArenas]Window

	if g.paused {
		for i := range g.arenas {
			c := g.arenas[i].current
			windows[i] = Window{Prev: c, Curr: c}
		}
		return windows
	}

	if delta > g.period {
		g.logger.Printf("clock: delta %s exceeds period %s, clamping", delta, g.period)
		delta = g.period
	}
	if delta < 0 {
		g.logger.Printf("clock: negative delta %s, clamping to 0", delta)
		delta = 0
	}

	for i := range g.arenas {
		prev := g.arenas[i].current
		sum := prev + delta
		wrapped := sum >= g.period
		curr := sum
		if wrapped {
			curr = sum - g.period
			g.arenas[i].cycleCount++
		}
		g.arenas[i].current = curr
		windows[i] = Window{Prev: prev, Curr: curr, Wrapped: wrapped}
	}
	return windows
}

// PauseAll suspends every arena clock. Idempotent.
func (g *ClockGrid) PauseAll() { g.paused = true }

// ResumeAll resumes every arena clock. Idempotent.
func (g *ClockGrid) ResumeAll() { g.paused = false }

// Paused reports the current global pause state.
func (g *ClockGrid) Paused() bool { return g.paused }

// ResetArena sets one arena's clock to zero without touching its cycle
// count's external semantics (spec §4.1: "does not change cycle_count's
// semantics elsewhere").
func (g *ClockGrid) ResetArena(a core.ArenaId) {
	g.arenas[a].current = 0
}

// Current returns an arena's current timestamp.
func (g *ClockGrid) Current(a core.ArenaId) TimeStamp {
	return g.arenas[a].current
}

// CycleCount returns how many times an arena's clock has wrapped.
func (g *ClockGrid) CycleCount(a core.ArenaId) uint64 {
	return g.arenas[a].cycleCount
}
