package clock

import (
	"testing"

	"github.com/arenic/timelinecore/internal/core"
)

func newTestGrid() *ClockGrid {
	return NewClockGrid(TimeStamp(120_000), nil)
}

func TestTickAdvancesAllArenas(t *testing.T) {
	g := newTestGrid()
	windows := g.Tick(TimeStamp(1000))

	for a := 0; a < NumArenas; a++ {
		if windows[a].Prev != 0 || windows[a].Curr != 1000 {
			t.Fatalf("arena %d: got window %+v, want prev=0 curr=1000", a, windows[a])
		}
		if windows[a].Wrapped {
			t.Fatalf("arena %d: unexpected wrap", a)
		}
	}
}

func TestWrapIncrementsCycleCount(t *testing.T) {
	g := newTestGrid()
	g.Tick(TimeStamp(119_000))

	windows := g.Tick(TimeStamp(2000))
	w := windows[0]
	if !w.Wrapped {
		t.Fatalf("expected wrap, got %+v", w)
	}
	if w.Prev != 119_000 || w.Curr != 1000 {
		t.Fatalf("got %+v, want prev=119000 curr=1000", w)
	}
	if g.CycleCount(core.ArenaId(0)) != 1 {
		t.Fatalf("cycle count = %d, want 1", g.CycleCount(core.ArenaId(0)))
	}
}

func TestPauseFreezesTime(t *testing.T) {
	g := newTestGrid()
	g.Tick(TimeStamp(5000))
	g.PauseAll()

	before := g.Current(core.ArenaId(3))
	for i := 0; i < 5; i++ {
		g.Tick(TimeStamp(1000))
	}
	after := g.Current(core.ArenaId(3))

	if before != after {
		t.Fatalf("pause did not freeze time: before=%s after=%s", before, after)
	}
}

func TestResumeContinuesFromPausedValue(t *testing.T) {
	g := newTestGrid()
	g.Tick(TimeStamp(5000))
	g.PauseAll()
	g.Tick(TimeStamp(1000))
	g.ResumeAll()
	g.Tick(TimeStamp(1000))

	if got := g.Current(core.ArenaId(0)); got != 6000 {
		t.Fatalf("current = %s, want 6000ms", got)
	}
}

func TestResetArenaZeroesOnlyThatArena(t *testing.T) {
	g := newTestGrid()
	g.Tick(TimeStamp(10_000))
	g.ResetArena(core.ArenaId(2))

	if got := g.Current(core.ArenaId(2)); got != 0 {
		t.Fatalf("arena 2 current = %s, want 0", got)
	}
	if got := g.Current(core.ArenaId(1)); got != 10_000 {
		t.Fatalf("arena 1 current = %s, want 10000ms (unaffected)", got)
	}
}

func TestDeltaGreaterThanPeriodIsClamped(t *testing.T) {
	g := newTestGrid()
	windows := g.Tick(TimeStamp(999_999))
	w := windows[0]
	if w.Curr != 0 {
		t.Fatalf("clamped delta should land exactly on wrap, got curr=%s", w.Curr)
	}
	if g.CycleCount(core.ArenaId(0)) != 1 {
		t.Fatalf("expected exactly one wrap from clamped delta")
	}
}

func TestWindowContainsWrapCase(t *testing.T) {
	period := TimeStamp(120_000)
	w := Window{Prev: 119_500, Curr: 500, Wrapped: true}

	if !w.Contains(TimeStamp(119_900), period) {
		t.Fatalf("expected 119900 inside wrapped window")
	}
	if !w.Contains(TimeStamp(200), period) {
		t.Fatalf("expected 200 inside wrapped window")
	}
	if w.Contains(TimeStamp(60_000), period) {
		t.Fatalf("60000 should be outside wrapped window")
	}
}
