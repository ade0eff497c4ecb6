package capture

import (
	"testing"

	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
	"github.com/arenic/timelinecore/internal/timeline"
)

func newTestPipeline(t *testing.T) (*Pipeline, *clock.ClockGrid, *timeline.Store) {
	t.Helper()
	grid := clock.NewClockGrid(clock.TimeStamp(120000), nil)
	store := timeline.NewStore()
	p := NewPipeline(store, grid, nil)
	return p, grid, store
}

func TestRepeatedMovementIsNotReappended(t *testing.T) {
	p, grid, store := newTestPipeline(t)
	const c = core.CharacterId(1)
	store.BeginDraft(c)
	p.BeginCharacter(c, core.GridPosition{X: 1, Y: 1})

	grid.Tick(1000)
	p.Movement(c, 0, core.GridPosition{X: 1, Y: 1})
	p.Movement(c, 0, core.GridPosition{X: 1, Y: 1})
	if got := store.DraftLen(c); got != 0 {
		t.Fatalf("draft len = %d, want 0 (no transition yet)", got)
	}

	grid.Tick(1000)
	p.Movement(c, 0, core.GridPosition{X: 2, Y: 1})
	if got := store.DraftLen(c); got != 1 {
		t.Fatalf("draft len = %d, want 1 after a real transition", got)
	}
}

func TestAbilityEventsAreNeverDeduplicated(t *testing.T) {
	p, _, store := newTestPipeline(t)
	const c = core.CharacterId(1)
	store.BeginDraft(c)

	p.Ability(c, 0, core.AbilityId(7), nil)
	p.Ability(c, 0, core.AbilityId(7), nil)
	if got := store.DraftLen(c); got != 2 {
		t.Fatalf("draft len = %d, want 2 (abilities are never deduped)", got)
	}
}

func TestDeathAndReviveAppendLifecycleMarkers(t *testing.T) {
	p, grid, store := newTestPipeline(t)
	const c = core.CharacterId(1)
	store.BeginDraft(c)
	p.BeginCharacter(c, core.GridPosition{})

	grid.Tick(5000)
	p.Death(c, 0)
	grid.Tick(1000)
	p.Revive(c, 0, core.GridPosition{X: 3, Y: 3})

	events := store.DraftEvents(c)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Kind != timeline.Death {
		t.Fatalf("first event kind = %v, want Death", events[0].Kind)
	}
	if events[1].Kind != timeline.Revive || events[1].Position != (core.GridPosition{X: 3, Y: 3}) {
		t.Fatalf("second event = %+v, want Revive at (3,3)", events[1])
	}

	grid.Tick(1000)
	p.Movement(c, 0, core.GridPosition{X: 3, Y: 3})
	if got := store.DraftLen(c); got != 2 {
		t.Fatalf("draft len = %d, want 2 (revive position suppresses identical movement)", got)
	}
}
