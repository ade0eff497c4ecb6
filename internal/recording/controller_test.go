package recording

import (
	"testing"

	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
	"github.com/arenic/timelinecore/internal/diagnostics"
	"github.com/arenic/timelinecore/internal/registry"
	"github.com/arenic/timelinecore/internal/timeline"
)

const countdown = clock.TimeStamp(3000)
const period = clock.TimeStamp(120000)

func newTestController(t *testing.T) (*Controller, *clock.ClockGrid, *timeline.Store, *registry.InMemory) {
	t.Helper()
	grid := clock.NewClockGrid(period, nil)
	store := timeline.NewStore()
	reg := registry.NewInMemory()
	diag := diagnostics.NewChannel(16)
	ctrl, err := NewController(grid, store, reg, diag, countdown, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl, grid, store, reg
}

func expireCountdown(c *Controller, grid *clock.ClockGrid) {
	windows := grid.Tick(countdown)
	c.Tick(countdown, windows)
}

func TestStartRecordingRequiresLiveCharacter(t *testing.T) {
	c, _, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)

	_, err := c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	if err != nil {
		t.Fatalf("HandleInput: %v", err)
	}
	if c.Mode() != ModeCountdown {
		t.Fatalf("mode = %v, want Countdown", c.Mode())
	}
}

func TestStartRecordingRejectedWhenNotLive(t *testing.T) {
	c, _, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})

	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	if c.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want Idle (rejected)", c.Mode())
	}
}

func TestCountdownExpiryEntersRecordingWithSyntheticMovement(t *testing.T) {
	c, grid, store, reg := newTestController(t)
	reg.Spawn(1, core.ArenaId(2), core.GridPosition{X: 5, Y: 5})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})

	expireCountdown(c, grid)
	if c.Mode() != ModeRecording {
		t.Fatalf("mode = %v, want Recording", c.Mode())
	}
	if !store.HasDraft(1) {
		t.Fatal("expected an open draft after countdown expiry")
	}
	if store.DraftLen(1) != 1 {
		t.Fatalf("draft len = %d, want 1 (synthetic initial movement)", store.DraftLen(1))
	}
}

func TestInterruptOpensMidRecordingDialogAndPauses(t *testing.T) {
	c, grid, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	expireCountdown(c, grid)

	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	if c.Mode() != ModeDialogMidRecording {
		t.Fatalf("mode = %v, want DialogMidRecording", c.Mode())
	}
	if !grid.Paused() {
		t.Fatal("expected clock grid paused while dialog is open")
	}
}

func TestCancelResumesRecordingUnchanged(t *testing.T) {
	c, grid, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	expireCountdown(c, grid)
	before := grid.Current(0)

	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	grid.Tick(500) // paused, must not advance
	_, _ = c.HandleInput(Input{Kind: InputConfirmDialog, Character: 1, Choice: ChoiceCancel})

	if c.Mode() != ModeRecording {
		t.Fatalf("mode = %v, want Recording", c.Mode())
	}
	if grid.Paused() {
		t.Fatal("expected clock resumed after cancel")
	}
	if grid.Current(0) != before {
		t.Fatalf("arena clock advanced while paused: %v -> %v", before, grid.Current(0))
	}
}

func TestCommitTransitionsCharacterToGhost(t *testing.T) {
	c, grid, store, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	expireCountdown(c, grid)

	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	_, _ = c.HandleInput(Input{Kind: InputConfirmDialog, Character: 1, Choice: ChoiceCommit})

	if c.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want Idle", c.Mode())
	}
	if c.RoleOf(1) != RoleGhost {
		t.Fatalf("role = %v, want Ghost", c.RoleOf(1))
	}
	if store.Publish(1) == nil {
		t.Fatal("expected a published timeline after commit")
	}
}

func TestClockReachingPeriodOpensEndRecordingDialog(t *testing.T) {
	c, grid, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	expireCountdown(c, grid)

	windows := grid.Tick(period)
	c.Tick(period, windows)

	if c.Mode() != ModeDialogEndRecording {
		t.Fatalf("mode = %v, want DialogEndRecording", c.Mode())
	}
}

func TestRetryAtEndOfCycleResetsArenaAndRestartsCountdown(t *testing.T) {
	c, grid, store, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	expireCountdown(c, grid)
	windows := grid.Tick(period)
	c.Tick(period, windows)

	_, _ = c.HandleInput(Input{Kind: InputConfirmDialog, Character: 1, Choice: ChoiceRetry})

	if c.Mode() != ModeCountdown {
		t.Fatalf("mode = %v, want Countdown", c.Mode())
	}
	if grid.Current(0) != 0 {
		t.Fatalf("arena clock = %v, want 0 after retry", grid.Current(0))
	}
	if store.HasDraft(1) {
		t.Fatal("expected draft cleared on retry")
	}
}

func TestArenaSwitchDuringRecordingClearsWithNoDialog(t *testing.T) {
	c, grid, store, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	expireCountdown(c, grid)

	_, _ = c.HandleInput(Input{Kind: InputSwitchArena, Character: 1})

	if c.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want Idle", c.Mode())
	}
	if grid.Paused() {
		t.Fatal("expected no pause for context-invalidating termination")
	}
	if store.HasDraft(1) {
		t.Fatal("expected draft discarded")
	}
	if c.RoleOf(1) != RoleLive {
		t.Fatalf("role = %v, want Live", c.RoleOf(1))
	}
}

func TestOutOfBoundsMoveOpensDialogInsteadOfCapturing(t *testing.T) {
	c, grid, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	expireCountdown(c, grid)

	capture, _ := c.HandleInput(Input{Kind: InputMoveIntent, Character: 1, OutOfBounds: true})
	if capture {
		t.Fatal("expected out-of-bounds move to not be captured")
	}
	if c.Mode() != ModeDialogMidRecording {
		t.Fatalf("mode = %v, want DialogMidRecording", c.Mode())
	}
}

func TestInBoundsMoveDuringRecordingIsCaptured(t *testing.T) {
	c, grid, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})
	expireCountdown(c, grid)

	capture, _ := c.HandleInput(Input{Kind: InputMoveIntent, Character: 1})
	if !capture {
		t.Fatal("expected in-bounds move during recording to be captured")
	}
}

func TestGhostInputOpensRetryDialogAndResumesOnCancel(t *testing.T) {
	c, grid, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	reg.Spawn(2, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	c.setRole(2, RoleGhost)

	capture, _ := c.HandleInput(Input{Kind: InputMoveIntent, Character: 2})
	if capture {
		t.Fatal("expected ghost input to never be captured")
	}
	if c.Mode() != ModeDialogRetryGhost {
		t.Fatalf("mode = %v, want DialogRetryGhost", c.Mode())
	}
	if !grid.Paused() {
		t.Fatal("expected clock paused during retry-ghost dialog")
	}

	_, _ = c.HandleInput(Input{Kind: InputConfirmDialog, Character: 2, Choice: ChoiceCancel})
	if c.Mode() != ModeIdle {
		t.Fatalf("mode = %v, want Idle after cancel (dialog opened from Idle)", c.Mode())
	}
	if grid.Paused() {
		t.Fatal("expected clock resumed after cancel")
	}
}

func TestModeChangesAreDrainedOnce(t *testing.T) {
	c, _, _, reg := newTestController(t)
	reg.Spawn(1, 0, core.GridPosition{})
	c.setRole(1, RoleLive)
	_, _ = c.HandleInput(Input{Kind: InputStartRecording, Character: 1})

	changes := c.DrainModeChanges()
	if len(changes) != 1 || changes[0].From != "Idle" || changes[0].To != "Countdown" {
		t.Fatalf("changes = %+v, want one Idle->Countdown", changes)
	}
	if more := c.DrainModeChanges(); len(more) != 0 {
		t.Fatalf("expected drained changes to be empty on second call, got %+v", more)
	}
}
