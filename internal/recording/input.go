package recording

import (
	"fmt"

	"github.com/arenic/timelinecore/internal/core"
	"github.com/arenic/timelinecore/internal/diagnostics"
)

// HandleInput applies one inbound input, enforcing spec §4.3's input
// gating. It returns shouldCapture=true when the caller should forward
// this same input to the capture pipeline this tick (only MoveIntent
// and AbilityActivate from the recording character, when not blocked).
func (c *Controller) HandleInput(in Input) (shouldCapture bool, err error) {
	switch in.Kind {
	case InputStartRecording:
		c.handleStartRecording(in)
		return false, nil

	case InputMoveIntent, InputAbilityActivate:
		return c.handleLiveInput(in), nil

	case InputConfirmDialog:
		c.handleConfirmDialog(in)
		return false, nil

	case InputSwitchCharacter:
		c.handleSwitchCharacter(in)
		return false, nil

	case InputSwitchArena, InputToggleCameraZoom:
		c.handleContextInvalidatingInput()
		return false, nil

	default:
		return false, fmt.Errorf("recording: unknown input kind %d", in.Kind)
	}
}

func (c *Controller) handleStartRecording(in Input) {
	// Pressing StartRecording again while recording is the interrupt that
	// opens the MidRecording dialog.
	if c.Mode() == ModeRecording && c.hasRecording && in.Character == c.recordingCharacter {
		c.openMidRecordingDialog()
		return
	}
	if c.Mode() != ModeIdle {
		c.emit(diagnostics.RejectedStart, "start-recording rejected: not idle")
		return
	}
	if c.RoleOf(in.Character) == RoleGhost {
		c.emit(diagnostics.RejectedStart, "start-recording rejected: character is a ghost")
		return
	}
	if !c.hasLive || c.live != in.Character {
		c.emit(diagnostics.RejectedStart, "start-recording rejected: character is not live")
		return
	}
	arena, ok := c.registry.ArenaOf(in.Character)
	if !ok {
		c.emit(diagnostics.RejectedStart, "start-recording rejected: character not in registry")
		return
	}

	c.recordingCharacter = in.Character
	c.recordingArena = arena
	c.hasRecording = true
	c.setRole(in.Character, RoleRecording)
	c.fire(evStart)
}

// handleLiveInput implements the gating rules for MoveIntent and
// AbilityActivate. Ghost-targeted input opens DialogRetryGhost
// regardless of mode; recording-character input is subject to the
// boundary/capture rules; everything else is left to the live
// simulation outside this core.
func (c *Controller) handleLiveInput(in Input) bool {
	if c.RoleOf(in.Character) == RoleGhost {
		c.openRetryGhostDialog(in.Character)
		return false
	}

	if c.Mode() != ModeRecording || !c.hasRecording || in.Character != c.recordingCharacter {
		return false
	}

	if in.Kind == InputMoveIntent && in.OutOfBounds {
		c.openMidRecordingDialog()
		return false
	}
	return true
}

func (c *Controller) openMidRecordingDialog() {
	if c.Mode() != ModeRecording {
		return
	}
	c.fire(evInterrupt)
}

func (c *Controller) openRetryGhostDialog(ghost core.CharacterId) {
	mode := c.Mode()
	if mode != ModeIdle && mode != ModeRecording {
		return
	}
	c.retryGhost = ghost
	c.dialogReturnMode = mode
	c.goTo(stateDialogRetryGhost)
}

func (c *Controller) handleSwitchCharacter(in Input) {
	if c.Mode() != ModeRecording {
		return
	}
	c.pendingSwitch = in.SwitchTo
	c.hasPendingSwitch = true
	c.fire(evInterrupt)
}

// handleContextInvalidatingInput implements "arena-switching or
// camera-view-changing inputs immediately terminate recording
// (equivalent to a Clear transition with no dialog)" (spec §4.3). Since
// no dialog opens, pause_all/resume_all must not fire either, so this
// jumps straight from Recording to Idle rather than routing through
// DialogPaused.
func (c *Controller) handleContextInvalidatingInput() {
	if c.Mode() != ModeRecording {
		return
	}
	c.clearRecording()
	c.goTo(stateIdle)
}

func (c *Controller) handleConfirmDialog(in Input) {
	switch c.Mode() {
	case ModeDialogMidRecording:
		c.handleMidRecordingChoice(in.Choice)
	case ModeDialogEndRecording:
		c.handleEndRecordingChoice(in.Choice)
	case ModeDialogRetryGhost:
		c.handleRetryGhostChoice(in.Choice)
	default:
		c.emit(diagnostics.InvalidDialogChoice, "dialog choice outside an open dialog")
	}
}

func (c *Controller) handleMidRecordingChoice(choice Choice) {
	switch choice {
	case ChoiceCommit:
		c.commitRecording()
		c.fire(evCommit)
	case ChoiceClear, ChoiceSwitch:
		c.clearRecording()
		c.fire(evClear)
		if choice == ChoiceSwitch && c.hasPendingSwitch {
			c.setRole(c.pendingSwitch, RoleLive)
			c.hasPendingSwitch = false
		}
	case ChoiceCancel, ChoiceContinue:
		c.hasPendingSwitch = false
		c.fire(evCancel)
	default:
		c.emit(diagnostics.InvalidDialogChoice, "invalid choice for mid-recording dialog")
	}
}

func (c *Controller) handleEndRecordingChoice(choice Choice) {
	switch choice {
	case ChoiceCommit:
		c.commitRecording()
		c.fire(evCommit)
	case ChoiceClear:
		c.clearRecording()
		c.fire(evClear)
	case ChoiceRetry:
		c.clearRecording()
		c.clock.ResetArena(c.recordingArena)
		c.setRole(c.recordingCharacter, RoleRecording)
		c.hasRecording = true
		c.fire(evRetry)
	default:
		c.emit(diagnostics.InvalidDialogChoice, "invalid choice for end-recording dialog")
	}
}

func (c *Controller) handleRetryGhostChoice(choice Choice) {
	switch choice {
	case ChoiceRetry:
		ghost := c.retryGhost
		c.store.Despawn(ghost)
		if c.onGhostRetired != nil {
			c.onGhostRetired(ghost)
		}
		arena, _ := c.registry.ArenaOf(ghost)
		c.recordingCharacter = ghost
		c.recordingArena = arena
		c.hasRecording = true
		c.setRole(ghost, RoleRecording)
		c.goTo(stateCountdown)
	case ChoiceDraftNew:
		ghost := c.retryGhost
		if c.onGhostRetired != nil {
			c.onGhostRetired(ghost)
		}
		arena, _ := c.registry.ArenaOf(ghost)
		c.recordingCharacter = ghost
		c.recordingArena = arena
		c.hasRecording = true
		c.setRole(ghost, RoleRecording)
		_, _ = c.store.BeginDraft(ghost)
		c.goTo(stateRecording)
	case ChoiceCancel:
		target := stateIdle
		if c.dialogReturnMode == ModeRecording {
			target = stateRecording
		}
		c.goTo(target)
	default:
		c.emit(diagnostics.InvalidDialogChoice, "invalid choice for retry-ghost dialog")
	}
}

func (c *Controller) commitRecording() {
	if !c.hasRecording {
		return
	}
	if _, err := c.store.Commit(c.recordingCharacter); err != nil {
		c.emit(diagnostics.InvariantClamped, fmt.Sprintf("commit failed: %v", err))
	}
	c.setRole(c.recordingCharacter, RoleGhost)
	if c.onGhostCommit != nil {
		c.onGhostCommit(c.recordingCharacter, c.recordingArena)
	}
	c.hasRecording = false
}

func (c *Controller) clearRecording() {
	if !c.hasRecording {
		return
	}
	c.store.Clear(c.recordingCharacter)
	c.setRole(c.recordingCharacter, RoleLive)
	c.hasRecording = false
}
