// Package recording implements the global mode state machine and
// per-character role tracking that mediate every transition between
// idle, countdown, recording, and dialog-paused play (spec §4.3),
// built on the generic hierarchical machine in internal/fsm.
package recording

import (
	"github.com/arenic/timelinecore/internal/core"
	"github.com/arenic/timelinecore/internal/fsm"
)

// State IDs for the "mode" region. fsm.StateNone == 0 and
// fsm.StateRoot == 1 are reserved by the fsm package.
const (
	stateIdle fsm.StateID = iota + 2
	stateCountdown
	stateRecording
	stateDialogPaused
	stateDialogMidRecording
	stateDialogEndRecording
	stateDialogRetryGhost
)

// Transition events for the "mode" region. fsm.EventTick == 0 is
// reserved for automatic, guard-evaluated transitions.
const (
	evStart fsm.TransitionEvent = iota + 1
	evCountdownExpire
	evInterrupt
	evClockReachesT
	evCommit
	evClear
	evCancel
	evRetry
)

// Mode names the active global mode. Node names in the built graph are
// set to these exact strings so Controller.Mode can read them straight
// back off the machine, and so they can be used verbatim as the
// From/To fields of an outbound.RecordingModeChanged.
type Mode string

const (
	ModeIdle               Mode = "Idle"
	ModeCountdown          Mode = "Countdown"
	ModeRecording          Mode = "Recording"
	ModeDialogMidRecording Mode = "DialogMidRecording"
	ModeDialogEndRecording Mode = "DialogEndRecording"
	ModeDialogRetryGhost   Mode = "DialogRetryGhost"
)

// Role is the orthogonal per-character role (spec §4.3 "Per-character
// role").
type Role uint8

const (
	RoleIdle Role = iota
	RoleLive
	RoleRecording
	RoleGhost
)

func (r Role) String() string {
	switch r {
	case RoleLive:
		return "Live"
	case RoleRecording:
		return "Recording"
	case RoleGhost:
		return "Ghost"
	default:
		return "Idle"
	}
}

// Choice enumerates every ConfirmDialog response spec §6 lists.
type Choice uint8

const (
	ChoiceCommit Choice = iota
	ChoiceClear
	ChoiceCancel
	ChoiceRetry
	ChoiceDraftNew
	ChoiceKeepExisting
	ChoiceSwitch
	ChoiceContinue
)

// InputKind discriminates the inbound input stream spec §6 names.
type InputKind uint8

const (
	InputMoveIntent InputKind = iota
	InputAbilityActivate
	InputStartRecording
	InputConfirmDialog
	InputSwitchCharacter
	InputSwitchArena
	InputToggleCameraZoom
)

// Direction is a cardinal move intent. This core does not turn it into
// a GridPosition; the capture pipeline is handed the resulting position.
type Direction uint8

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// Input is a single tagged inbound event, modeled the same way
// timeline.Event and outbound.Event model their own tagged unions: one
// struct, a Kind tag, and only the kind-relevant fields populated.
type Input struct {
	Kind      InputKind
	Character core.CharacterId

	Direction Direction // InputMoveIntent
	Slot      int       // InputAbilityActivate, 1..4
	Target    *core.Target
	Choice    Choice           // InputConfirmDialog
	SwitchTo  core.CharacterId // InputSwitchCharacter

	// OutOfBounds is set by the arena-geometry collaborator (out of
	// scope here) when a MoveIntent would leave the recording
	// character's arena, so HandleInput can hard-block it (spec §4.3).
	OutOfBounds bool
}
