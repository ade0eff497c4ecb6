package recording

import (
	"log"

	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
	"github.com/arenic/timelinecore/internal/diagnostics"
	"github.com/arenic/timelinecore/internal/fsm"
	"github.com/arenic/timelinecore/internal/outbound"
	"github.com/arenic/timelinecore/internal/registry"
	"github.com/arenic/timelinecore/internal/timeline"
)

const modeRegion = "mode"

// Controller owns the global mode graph and the per-character role
// map, mediating every transition spec §4.3 describes. It is the
// context type the fsm.Machine is generic over, the same way the
// teacher's clock_scheduler wires *Engine through as the shared
// context for its own state callbacks.
type Controller struct {
	machine *fsm.Machine[*Controller]

	clock    *clock.ClockGrid
	store    *timeline.Store
	registry registry.Registry
	diag     *diagnostics.Channel
	logger   *log.Logger

	countdownDuration clock.TimeStamp
	remaining         clock.TimeStamp

	recordingCharacter core.CharacterId
	recordingArena     core.ArenaId
	hasRecording       bool

	// retryGhost is the ghost targeted by an in-progress
	// DialogRetryGhost, and dialogReturnMode is the mode active before
	// that dialog opened (Idle or Recording), since Cancel must resume
	// to whichever it was rather than a fixed state (spec §4.3).
	retryGhost       core.CharacterId
	dialogReturnMode Mode

	// pendingSwitch is the character a ChoiceSwitch will make Live once
	// the current recording is cleared.
	pendingSwitch    core.CharacterId
	hasPendingSwitch bool

	roles map[core.CharacterId]Role
	live  core.CharacterId
	hasLive bool

	modeChanges []outbound.RecordingModeChanged

	// onGhostCommit/onGhostRetired let an external Playback Scheduler
	// stay in sync with role transitions without this package importing
	// internal/playback — commit installs a ghost, and a retry/draftnew/
	// despawn retires one, matching the Scheduler.AddGhost/RemoveGhost
	// contract (spec §4.3/§4.5).
	onGhostCommit  func(core.CharacterId, core.ArenaId)
	onGhostRetired func(core.CharacterId)
}

// OnGhostCommit registers a callback fired whenever a character's draft
// is committed and it becomes a Ghost (spec §4.2 Commit: "transitions
// the character to Ghost role").
func (c *Controller) OnGhostCommit(fn func(core.CharacterId, core.ArenaId)) {
	c.onGhostCommit = fn
}

// OnGhostRetired registers a callback fired whenever a character leaves
// the Ghost role (Retry, DraftNew, or despawn) and should stop being
// scheduled for playback.
func (c *Controller) OnGhostRetired(fn func(core.CharacterId)) {
	c.onGhostRetired = fn
}

// NewController builds the mode graph and starts it in Idle.
func NewController(clockGrid *clock.ClockGrid, store *timeline.Store, reg registry.Registry, diag *diagnostics.Channel, countdownDuration clock.TimeStamp, logger *log.Logger) (*Controller, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{
		clock:             clockGrid,
		store:             store,
		registry:          reg,
		diag:              diag,
		logger:            logger,
		countdownDuration: countdownDuration,
		roles:             make(map[core.CharacterId]Role),
	}
	c.machine = buildModeMachine()
	if err := c.machine.Init(c); err != nil {
		return nil, err
	}
	if notifier, ok := reg.(registry.DespawnNotifier); ok {
		notifier.OnDespawn(func(ch core.CharacterId) {
			c.store.Despawn(ch)
			delete(c.roles, ch)
			if c.hasLive && c.live == ch {
				c.hasLive = false
			}
			if c.onGhostRetired != nil {
				c.onGhostRetired(ch)
			}
		})
	}
	return c, nil
}

func buildModeMachine() *fsm.Machine[*Controller] {
	m := fsm.NewMachine[*Controller]()

	m.AddState(fsm.StateRoot, "ModeRoot", fsm.StateNone)
	m.AddState(stateIdle, string(ModeIdle), fsm.StateRoot)
	m.AddState(stateCountdown, string(ModeCountdown), fsm.StateRoot)
	m.AddState(stateRecording, string(ModeRecording), fsm.StateRoot)
	m.AddState(stateDialogPaused, "DialogPaused", fsm.StateRoot)
	m.AddState(stateDialogMidRecording, string(ModeDialogMidRecording), stateDialogPaused)
	m.AddState(stateDialogEndRecording, string(ModeDialogEndRecording), stateDialogPaused)
	m.AddState(stateDialogRetryGhost, string(ModeDialogRetryGhost), stateDialogPaused)

	// pause_all/resume_all are shared by every dialog kind: they fire
	// exactly once, on the DialogPaused parent's enter/exit chain, no
	// matter which child is entered or left (spec §4.1, §4.3).
	m.OnEnter(stateDialogPaused, func(ctx *Controller) { ctx.clock.PauseAll() })
	m.OnExit(stateDialogPaused, func(ctx *Controller) { ctx.clock.ResumeAll() })

	m.OnEnter(stateCountdown, func(ctx *Controller) { ctx.remaining = ctx.countdownDuration })

	m.AddTransition(stateIdle, fsm.Transition[*Controller]{TargetID: stateCountdown, Event: evStart})
	m.AddTransition(stateCountdown, fsm.Transition[*Controller]{TargetID: stateRecording, Event: evCountdownExpire})

	m.AddTransition(stateRecording, fsm.Transition[*Controller]{TargetID: stateDialogMidRecording, Event: evInterrupt})
	m.AddTransition(stateRecording, fsm.Transition[*Controller]{TargetID: stateDialogEndRecording, Event: evClockReachesT})

	m.AddTransition(stateDialogMidRecording, fsm.Transition[*Controller]{TargetID: stateIdle, Event: evCommit})
	m.AddTransition(stateDialogMidRecording, fsm.Transition[*Controller]{TargetID: stateIdle, Event: evClear})
	m.AddTransition(stateDialogMidRecording, fsm.Transition[*Controller]{TargetID: stateRecording, Event: evCancel})

	m.AddTransition(stateDialogEndRecording, fsm.Transition[*Controller]{TargetID: stateIdle, Event: evCommit})
	m.AddTransition(stateDialogEndRecording, fsm.Transition[*Controller]{TargetID: stateIdle, Event: evClear})
	m.AddTransition(stateDialogEndRecording, fsm.Transition[*Controller]{TargetID: stateCountdown, Event: evRetry})

	if err := m.CompilePaths(); err != nil {
		panic(err)
	}
	m.AddRegion(modeRegion, stateIdle)
	return m
}

// Mode returns the current global mode.
func (c *Controller) Mode() Mode { return Mode(c.machine.RegionState(modeRegion)) }

func (c *Controller) fire(evt fsm.TransitionEvent) {
	from := c.Mode()
	c.machine.HandleEvent(c, evt)
	to := c.Mode()
	if from != to {
		c.modeChanges = append(c.modeChanges, outbound.RecordingModeChanged{From: string(from), To: string(to)})
	}
}

func (c *Controller) goTo(target fsm.StateID) {
	from := c.Mode()
	_ = c.machine.Goto(modeRegion, target, c)
	to := c.Mode()
	if from != to {
		c.modeChanges = append(c.modeChanges, outbound.RecordingModeChanged{From: string(from), To: string(to)})
	}
}

// DrainModeChanges returns and clears every RecordingModeChanged
// accumulated since the last call.
func (c *Controller) DrainModeChanges() []outbound.RecordingModeChanged {
	out := c.modeChanges
	c.modeChanges = nil
	return out
}

// RoleOf returns a character's current role.
func (c *Controller) RoleOf(ch core.CharacterId) Role { return c.roles[ch] }

// SetLive marks a freshly spawned character as the single Live
// character (spec §3's at-most-one-active invariant). Intended for the
// world collaborator to call once, at spawn time, before any input
// routes through HandleInput; internal transitions keep the invariant
// from then on.
func (c *Controller) SetLive(ch core.CharacterId) {
	if c.hasLive && c.live != ch {
		c.roles[c.live] = RoleIdle
	}
	c.setRole(ch, RoleLive)
}

func (c *Controller) setRole(ch core.CharacterId, r Role) {
	c.roles[ch] = r
	if r == RoleLive || r == RoleRecording {
		c.live = ch
		c.hasLive = true
	} else if c.hasLive && c.live == ch {
		c.hasLive = false
	}
}

func (c *Controller) emit(kind diagnostics.Kind, msg string) {
	if c.diag != nil {
		c.diag.Emit(diagnostics.Event{Kind: kind, Message: msg})
	}
}

// Tick advances the countdown and detects a recording arena's clock
// reaching the cycle boundary. Call once per simulation step,
// regardless of mode — it is a no-op outside Countdown/Recording.
func (c *Controller) Tick(dt clock.TimeStamp, windows [clock.NumArenas]clock.Window) {
	switch c.Mode() {
	case ModeCountdown:
		c.remaining -= dt
		if c.remaining <= 0 {
			c.remaining = 0
			c.onCountdownExpire()
		}
	case ModeRecording:
		if c.hasRecording && windows[c.recordingArena].Wrapped {
			c.fire(evClockReachesT)
		}
	}
}

func (c *Controller) onCountdownExpire() {
	c.clock.ResetArena(c.recordingArena)
	pos, _ := c.registry.PositionOf(c.recordingCharacter)
	_, _ = c.store.BeginDraft(c.recordingCharacter)
	_ = c.store.Append(c.recordingCharacter, timeline.NewMovement(0, pos))
	c.fire(evCountdownExpire)
}
