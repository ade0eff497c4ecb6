// Package capture samples a recording character's movement intents and
// ability activations into an open draft timeline, keyed by its
// arena's clock.
package capture

import (
	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
	"github.com/arenic/timelinecore/internal/diagnostics"
	"github.com/arenic/timelinecore/internal/timeline"
)

// Pipeline samples events into the store's open drafts. It runs once
// per tick while recording is active for whatever character the caller
// forwards input for; it has no notion of global mode itself, matching
// the design where the recording controller decides when to forward a
// sample and the pipeline just writes it.
type Pipeline struct {
	store *timeline.Store
	clock *clock.ClockGrid
	diag  *diagnostics.Channel

	lastPos    map[core.CharacterId]core.GridPosition
	hasLastPos map[core.CharacterId]bool
}

// NewPipeline creates a pipeline writing into store, reading timestamps
// from clockGrid.
func NewPipeline(store *timeline.Store, clockGrid *clock.ClockGrid, diag *diagnostics.Channel) *Pipeline {
	return &Pipeline{
		store:      store,
		clock:      clockGrid,
		diag:       diag,
		lastPos:    make(map[core.CharacterId]core.GridPosition),
		hasLastPos: make(map[core.CharacterId]bool),
	}
}

// BeginCharacter seeds change-detection state with the character's
// synthetic initial position, so the first real MoveIntent sample after
// recording starts is correctly suppressed if it repeats that position.
func (p *Pipeline) BeginCharacter(c core.CharacterId, initial core.GridPosition) {
	p.lastPos[c] = initial
	p.hasLastPos[c] = true
}

// EndCharacter drops a character's change-detection state, called when
// its draft is sealed or cleared.
func (p *Pipeline) EndCharacter(c core.CharacterId) {
	delete(p.lastPos, c)
	delete(p.hasLastPos, c)
}

// Movement samples a movement intent using change detection: only a
// transition to a new grid position produces an event. Back-to-back
// identical positions are not re-appended.
func (p *Pipeline) Movement(c core.CharacterId, arena core.ArenaId, pos core.GridPosition) {
	if p.hasLastPos[c] && p.lastPos[c] == pos {
		return
	}
	p.lastPos[c] = pos
	p.hasLastPos[c] = true

	ts := p.clock.Current(arena)
	ev := timeline.NewMovement(ts, pos)
	if err := p.store.Append(c, ev); err != nil {
		p.emitCorrupted(c, err)
	}
}

// Ability samples an ability activation. Never deduplicated: each
// activation is its own event, even at an identical timestamp to a
// previous one.
func (p *Pipeline) Ability(c core.CharacterId, arena core.ArenaId, id core.AbilityId, target *core.Target) {
	ts := p.clock.Current(arena)
	ev := timeline.NewAbility(ts, id, target)
	if err := p.store.Append(c, ev); err != nil {
		p.emitCorrupted(c, err)
	}
}

// Death appends a lifecycle Death marker.
func (p *Pipeline) Death(c core.CharacterId, arena core.ArenaId) {
	ts := p.clock.Current(arena)
	if err := p.store.Append(c, timeline.NewDeath(ts)); err != nil {
		p.emitCorrupted(c, err)
	}
}

// Revive appends a lifecycle Revive marker and reseeds change-detection
// state so the next Movement sample at the revive position is not
// spuriously suppressed by whatever position preceded Death.
func (p *Pipeline) Revive(c core.CharacterId, arena core.ArenaId, pos core.GridPosition) {
	ts := p.clock.Current(arena)
	if err := p.store.Append(c, timeline.NewRevive(ts, pos)); err != nil {
		p.emitCorrupted(c, err)
	}
	p.lastPos[c] = pos
	p.hasLastPos[c] = true
}

func (p *Pipeline) emitCorrupted(c core.CharacterId, err error) {
	if p.diag == nil {
		return
	}
	p.diag.Emit(diagnostics.Event{Kind: diagnostics.InvariantClamped, Message: err.Error()})
}
