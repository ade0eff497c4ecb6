// Command arenic-sim is a deterministic simulation harness for the
// recording/playback core: it wires ClockGrid, Timeline Store,
// Recording Controller, Capture Pipeline, and Playback Scheduler
// together exactly as spec §2's data-flow diagram describes, drives a
// scripted input trace through one full record/replay cycle, and logs
// every outward event the core emits. Grounded on the teacher's root
// main.go for the "build everything, run a loop, log what happens"
// shape, reduced to a single-threaded driver since rendering is out of
// scope (spec §1).
package main

import (
	"flag"
	"log"
	"os"

	"github.com/arenic/timelinecore/internal/capture"
	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/config"
	"github.com/arenic/timelinecore/internal/core"
	"github.com/arenic/timelinecore/internal/diagnostics"
	"github.com/arenic/timelinecore/internal/outbound"
	"github.com/arenic/timelinecore/internal/playback"
	"github.com/arenic/timelinecore/internal/recording"
	"github.com/arenic/timelinecore/internal/registry"
	"github.com/arenic/timelinecore/internal/timeline"
)

const theCharacter = core.CharacterId(1)
const theArena = core.ArenaId(0)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional; defaults to spec §6 defaults)")
	cycles := flag.Int("cycles", 2, "number of playback cycles to run after the recorded cycle")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("arenic-sim: reading config: %v", err)
		}
		loaded, err := config.Load(data)
		if err != nil {
			log.Fatalf("arenic-sim: loading config: %v", err)
		}
		cfg = loaded
	}

	logger := log.New(os.Stdout, "arenic-sim: ", log.LstdFlags)
	sim := newSimulation(cfg, logger)
	sim.run(*cycles)
}

// simulation owns every component of the core plus the bookkeeping the
// harness itself needs (the live character's tracked grid position),
// which in a full engine would belong to the world collaborator spec
// §6 describes as external input.
type simulation struct {
	cfg    config.Config
	logger *log.Logger

	grid      *clock.ClockGrid
	store     *timeline.Store
	reg       *registry.InMemory
	diag      *diagnostics.Channel
	ctrl      *recording.Controller
	capturePl *capture.Pipeline
	scheduler *playback.Scheduler
	queue     *outbound.Queue

	pos core.GridPosition
}

func newSimulation(cfg config.Config, logger *log.Logger) *simulation {
	period := cfg.CyclePeriod()
	grid := clock.NewClockGrid(period, logger)
	store := timeline.NewStore()
	reg := registry.NewInMemory()
	diag := diagnostics.NewChannel(64)

	ctrl, err := recording.NewController(grid, store, reg, diag, cfg.CountdownDuration(), logger)
	if err != nil {
		log.Fatalf("arenic-sim: building controller: %v", err)
	}

	scheduler := playback.NewScheduler(store, reg, diag, cfg.DedupeWindow(), logger)
	ctrl.OnGhostCommit(scheduler.AddGhost)
	ctrl.OnGhostRetired(scheduler.RemoveGhost)

	capturePl := capture.NewPipeline(store, grid, diag)

	reg.Spawn(theCharacter, theArena, core.GridPosition{})
	ctrl.SetLive(theCharacter)

	return &simulation{
		cfg:       cfg,
		logger:    logger,
		grid:      grid,
		store:     store,
		reg:       reg,
		diag:      diag,
		ctrl:      ctrl,
		capturePl: capturePl,
		scheduler: scheduler,
		queue:     outbound.NewQueue(),
	}
}

// run drives a scripted trace matching spec §8 scenario 1 through one
// full record/commit cycle, then replays the committed ghost for
// extraCycles additional cycles, logging every outward event along the
// way.
func (s *simulation) run(extraCycles int) {
	dt := s.cfg.FixedTimestep()
	period := s.grid.Period()

	s.send(recording.Input{Kind: recording.InputStartRecording, Character: theCharacter})

	for s.ctrl.Mode() == recording.ModeCountdown {
		s.step(dt)
	}
	s.capturePl.BeginCharacter(theCharacter, s.pos)

	// Scripted movement/ability samples at fixed arena-times (spec §8
	// scenario 1).
	script := []struct {
		atMs int64
		run  func()
	}{
		{1000, func() { s.move(core.GridPosition{X: 5, Y: 5}) }},
		{2000, func() { s.activate(1, core.AbilityId(7), nil) }},
		{3000, func() { s.move(core.GridPosition{X: 6, Y: 5}) }},
	}
	next := 0

	for s.grid.Current(theArena) < period {
		if next < len(script) && s.grid.Current(theArena) >= clock.TimeStamp(script[next].atMs) {
			script[next].run()
			next++
		}
		if s.grid.Current(theArena)+dt >= period {
			break
		}
		s.step(dt)
	}

	// The clock-reaches-T transition fires from Controller.Tick inside
	// step; drive the final tick across the boundary, then commit.
	s.step(dt)
	s.send(recording.Input{Kind: recording.InputConfirmDialog, Character: theCharacter, Choice: recording.ChoiceCommit})

	s.logger.Printf("committed timeline, replaying %d cycle(s) of ghost playback", extraCycles)
	ticksPerCycle := int64(period) / int64(dt)
	for i := 0; i < extraCycles; i++ {
		for t := int64(0); t < ticksPerCycle; t++ {
			s.step(dt)
		}
		s.logger.Printf("cycle %d complete", i+1)
	}
}

// send forwards a control input (start, dialog choice) through the
// Recording Controller. It never forwards a sample to the capture
// pipeline; move and activate do that for their own inputs.
func (s *simulation) send(in recording.Input) {
	shouldCapture, err := s.ctrl.HandleInput(in)
	if err != nil {
		s.logger.Printf("input error: %v", err)
		return
	}
	_ = shouldCapture
	s.drainModeChanges()
}

func (s *simulation) move(pos core.GridPosition) {
	in := recording.Input{Kind: recording.InputMoveIntent, Character: theCharacter}
	shouldCapture, err := s.ctrl.HandleInput(in)
	if err != nil {
		s.logger.Printf("input error: %v", err)
		return
	}
	s.pos = pos
	s.reg.Move(theCharacter, pos)
	if shouldCapture {
		s.capturePl.Movement(theCharacter, theArena, pos)
	}
	s.drainModeChanges()
}

func (s *simulation) activate(slot int, ability core.AbilityId, target *core.Target) {
	in := recording.Input{Kind: recording.InputAbilityActivate, Character: theCharacter, Slot: slot}
	shouldCapture, err := s.ctrl.HandleInput(in)
	if err != nil {
		s.logger.Printf("input error: %v", err)
		return
	}
	if shouldCapture {
		s.capturePl.Ability(theCharacter, theArena, ability, target)
	}
	s.drainModeChanges()
}

func (s *simulation) drainModeChanges() {
	for _, ch := range s.ctrl.DrainModeChanges() {
		s.logger.Printf("mode: %s -> %s", ch.From, ch.To)
	}
}

// step advances the clock grid one fixed timestep, runs the Recording
// Controller's tick-driven transitions, and (when no dialog is open)
// runs the Playback Scheduler across every arena — the fixed ordered
// pipeline spec §5 specifies.
func (s *simulation) step(dt clock.TimeStamp) {
	windows := s.grid.Tick(dt)
	s.ctrl.Tick(dt, windows)
	s.drainModeChanges()

	if s.ctrl.Mode() == recording.ModeDialogMidRecording || s.ctrl.Mode() == recording.ModeDialogEndRecording || s.ctrl.Mode() == recording.ModeDialogRetryGhost {
		return
	}

	out := outbound.NewBatch(0)
	s.scheduler.Resolve(windows, s.grid.Period(), out)
	s.queue.PushAll(out.Events())
	s.flush()
}

// flush drains the outward queue and logs each event, standing in for
// the Ability Resolution / Transform-Rendering / UI collaborators spec
// §6 lists as out of scope here.
func (s *simulation) flush() {
	for _, ev := range s.queue.Consume() {
		switch ev.Kind {
		case outbound.KindAbilityTrigger:
			s.logger.Printf("AbilityTrigger caster=%d ability=%d ts=%s", ev.Ability.Caster, ev.Ability.Ability, ev.Ability.Timestamp)
		case outbound.KindGhostMovement:
			s.logger.Printf("GhostMovement character=%d pos=%+v", ev.Movement.Character, ev.Movement.WorldPosition)
		case outbound.KindRecordingModeChanged:
			s.logger.Printf("RecordingModeChanged %s -> %s", ev.ModeChanged.From, ev.ModeChanged.To)
		}
	}
}
