// Package state is the core API for a zenpool session. It owns the stress
// estimator, the admission policy, the sound mapper, the particle field and
// the block sequencer, and coordinates the flow of feed events through them.
package state

import (
	"sync"
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
	"github.com/tumigisla/zenpool/foundation/pulse/admit"
	"github.com/tumigisla/zenpool/foundation/pulse/gong"
	"github.com/tumigisla/zenpool/foundation/pulse/particle"
	"github.com/tumigisla/zenpool/foundation/pulse/stress"
	"github.com/tumigisla/zenpool/foundation/pulse/tone"
)

// EventHandler defines a function that is called when events occur in the
// processing of the session.
type EventHandler func(v string, args ...any)

// stressPeriod is the recompute cadence the worker drives TickStress at.
// Congestion reads between recomputes interpolate across this period.
const stressPeriod = 250 * time.Millisecond

// Worker interface represents the behavior required to be implemented by
// any package providing support for driving the session ticks.
type Worker interface {
	Shutdown()
}

// =============================================================================

// Controls are the boolean output gates and master gain honored at emission
// time. They gate what leaves the session, never what it computes.
type Controls struct {
	Ambient    bool    `json:"ambient"`
	PerEvent   bool    `json:"per_event"`
	Strike     bool    `json:"strike"`
	Particles  bool    `json:"particles"`
	MasterGain float64 `json:"master_gain"`
}

// Counters are the in-memory session counters. No persistence beyond these.
type Counters struct {
	Seen      uint64 `json:"seen"`
	Admitted  uint64 `json:"admitted"`
	Rejected  uint64 `json:"rejected"`
	Malformed uint64 `json:"malformed"`
	Blocks    uint64 `json:"blocks"`
}

// Session is a snapshot of the block session state machine.
type Session struct {
	Active   bool      `json:"active"`
	Height   uint64    `json:"height,omitempty"`
	Phase    string    `json:"phase"`
	Progress float64   `json:"progress"`
	ResumeAt time.Time `json:"resume_at,omitzero"`
}

// Config represents the configuration required to start a session.
type Config struct {
	Stress      stress.Config
	AdmitPreset string
	Tone        tone.Config
	Particle    particle.Config
	Gong        gong.Config
	Seed        int64
	EvHandler   EventHandler
}

// State manages a running session. A single mutex serializes intake and
// ticks so each component is only ever mutated by one goroutine at a time;
// reads hand out snapshots.
type State struct {
	mu        sync.Mutex
	evHandler EventHandler

	estimator *stress.Estimator
	limiter   *admit.Limiter
	mapper    *tone.Mapper
	field     *particle.Field
	sequencer *gong.Sequencer

	sounds     soundRing
	voices     []time.Time // expiry times of in-flight sound instances
	counters   Counters
	controls   Controls
	lastStress time.Time

	soundListeners  []func(tone.Sound)
	strikeListeners []func(tone.Strike)
	sweepListeners  []func(time.Duration)

	// pending collects the side effects the sequencer requests during a
	// Trigger call so the intake path can gate and deliver them after the
	// lock is released.
	pending pending

	Worker Worker
}

// pending holds sequencer command requests not yet delivered.
type pending struct {
	strike bool
	sweep  time.Duration
}

// New constructs a session from the configuration.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.AdmitPreset == "" {
		cfg.AdmitPreset = admit.PresetAmbient
	}
	admitCfg, err := admit.Retrieve(cfg.AdmitPreset)
	if err != nil {
		return nil, err
	}

	s := State{
		evHandler: ev,
		estimator: stress.New(cfg.Stress),
		limiter:   admit.New(admitCfg, cfg.Seed),
		mapper:    tone.New(cfg.Tone, cfg.Seed+1),
		controls: Controls{
			Ambient:    true,
			PerEvent:   true,
			Strike:     true,
			Particles:  true,
			MasterGain: 1,
		},
	}

	s.field = particle.New(cfg.Particle, cfg.Seed+2, particle.EventHandler(ev))

	// The sequencer's side effects close over the session. They run with
	// the state lock held; emissions are collected in pending and delivered
	// by the intake path after the lock is released.
	s.sequencer = gong.New(cfg.Gong, gong.Commands{
		Strike: func(block feed.Block) {
			s.pending.strike = true
		},
		Converge: s.field.Converge,
		Sweep: func(duration time.Duration) {
			s.pending.sweep = duration
		},
		Suppress: s.limiter.Suppress,
		Resumed: func() {
			ev("state: block session: resumed normal processing")
		},
	})

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start the tick goroutines for the session.

	return &s, nil
}

// Shutdown cleanly brings the session down.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}
	return nil
}

// =============================================================================
// Listener registration. The excluded UI and audio layers subscribe here
// instead of the core knowing anything about them.

// OnSound registers a listener for per-transaction sound emissions.
func (s *State) OnSound(fn func(tone.Sound)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.soundListeners = append(s.soundListeners, fn)
}

// OnStrike registers a listener for the block strike emission.
func (s *State) OnStrike(fn func(tone.Strike)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.strikeListeners = append(s.strikeListeners, fn)
}

// OnSweep registers a listener for the ambient filter sweep command.
func (s *State) OnSweep(fn func(time.Duration)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepListeners = append(s.sweepListeners, fn)
}

// =============================================================================
// Snapshot queries. All return copies of the last computed values.

// Congestion returns the congestion scalar, interpolated between the
// previous and current recomputation by how far the clock is into the
// recompute period. Before the first recompute the raw value is returned.
func (s *State) Congestion() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastStress.IsZero() {
		return s.estimator.Value()
	}

	fraction := float64(time.Since(s.lastStress)) / float64(stressPeriod)
	return s.estimator.Interpolated(fraction)
}

// Sounds returns the recent sound events retained for UI display.
func (s *State) Sounds() []tone.Sound {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sounds.list()
}

// Particles returns the current particle list and container bounds.
func (s *State) Particles() ([]particle.Particle, float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, h := s.field.Bounds()
	return s.field.Snapshot(), w, h
}

// Session returns a snapshot of the block session state machine.
func (s *State) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	ses := Session{
		Active:   s.sequencer.Active(),
		Height:   s.sequencer.Height(),
		Progress: s.field.Progress(),
	}

	switch s.field.Phase() {
	case particle.PhaseConverging:
		ses.Phase = "converging"
	case particle.PhaseDissolving:
		ses.Phase = "dissolving"
	default:
		ses.Phase = "idle"
	}

	if ses.Active {
		ses.ResumeAt = s.sequencer.ResumeAt()
	}

	return ses
}

// Counters returns a copy of the session counters.
func (s *State) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters
}

// Controls returns the current output gates.
func (s *State) Controls() Controls {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.controls
}

// SetControls replaces the output gates.
func (s *State) SetControls(c Controls) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.MasterGain < 0 {
		c.MasterGain = 0
	}
	if c.MasterGain > 1 {
		c.MasterGain = 1
	}

	s.controls = c
	s.evHandler("state: controls: ambient[%v] perEvent[%v] strike[%v] particles[%v] gain[%.2f]",
		c.Ambient, c.PerEvent, c.Strike, c.Particles, c.MasterGain)
}

// RecordMalformed counts a feed message dropped at the boundary.
func (s *State) RecordMalformed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Malformed++
}

// =============================================================================

// activeVoices prunes expired sound instances and returns how many are
// still sounding. Used as the polyphony input to admission control.
func (s *State) activeVoices(now time.Time) int {
	keep := s.voices[:0]
	for _, expiry := range s.voices {
		if expiry.After(now) {
			keep = append(keep, expiry)
		}
	}
	s.voices = keep

	return len(s.voices)
}
