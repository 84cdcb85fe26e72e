package state

import (
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
	"github.com/tumigisla/zenpool/foundation/pulse/particle"
	"github.com/tumigisla/zenpool/foundation/pulse/tone"
)

// SubmitTransaction runs one transaction through the pipeline: the stress
// window always records it, admission control decides whether it produces
// output, and admitted transactions become a sound and a particle.
func (s *State) SubmitTransaction(tx feed.Transaction) {
	now := tx.ReceivedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var emit *tone.Sound
	var listeners []func(tone.Sound)

	s.mu.Lock()
	{
		s.counters.Seen++

		// Every well formed transaction feeds the stress window, admitted
		// or not. Congestion measures the network, not our output.
		s.estimator.Record(tx.VirtualSize, now)

		congestion := s.estimator.Value()

		if !s.limiter.Admit(tx, congestion, s.activeVoices(now), now) {
			s.counters.Rejected++
			s.mu.Unlock()
			return
		}

		s.counters.Admitted++

		snd := s.mapper.Map(tx, now)
		s.sounds.add(snd)
		s.voices = append(s.voices, now.Add(time.Duration(snd.Duration*float64(time.Second))))

		s.field.Spawn(tx, congestion)

		if s.controls.PerEvent {
			out := snd
			out.Velocity *= s.controls.MasterGain
			emit = &out
			listeners = s.soundListeners
		}
	}
	s.mu.Unlock()

	if emit != nil {
		for _, fn := range listeners {
			fn(*emit)
		}
	}
}

// SubmitBlock hands a block confirmation to the sequencer. A block arriving
// while a session is already active is a no-op.
func (s *State) SubmitBlock(block feed.Block) {
	now := block.ReceivedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var strike *tone.Strike
	var sweep time.Duration
	var strikeListeners []func(tone.Strike)
	var sweepListeners []func(time.Duration)

	s.mu.Lock()
	{
		s.counters.Blocks++

		s.pending = pending{}
		if !s.sequencer.Trigger(block, now) {
			s.evHandler("state: block[%d]: session already active: ignored", block.Height)
			s.mu.Unlock()
			return
		}

		s.evHandler("state: block[%d]: session started: quiet until %s", block.Height, s.sequencer.ResumeAt().Format(time.RFC3339))

		// The sequencer requested its side effects through the command
		// callbacks; apply the output gates before anything leaves.
		if s.pending.strike && s.controls.Strike {
			st := s.mapper.Strike(now)
			st.Velocity *= s.controls.MasterGain
			strike = &st
		}
		if s.pending.sweep > 0 && s.controls.Ambient {
			sweep = s.pending.sweep
		}
		s.pending = pending{}

		strikeListeners = s.strikeListeners
		sweepListeners = s.sweepListeners
	}
	s.mu.Unlock()

	if strike != nil {
		for _, fn := range strikeListeners {
			fn(*strike)
		}
	}
	if sweep > 0 {
		for _, fn := range sweepListeners {
			fn(sweep)
		}
	}
}

// TickStress recomputes the congestion scalar. Driven by the worker on a
// fixed period.
func (s *State) TickStress(now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastStress = now
	return s.estimator.Tick(now)
}

// TickSim advances the particle field one frame and evaluates the block
// session's scheduled transitions. Driven by the worker on the frame period.
func (s *State) TickSim(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dissolveDone := true
	if s.controls.Particles {
		s.field.Tick()
		dissolveDone = s.field.Phase() == particle.PhaseNormal
	}

	s.sequencer.Tick(now, dissolveDone)
}
