// Package gong implements the short-lived state machine coordinating the
// block confirmation moment: a one-shot strike, a quiet window for new
// output, a transient filter sweep on the ambient layer, and the particle
// converge/dissolve sequence.
package gong

import (
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
)

// Defaults for the session timing.
const (
	DefaultQuietWindow   = 4 * time.Second
	DefaultSweepDuration = 5500 * time.Millisecond
)

// Commands describes the side effects the sequencer requests on a trigger.
// The session wires these to the limiter, the particle field, the sound
// backend and the ambient layer.
type Commands struct {
	Strike   func(block feed.Block)        // play the one-shot resonant strike
	Converge func()                        // move the particle field into convergence
	Sweep    func(duration time.Duration)  // run the ambient filter sweep
	Suppress func(until time.Time)         // schedule the admission quiet window
	Resumed  func()                        // called once the session returns to idle
}

// Config holds the sequencer tuning. Zero values fall back to defaults.
type Config struct {
	QuietWindow   time.Duration
	SweepDuration time.Duration
}

// Sequencer coordinates one block session at a time. All waiting is
// expressed as timestamps evaluated on Tick, never as blocking sleeps.
type Sequencer struct {
	cfg  Config
	cmds Commands

	active    bool
	height    uint64
	resumeAt  time.Time
	triggered time.Time
}

// New constructs a sequencer with the specified commands.
func New(cfg Config, cmds Commands) *Sequencer {
	if cfg.QuietWindow <= 0 {
		cfg.QuietWindow = DefaultQuietWindow
	}
	if cfg.SweepDuration <= 0 {
		cfg.SweepDuration = DefaultSweepDuration
	}

	return &Sequencer{
		cfg:  cfg,
		cmds: cmds,
	}
}

// Active reports whether a block session is in flight.
func (seq *Sequencer) Active() bool {
	return seq.active
}

// Height returns the block height of the session in flight, zero when idle.
func (seq *Sequencer) Height() uint64 {
	if !seq.active {
		return 0
	}
	return seq.height
}

// ResumeAt returns when the quiet window ends for the current session.
func (seq *Sequencer) ResumeAt() time.Time {
	return seq.resumeAt
}

// Trigger starts a session for a confirmed block. A block arriving while a
// session is already active is ignored: no re-trigger, no queueing.
func (seq *Sequencer) Trigger(block feed.Block, now time.Time) bool {
	if seq.active {
		return false
	}

	seq.active = true
	seq.height = block.Height
	seq.triggered = now
	seq.resumeAt = now.Add(seq.cfg.QuietWindow)

	if seq.cmds.Strike != nil {
		seq.cmds.Strike(block)
	}
	if seq.cmds.Converge != nil {
		seq.cmds.Converge()
	}
	if seq.cmds.Sweep != nil {
		seq.cmds.Sweep(seq.cfg.SweepDuration)
	}
	if seq.cmds.Suppress != nil {
		seq.cmds.Suppress(seq.resumeAt)
	}

	return true
}

// Tick evaluates the scheduled transition back to idle. The session ends
// only once the quiet window has elapsed and the particle dissolve sequence
// has completed.
func (seq *Sequencer) Tick(now time.Time, dissolveDone bool) {
	if !seq.active {
		return
	}

	if now.Before(seq.resumeAt) || !dissolveDone {
		return
	}

	seq.active = false
	seq.height = 0

	if seq.cmds.Resumed != nil {
		seq.cmds.Resumed()
	}
}
