// Package particle implements the bounded-memory particle field: spawning,
// gravity and settling physics, overflow eviction, and the block transition
// state machine that converges and dissolves the pile.
package particle

import (
	"math"
	"math/rand"

	"github.com/tumigisla/zenpool/foundation/feed"
)

// EventHandler defines a function that is called when noteworthy events
// occur inside the simulation, such as a contained particle failure.
type EventHandler func(v string, args ...any)

// Phase identifies the field-level state machine position.
type Phase int

// Set of field phases.
const (
	PhaseNormal Phase = iota
	PhaseConverging
	PhaseDissolving
)

// Defaults for the simulation tuning.
const (
	DefaultWidth        = 800.0
	DefaultHeight       = 600.0
	DefaultMaxParticles = 300
	DefaultGravity      = 0.35  // velocity gain per tick
	DefaultRestitution  = 0.55  // wall bounce damping
	DefaultDrift        = 2.5   // max horizontal spawn drift at full congestion
	DefaultFillRatio    = 0.85  // pile height that triggers eviction
	DefaultEvictShare   = 0.15  // share of settled particles evicted on overflow
	DefaultFadeStep     = 0.12  // alpha lost per tick while fading out
	DefaultConvergeRate = 0.02  // progress per tick during convergence
	DefaultDissolveRate = 0.025 // progress per tick during dissolve
)

// settleEpsilon is the horizontal speed below which a resting particle is
// marked settled permanently.
const settleEpsilon = 0.05

// feeBands are the fee-rate thresholds (sat/vB) separating the discrete
// color bands, cold to hot.
var feeBands = []float64{1, 5, 20, 100}

// Particle is one transaction rendered as a falling body. Owned exclusively
// by the Field and mutated only on its tick.
type Particle struct {
	ID      string
	X       float64
	Y       float64
	VX      float64
	VY      float64
	Radius  float64
	Band    int
	Alpha   float64
	Settled bool

	seq    uint64
	fading bool
}

// Config holds the tuning values for a field. Zero values fall back to the
// defaults.
type Config struct {
	Width        float64
	Height       float64
	MaxParticles int
	Gravity      float64
	Restitution  float64
	Drift        float64
	FillRatio    float64
	EvictShare   float64
	FadeStep     float64
	ConvergeRate float64
	DissolveRate float64
}

// defaulted returns the configuration with zero values replaced.
func (cfg Config) defaulted() Config {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.MaxParticles <= 0 {
		cfg.MaxParticles = DefaultMaxParticles
	}
	if cfg.Gravity <= 0 {
		cfg.Gravity = DefaultGravity
	}
	if cfg.Restitution <= 0 || cfg.Restitution >= 1 {
		cfg.Restitution = DefaultRestitution
	}
	if cfg.Drift <= 0 {
		cfg.Drift = DefaultDrift
	}
	if cfg.FillRatio <= 0 || cfg.FillRatio >= 1 {
		cfg.FillRatio = DefaultFillRatio
	}
	if cfg.EvictShare <= 0 || cfg.EvictShare >= 1 {
		cfg.EvictShare = DefaultEvictShare
	}
	if cfg.FadeStep <= 0 {
		cfg.FadeStep = DefaultFadeStep
	}
	if cfg.ConvergeRate <= 0 {
		cfg.ConvergeRate = DefaultConvergeRate
	}
	if cfg.DissolveRate <= 0 {
		cfg.DissolveRate = DefaultDissolveRate
	}
	return cfg
}

// Field owns the live particle set and its physics. All methods must be
// called from the owning goroutine; Snapshot hands out copies.
type Field struct {
	cfg Config
	rng *rand.Rand
	ev  EventHandler

	particles []*Particle
	phase     Phase
	progress  float64
	seq       uint64
}

// New constructs a field ready for spawning.
func New(cfg Config, seed int64, ev EventHandler) *Field {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	return &Field{
		cfg: cfg.defaulted(),
		rng: rand.New(rand.NewSource(seed)),
		ev:  ev,
	}
}

// Bounds returns the container dimensions for the render surface.
func (f *Field) Bounds() (width float64, height float64) {
	return f.cfg.Width, f.cfg.Height
}

// Len returns the number of live particles.
func (f *Field) Len() int {
	return len(f.particles)
}

// Phase returns the current field phase.
func (f *Field) Phase() Phase {
	return f.phase
}

// Progress returns the block transition progress in [0,2).
func (f *Field) Progress() float64 {
	return f.progress
}

// Snapshot returns a copy of the live particles for rendering.
func (f *Field) Snapshot() []Particle {
	out := make([]Particle, len(f.particles))
	for i, p := range f.particles {
		out[i] = *p
	}
	return out
}

// Spawn creates a particle for an admitted transaction. The hard cap is
// enforced here: when exceeded, the oldest settled particle is evicted
// first, otherwise the oldest particle overall.
func (f *Field) Spawn(tx feed.Transaction, congestion float64) {
	if len(f.particles) >= f.cfg.MaxParticles {
		f.evictOldest()
	}

	radius := radiusFor(tx.Value)
	f.seq++

	p := Particle{
		ID:     tx.ID,
		X:      radius + f.rng.Float64()*(f.cfg.Width-2*radius),
		Y:      radius,
		VX:     (f.rng.Float64()*2 - 1) * f.cfg.Drift * congestion,
		VY:     1.5 + f.rng.Float64(),
		Radius: radius,
		Band:   bandFor(tx.FeeRate()),
		Alpha:  1,
		seq:    f.seq,
	}

	f.particles = append(f.particles, &p)
}

// evictOldest removes the oldest settled particle, or the oldest overall
// when nothing is settled.
func (f *Field) evictOldest() {
	victim := -1
	for i, p := range f.particles {
		if !p.Settled {
			continue
		}
		if victim == -1 || p.seq < f.particles[victim].seq {
			victim = i
		}
	}

	if victim == -1 {
		for i, p := range f.particles {
			if victim == -1 || p.seq < f.particles[victim].seq {
				victim = i
			}
		}
	}

	if victim != -1 {
		f.particles = append(f.particles[:victim], f.particles[victim+1:]...)
	}
}

// radiusFor derives the particle radius from the transaction value on a
// logarithmic ramp, small to large.
func radiusFor(value uint64) float64 {
	const minRadius, maxRadius = 2.0, 14.0

	v := math.Max(float64(value), 1)
	t := math.Log(v) / math.Log(1e9)
	t = math.Min(math.Max(t, 0), 1)

	return minRadius + (maxRadius-minRadius)*t
}

// bandFor maps a fee rate to a discrete color band, cold/low to hot/high.
func bandFor(feeRate float64) int {
	for i, limit := range feeBands {
		if feeRate < limit {
			return i
		}
	}
	return len(feeBands)
}
