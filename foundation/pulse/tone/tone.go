// Package tone maps transactions to audio parameters. The mapping is pure
// and deterministic given the transaction id and value; the only
// non-deterministic outputs are the explicitly tagged jitter fields used for
// organic micro-variation.
package tone

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
)

// Value range the logarithmic normalization covers. Anything below the dust
// floor is filtered upstream; anything at or above the mega ceiling clamps
// to t=1.
const (
	DefaultDust uint64 = 1_000
	DefaultMega uint64 = 1_000_000_000
)

// entropyChars is how many trailing hex characters of the transaction id
// feed the pitch perturbation.
const entropyChars = 4

// maxPitchOffset bounds the entropy perturbation to ±2 scale steps so every
// transaction stays scale-consistent.
const maxPitchOffset = 2

// Sound holds the audio parameters derived for one transaction. Frequency,
// Duration base, Velocity and the auxiliary flags are deterministic;
// DetuneCents and the duration jitter baked into Duration are not.
type Sound struct {
	SourceTxID  string
	Frequency   float64 // Hz, deterministic base pitch
	DetuneCents float64 // random micro-detune, never shifts the pitch class
	Duration    float64 // seconds, includes bounded random variation
	Velocity    float64 // [0,1], value driven only
	Accent      bool    // harmonic/bell accent layer requested
	SubEcho     bool    // delayed sub-octave echo layer requested
	EmittedAt   time.Time
}

// Strike holds the parameters for the one-shot block gong. The stack is a
// fixed harmonic series, not value derived.
type Strike struct {
	Frequencies []float64
	Duration    float64
	Velocity    float64
	EmittedAt   time.Time
}

// Config holds the tuning for a mapper. Zero values fall back to defaults.
type Config struct {
	Dust        uint64
	Mega        uint64
	MinDuration float64
	MaxDuration float64
	MinVelocity float64
	MaxVelocity float64
	Accent      uint64 // value threshold for the accent layer
	Echo        uint64 // value threshold for the sub-octave echo
}

// Mapper derives sound parameters from transactions.
type Mapper struct {
	cfg Config
	rng *rand.Rand
}

// New constructs a mapper. The seed only feeds the jitter fields.
func New(cfg Config, seed int64) *Mapper {
	if cfg.Dust == 0 {
		cfg.Dust = DefaultDust
	}
	if cfg.Mega <= cfg.Dust {
		cfg.Mega = DefaultMega
	}
	if cfg.MaxDuration <= cfg.MinDuration {
		cfg.MinDuration = 0.1
		cfg.MaxDuration = 2.0
	}
	if cfg.MaxVelocity <= cfg.MinVelocity {
		cfg.MinVelocity = 0.2
		cfg.MaxVelocity = 0.9
	}
	if cfg.Accent == 0 {
		cfg.Accent = 10_000_000
	}
	if cfg.Echo == 0 {
		cfg.Echo = 100_000_000
	}

	return &Mapper{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Map derives the sound parameters for the specified transaction.
func (m *Mapper) Map(tx feed.Transaction, now time.Time) Sound {
	t := m.Normalize(tx.Value)

	// Larger values bias toward the lower registers.
	base := int(math.Floor((1 - t) * float64(len(scale)-1)))
	idx := clampIndex(base+pitchOffset(tx.ID), len(scale))

	duration := lerp(m.cfg.MinDuration, m.cfg.MaxDuration, t)
	duration *= 1 + (m.rng.Float64()*0.4 - 0.2)

	return Sound{
		SourceTxID:  tx.ID,
		Frequency:   scale[idx],
		DetuneCents: m.rng.Float64()*12 - 6,
		Duration:    duration,
		Velocity:    lerp(m.cfg.MinVelocity, m.cfg.MaxVelocity, t),
		Accent:      tx.Value >= m.cfg.Accent,
		SubEcho:     tx.Value >= m.cfg.Echo,
		EmittedAt:   now,
	}
}

// Strike returns the fixed block gong parameters.
func (m *Mapper) Strike(now time.Time) Strike {
	freqs := make([]float64, len(strikeStack))
	copy(freqs, strikeStack)

	return Strike{
		Frequencies: freqs,
		Duration:    6.0,
		Velocity:    0.95,
		EmittedAt:   now,
	}
}

// Normalize maps a value onto [0,1] logarithmically across the dust-to-mega
// range.
func (m *Mapper) Normalize(value uint64) float64 {
	v := float64(value)
	v = math.Max(v, float64(m.cfg.Dust))
	v = math.Min(v, float64(m.cfg.Mega))

	lo := math.Log(float64(m.cfg.Dust))
	hi := math.Log(float64(m.cfg.Mega))

	return (math.Log(v) - lo) / (hi - lo)
}

// pitchOffset extracts entropy from the trailing hex characters of the
// transaction id and scales it to a bounded scale-step offset. Ids too short
// or non-hex contribute no offset.
func pitchOffset(txID string) int {
	if len(txID) < entropyChars {
		return 0
	}

	n, err := strconv.ParseUint(txID[len(txID)-entropyChars:], 16, 32)
	if err != nil {
		return 0
	}

	span := 2*maxPitchOffset + 1
	return int(n%uint64(span)) - maxPitchOffset
}

// clampIndex bounds an index to the scale table.
func clampIndex(i int, n int) int {
	switch {
	case i < 0:
		return 0
	case i >= n:
		return n - 1
	}
	return i
}

// lerp interpolates between a and b by t.
func lerp(a float64, b float64, t float64) float64 {
	return a + (b-a)*t
}
