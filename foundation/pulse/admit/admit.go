// Package admit implements the admission control policy that decides which
// transaction events are allowed to produce audio and visual output. This is
// glitch avoidance for bursty streams, not loudness shaping: admitted events
// are never attenuated by load.
package admit

import (
	"math/rand"
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
)

// rateWindow is the trailing interval used to measure sustained admission
// pressure for probabilistic load shedding.
const rateWindow = time.Second

// Config holds the thresholds for an admission policy. Use Retrieve to get
// one of the named presets.
type Config struct {
	DustFloor      uint64        // satoshi, below this is noise
	Cooldown       time.Duration // minimum spacing between admitted events
	WhaleThreshold uint64        // satoshi, bypasses the cooldown
	LargeThreshold uint64        // satoshi, bypasses the polyphony ceiling
	MaxPolyphony   int           // hard ceiling on concurrently active voices
	ShedAboveRate  float64       // admits/sec that triggers probabilistic shedding
	ShedChance     float64       // probability a small event is shed under pressure
}

// Limiter applies the admission policy to a stream of transactions. It is
// owned by the session and driven from a single goroutine.
type Limiter struct {
	cfg Config
	rng *rand.Rand

	lastAdmit     time.Time
	recent        []time.Time
	suppressUntil time.Time
}

// New constructs a limiter for the given policy. The seed feeds the
// probabilistic shedding decision so tests can pin it.
func New(cfg Config, seed int64) *Limiter {
	return &Limiter{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Admit applies the policy in order and reports whether the transaction may
// produce output. The active count is the number of not-yet-finished
// sound/particle instances.
func (lim *Limiter) Admit(tx feed.Transaction, congestion float64, active int, now time.Time) bool {

	// Prune the trailing counter up front so it stays bounded no matter
	// which branch below rejects or bypasses.
	lim.pruneRecent(now)

	// A block session quiet window overrides everything below.
	if now.Before(lim.suppressUntil) {
		return false
	}

	// Values below the dust floor are noise.
	if tx.Value < lim.cfg.DustFloor {
		return false
	}

	// Enforce the cooldown since the last admitted event. Whales bypass it.
	if tx.Value < lim.cfg.WhaleThreshold {
		if !lim.lastAdmit.IsZero() && now.Sub(lim.lastAdmit) < lim.cfg.Cooldown {
			return false
		}
	}

	// Enforce the hard polyphony ceiling. Large transactions bypass it.
	if active >= lim.cfg.MaxPolyphony && tx.Value < lim.cfg.LargeThreshold {
		return false
	}

	// Under sustained admission pressure shed small events probabilistically
	// so the stream stays proportional without silencing large events.
	if tx.Value < lim.cfg.LargeThreshold && lim.admitRate() > lim.cfg.ShedAboveRate {
		if lim.rng.Float64() < lim.cfg.ShedChance {
			return false
		}
	}

	lim.lastAdmit = now
	lim.recent = append(lim.recent, now)
	return true
}

// Suppress blocks all admissions until the given time. Used by the block
// sequencer to give the release moment acoustic space. The suppression is a
// scheduled state transition, inspectable and evaluated on each call.
func (lim *Limiter) Suppress(until time.Time) {
	lim.suppressUntil = until
}

// Suppressed reports whether the quiet window is in effect.
func (lim *Limiter) Suppressed(now time.Time) bool {
	return now.Before(lim.suppressUntil)
}

// ResumeAt returns when admissions resume. The zero time means no
// suppression was ever scheduled.
func (lim *Limiter) ResumeAt() time.Time {
	return lim.suppressUntil
}

// pruneRecent drops trailing counter entries older than the rate window.
func (lim *Limiter) pruneRecent(now time.Time) {
	cut := now.Add(-rateWindow)

	i := 0
	for ; i < len(lim.recent); i++ {
		if !lim.recent[i].Before(cut) {
			break
		}
	}
	if i > 0 {
		lim.recent = append(lim.recent[:0], lim.recent[i:]...)
	}
}

// admitRate returns the recent admissions per second over the already
// pruned trailing counter.
func (lim *Limiter) admitRate() float64 {
	return float64(len(lim.recent)) / rateWindow.Seconds()
}
