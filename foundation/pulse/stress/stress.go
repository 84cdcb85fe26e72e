// Package stress implements the sliding-window throughput estimator that
// produces the normalized congestion scalar for the session.
package stress

import (
	"time"

	"github.com/ef-ds/deque"
	"go.uber.org/atomic"
)

// Defaults calibrated so normal traffic sits low on the scale and bursts
// saturate near 1.
const (
	DefaultWindow  = 5 * time.Second
	DefaultMinRate = 500   // bytes/sec
	DefaultMaxRate = 50000 // bytes/sec
)

// sample is one (timestamp, virtual size) observation inside the window.
type sample struct {
	at    time.Time
	vsize float64
}

// Config holds the tuning values for an estimator. Zero values fall back
// to the defaults.
type Config struct {
	Window  time.Duration
	MinRate float64
	MaxRate float64
}

// Estimator maintains a time-bounded multiset of transaction sizes and
// derives a congestion scalar from the aggregate throughput. Record and Tick
// must be called from the owning goroutine; Value is safe for snapshot reads
// from anywhere.
type Estimator struct {
	window  time.Duration
	minRate float64
	maxRate float64

	samples deque.Deque
	sum     float64

	current *atomic.Float64
	prev    float64
}

// New constructs an estimator ready for use.
func New(cfg Config) *Estimator {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MinRate <= 0 {
		cfg.MinRate = DefaultMinRate
	}
	if cfg.MaxRate <= cfg.MinRate {
		cfg.MaxRate = DefaultMaxRate
	}

	return &Estimator{
		window:  cfg.Window,
		minRate: cfg.MinRate,
		maxRate: cfg.MaxRate,
		current: atomic.NewFloat64(0),
	}
}

// Record appends an observation to the window. Pruning happens lazily on
// the next Tick.
func (est *Estimator) Record(vsize float64, at time.Time) {
	if vsize <= 0 {
		return
	}

	est.samples.PushBack(sample{at: at, vsize: vsize})
	est.sum += vsize
}

// Tick prunes observations older than the window, recomputes the throughput
// in bytes/sec and publishes the normalized congestion scalar. An empty
// window yields zero.
func (est *Estimator) Tick(now time.Time) float64 {
	cut := now.Add(-est.window)

	for est.samples.Len() > 0 {
		v, _ := est.samples.Front()
		s := v.(sample)
		if !s.at.Before(cut) {
			break
		}
		est.samples.PopFront()
		est.sum -= s.vsize
	}

	// Guard against float drift once the window drains.
	if est.samples.Len() == 0 {
		est.sum = 0
	}

	rate := est.sum / est.window.Seconds()
	scalar := clamp((rate-est.minRate)/(est.maxRate-est.minRate), 0, 1)

	est.prev = est.current.Load()
	est.current.Store(scalar)

	return scalar
}

// Value returns a snapshot of the last computed congestion scalar.
func (est *Estimator) Value() float64 {
	return est.current.Load()
}

// Interpolated returns the scalar blended between the previous and current
// computation. The fraction is how far the caller is between recomputations.
func (est *Estimator) Interpolated(fraction float64) float64 {
	fraction = clamp(fraction, 0, 1)
	return est.prev + (est.current.Load()-est.prev)*fraction
}

// Len returns the current number of observations held in the window.
func (est *Estimator) Len() int {
	return est.samples.Len()
}

// clamp bounds v to the [lo, hi] interval.
func clamp(v float64, lo float64, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
