package public

import (
	"time"

	"github.com/tumigisla/zenpool/foundation/pulse/particle"
	"github.com/tumigisla/zenpool/foundation/pulse/tone"
)

// stressInfo is the congestion snapshot returned to clients.
type stressInfo struct {
	Congestion float64 `json:"congestion"`
}

// soundInfo is the display form of a recent sound event.
type soundInfo struct {
	SourceTxID  string    `json:"source_tx_id"`
	Frequency   float64   `json:"frequency"`
	DetuneCents float64   `json:"detune_cents"`
	Duration    float64   `json:"duration"`
	Velocity    float64   `json:"velocity"`
	Accent      bool      `json:"accent"`
	SubEcho     bool      `json:"sub_echo"`
	EmittedAt   time.Time `json:"emitted_at"`
}

func toSoundInfo(snd tone.Sound) soundInfo {
	return soundInfo{
		SourceTxID:  snd.SourceTxID,
		Frequency:   snd.Frequency,
		DetuneCents: snd.DetuneCents,
		Duration:    snd.Duration,
		Velocity:    snd.Velocity,
		Accent:      snd.Accent,
		SubEcho:     snd.SubEcho,
		EmittedAt:   snd.EmittedAt,
	}
}

// particleInfo is the render form of a live particle.
type particleInfo struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Band    int     `json:"band"`
	Alpha   float64 `json:"alpha"`
	Settled bool    `json:"settled"`
}

func toParticleInfo(p particle.Particle) particleInfo {
	return particleInfo{
		ID:      p.ID,
		X:       p.X,
		Y:       p.Y,
		Radius:  p.Radius,
		Band:    p.Band,
		Alpha:   p.Alpha,
		Settled: p.Settled,
	}
}

// fieldInfo is the full render surface snapshot.
type fieldInfo struct {
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Particles []particleInfo `json:"particles"`
}

// updateControls is what clients send to change the output gates.
type updateControls struct {
	Ambient    *bool    `json:"ambient"`
	PerEvent   *bool    `json:"per_event"`
	Strike     *bool    `json:"strike"`
	Particles  *bool    `json:"particles"`
	MasterGain *float64 `json:"master_gain" validate:"omitempty,gte=0,lte=1"`
}
