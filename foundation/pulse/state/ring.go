package state

import "github.com/tumigisla/zenpool/foundation/pulse/tone"

// soundRingSize bounds how many recent sound events are retained for UI
// display only.
const soundRingSize = 30

// soundRing is a small fixed-size ring of the most recent sound events.
type soundRing struct {
	buf   [soundRingSize]tone.Sound
	next  int
	count int
}

// add appends a sound, overwriting the oldest once full.
func (r *soundRing) add(snd tone.Sound) {
	r.buf[r.next] = snd
	r.next = (r.next + 1) % soundRingSize
	if r.count < soundRingSize {
		r.count++
	}
}

// list returns the retained sounds, oldest first.
func (r *soundRing) list() []tone.Sound {
	out := make([]tone.Sound, 0, r.count)

	start := r.next - r.count
	if start < 0 {
		start += soundRingSize
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%soundRingSize])
	}

	return out
}
