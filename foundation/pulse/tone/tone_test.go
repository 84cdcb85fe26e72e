package tone_test

import (
	"testing"
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
	"github.com/tumigisla/zenpool/foundation/pulse/tone"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestDeterminism(t *testing.T) {
	t.Log("Given the need for a deterministic hash-to-sound mapping.")
	{
		t.Logf("\tTest 0:\tWhen mapping the same transaction twice.")
		{
			now := time.Now()
			tx := feed.Transaction{ID: "7d5c3a9f00e1b4d8c2aa913b5e6f07aa2290d3c4e5f6a7b8c9d0e1f2a3f8b2c1", Value: 42_000}

			// Different seeds so only the jitter fields may differ.
			a := tone.New(tone.Config{}, 1).Map(tx, now)
			b := tone.New(tone.Config{}, 99).Map(tx, now)

			if a.Frequency != b.Frequency {
				t.Fatalf("\t%s\tTest 0:\tShould select the same base frequency: %f vs %f.", failed, a.Frequency, b.Frequency)
			}
			t.Logf("\t%s\tTest 0:\tShould select the same base frequency.", success)

			if a.Velocity != b.Velocity || a.Accent != b.Accent || a.SubEcho != b.SubEcho {
				t.Fatalf("\t%s\tTest 0:\tShould keep all non-jitter fields identical.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep all non-jitter fields identical.", success)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	t.Log("Given the need to map a 1.5 BTC transaction into the low register.")
	{
		t.Logf("\tTest 0:\tWhen mapping a whale transaction.")
		{
			m := tone.New(tone.Config{}, 1)
			tx := feed.Transaction{ID: "7d5c3a9f00e1b4d8c2aa913b5e6f07aa2290d3c4e5f6a7b8c9d0e1f2a3f8b2c1", Value: 150_000_000}

			if norm := m.Normalize(tx.Value); norm < 0.8 {
				t.Fatalf("\t%s\tTest 0:\tShould normalize near 1.0, got %f.", failed, norm)
			}
			t.Logf("\t%s\tTest 0:\tShould normalize near 1.0.", success)

			snd := m.Map(tx, time.Now())

			if snd.Frequency > 200 {
				t.Fatalf("\t%s\tTest 0:\tShould land in the low register, got %f Hz.", failed, snd.Frequency)
			}
			t.Logf("\t%s\tTest 0:\tShould land in the low register (%f Hz).", success, snd.Frequency)

			if snd.Velocity < 0.75 {
				t.Fatalf("\t%s\tTest 0:\tShould play near the velocity ceiling, got %f.", failed, snd.Velocity)
			}
			t.Logf("\t%s\tTest 0:\tShould play near the velocity ceiling.", success)

			if !snd.SubEcho {
				t.Fatalf("\t%s\tTest 0:\tShould signal the sub-octave echo layer.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould signal the sub-octave echo layer.", success)

			if !snd.Accent {
				t.Fatalf("\t%s\tTest 0:\tShould signal the accent layer.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould signal the accent layer.", success)
		}
	}
}

func TestBounds(t *testing.T) {
	t.Log("Given the need to keep every mapped value inside its range.")
	{
		t.Logf("\tTest 0:\tWhen mapping values across the whole range.")
		{
			m := tone.New(tone.Config{}, 1)
			now := time.Now()

			ids := []string{"00a1", "ffb7", "93c2", "041d", "beef"}
			values := []uint64{1, 1_000, 250_000, 10_000_000, 2_000_000_000}

			for _, id := range ids {
				for _, value := range values {
					snd := m.Map(feed.Transaction{ID: id, Value: value}, now)

					if snd.Velocity < 0.2 || snd.Velocity > 0.9 {
						t.Fatalf("\t%s\tTest 0:\tShould keep velocity in [0.2,0.9], got %f.", failed, snd.Velocity)
					}
					if snd.Duration <= 0 || snd.Duration > 2.0*1.2 {
						t.Fatalf("\t%s\tTest 0:\tShould keep duration in range, got %f.", failed, snd.Duration)
					}
					if snd.Frequency < 110 || snd.Frequency > 783.99 {
						t.Fatalf("\t%s\tTest 0:\tShould keep frequency on the scale, got %f.", failed, snd.Frequency)
					}
				}
			}
			t.Logf("\t%s\tTest 0:\tShould keep every parameter inside its range.", success)
		}

		t.Logf("\tTest 1:\tWhen a value sits at or above the mega ceiling.")
		{
			m := tone.New(tone.Config{}, 1)

			if norm := m.Normalize(5_000_000_000); norm != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould clamp normalization to 1, got %f.", failed, norm)
			}
			t.Logf("\t%s\tTest 1:\tShould clamp normalization to 1.", success)
		}
	}
}

func TestStrike(t *testing.T) {
	t.Log("Given the need for a fixed block gong stack.")
	{
		t.Logf("\tTest 0:\tWhen requesting two strikes.")
		{
			m := tone.New(tone.Config{}, 1)
			now := time.Now()

			a := m.Strike(now)
			b := m.Strike(now)

			if len(a.Frequencies) == 0 || len(a.Frequencies) != len(b.Frequencies) {
				t.Fatalf("\t%s\tTest 0:\tShould produce a stable harmonic stack.", failed)
			}
			for i := range a.Frequencies {
				if a.Frequencies[i] != b.Frequencies[i] {
					t.Fatalf("\t%s\tTest 0:\tShould produce the same stack each time.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould produce the same stack each time.", success)
		}
	}
}
