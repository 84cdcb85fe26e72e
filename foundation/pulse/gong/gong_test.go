package gong_test

import (
	"testing"
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
	"github.com/tumigisla/zenpool/foundation/pulse/gong"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestSessionExclusivity(t *testing.T) {
	t.Log("Given the need to run at most one block session at a time.")
	{
		t.Logf("\tTest 0:\tWhen a second block arrives during an active session.")
		{
			strikes := 0
			seq := gong.New(gong.Config{}, gong.Commands{
				Strike: func(block feed.Block) { strikes++ },
			})

			now := time.Now()

			if !seq.Trigger(feed.Block{Height: 100}, now) {
				t.Fatalf("\t%s\tTest 0:\tShould trigger the first session.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould trigger the first session.", success)

			resumeAt := seq.ResumeAt()

			if seq.Trigger(feed.Block{Height: 101}, now.Add(time.Second)) {
				t.Fatalf("\t%s\tTest 0:\tShould ignore a block while active.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould ignore a block while active.", success)

			if strikes != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould not restart the strike, got %d strikes.", failed, strikes)
			}
			t.Logf("\t%s\tTest 0:\tShould not restart the strike.", success)

			if !seq.ResumeAt().Equal(resumeAt) {
				t.Fatalf("\t%s\tTest 0:\tShould not alter the scheduled resume time.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not alter the scheduled resume time.", success)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Log("Given the need to resume only after quiet window and dissolve.")
	{
		t.Logf("\tTest 0:\tWhen ticking a session toward completion.")
		{
			resumed := 0
			var suppressedUntil time.Time
			sweeps := 0

			seq := gong.New(gong.Config{QuietWindow: 4 * time.Second}, gong.Commands{
				Sweep:    func(d time.Duration) { sweeps++ },
				Suppress: func(until time.Time) { suppressedUntil = until },
				Resumed:  func() { resumed++ },
			})

			now := time.Now()
			seq.Trigger(feed.Block{Height: 100}, now)

			if sweeps != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould command the ambient sweep once.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould command the ambient sweep once.", success)

			if !suppressedUntil.Equal(now.Add(4 * time.Second)) {
				t.Fatalf("\t%s\tTest 0:\tShould schedule the quiet window.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould schedule the quiet window.", success)

			// Quiet window elapsed but dissolve still running.
			seq.Tick(now.Add(5*time.Second), false)
			if !seq.Active() {
				t.Fatalf("\t%s\tTest 0:\tShould stay active until the dissolve completes.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould stay active until the dissolve completes.", success)

			// Dissolve complete but quiet window still open.
			seq2 := gong.New(gong.Config{QuietWindow: 4 * time.Second}, gong.Commands{})
			seq2.Trigger(feed.Block{Height: 100}, now)
			seq2.Tick(now.Add(time.Second), true)
			if !seq2.Active() {
				t.Fatalf("\t%s\tTest 0:\tShould stay active until the quiet window elapses.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould stay active until the quiet window elapses.", success)

			// Both complete.
			seq.Tick(now.Add(5*time.Second), true)
			if seq.Active() || resumed != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould return to idle and signal resume.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould return to idle and signal resume.", success)

			// A new block can start a fresh session now.
			if !seq.Trigger(feed.Block{Height: 101}, now.Add(6*time.Second)) {
				t.Fatalf("\t%s\tTest 0:\tShould accept a new block once idle.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould accept a new block once idle.", success)
		}
	}
}
