package stress_test

import (
	"testing"
	"time"

	"github.com/tumigisla/zenpool/foundation/pulse/stress"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestMonotonicity(t *testing.T) {
	t.Log("Given the need to validate stress scales with throughput.")
	{
		t.Logf("\tTest 0:\tWhen comparing two windows with different totals.")
		{
			now := time.Now()

			low := stress.New(stress.Config{})
			high := stress.New(stress.Config{})

			for i := 0; i < 10; i++ {
				low.Record(250, now)
				high.Record(2500, now)
			}

			a := low.Tick(now)
			b := high.Tick(now)

			if a > b {
				t.Fatalf("\t%s\tTest 0:\tShould compute scalar A <= B for throughput A < B: %f > %f.", failed, a, b)
			}
			t.Logf("\t%s\tTest 0:\tShould compute scalar A <= B for throughput A < B.", success)
		}
	}
}

func TestClamping(t *testing.T) {
	t.Log("Given the need to keep the congestion scalar in [0,1].")
	{
		t.Logf("\tTest 0:\tWhen the throughput is 100x the configured max.")
		{
			now := time.Now()
			est := stress.New(stress.Config{})

			// 100x the default max rate over the default 5s window.
			est.Record(100*stress.DefaultMaxRate*5, now)

			if scalar := est.Tick(now); scalar != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould clamp the scalar to 1, got %f.", failed, scalar)
			}
			t.Logf("\t%s\tTest 0:\tShould clamp the scalar to 1.", success)
		}

		t.Logf("\tTest 1:\tWhen the window is empty.")
		{
			est := stress.New(stress.Config{})

			if scalar := est.Tick(time.Now()); scalar != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould compute zero for an empty window, got %f.", failed, scalar)
			}
			t.Logf("\t%s\tTest 1:\tShould compute zero for an empty window.", success)
		}
	}
}

func TestPruning(t *testing.T) {
	t.Log("Given the need to prune observations older than the window.")
	{
		t.Logf("\tTest 0:\tWhen samples age past the window length.")
		{
			base := time.Now()
			est := stress.New(stress.Config{Window: 5 * time.Second})

			est.Record(1000, base)
			est.Record(1000, base.Add(4*time.Second))

			est.Tick(base.Add(4 * time.Second))
			if est.Len() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould retain both samples inside the window, got %d.", failed, est.Len())
			}
			t.Logf("\t%s\tTest 0:\tShould retain both samples inside the window.", success)

			est.Tick(base.Add(6 * time.Second))
			if est.Len() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould prune the stale sample, got %d.", failed, est.Len())
			}
			t.Logf("\t%s\tTest 0:\tShould prune the stale sample.", success)

			if scalar := est.Tick(base.Add(time.Hour)); scalar != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould decay to zero once everything ages out, got %f.", failed, scalar)
			}
			t.Logf("\t%s\tTest 0:\tShould decay to zero once everything ages out.", success)
		}
	}
}

func TestInterpolation(t *testing.T) {
	t.Log("Given the need to blend readings between recomputations.")
	{
		t.Logf("\tTest 0:\tWhen reading at fractions of the recompute period.")
		{
			now := time.Now()
			est := stress.New(stress.Config{})

			// First recompute lands a mid-scale scalar, the second drains
			// the window to zero.
			est.Record(stress.DefaultMaxRate*5/2, now)
			prev := est.Tick(now)
			cur := est.Tick(now.Add(10 * time.Second))

			if got := est.Interpolated(0); got != prev {
				t.Fatalf("\t%s\tTest 0:\tShould read the previous scalar at fraction 0, got %f.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould read the previous scalar at fraction 0.", success)

			if got := est.Interpolated(1); got != cur {
				t.Fatalf("\t%s\tTest 0:\tShould read the current scalar at fraction 1, got %f.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould read the current scalar at fraction 1.", success)

			want := prev + (cur-prev)/2
			if got := est.Interpolated(0.5); got != want {
				t.Fatalf("\t%s\tTest 0:\tShould read halfway at fraction 0.5, got %f want %f.", failed, got, want)
			}
			t.Logf("\t%s\tTest 0:\tShould read halfway at fraction 0.5.", success)

			if got := est.Interpolated(7); got != cur {
				t.Fatalf("\t%s\tTest 0:\tShould clamp fractions past 1 to the current scalar, got %f.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould clamp fractions past 1 to the current scalar.", success)
		}
	}
}
