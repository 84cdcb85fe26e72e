package admit

import (
	"fmt"
	"testing"
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
)

func TestTrailingCounterBound(t *testing.T) {
	t.Log("Given the need to keep the trailing admit counter bounded.")
	{
		t.Logf("\tTest 0:\tWhen admitting whales for a long stretch under the whale preset.")
		{
			cfg, err := Retrieve(PresetWhale)
			if err != nil {
				t.Fatalf("\t✗\tTest 0:\tShould be able to retrieve the whale preset: %v", err)
			}
			lim := New(cfg, 1)

			// Every transaction here takes the large bypass through the
			// shedding branch, so pruning must not depend on that branch.
			base := time.Date(2023, time.March, 10, 12, 0, 0, 0, time.UTC)
			for i := 0; i < 100_000; i++ {
				tx := feed.Transaction{ID: fmt.Sprintf("%08x", i), Value: 50_000_000}
				lim.Admit(tx, 0.5, 0, base.Add(time.Duration(i)*50*time.Millisecond))
			}

			// At 50ms spacing a 1s window holds roughly 20 entries.
			if len(lim.recent) > 25 {
				t.Fatalf("\t✗\tTest 0:\tShould bound the trailing counter to the rate window, got %d entries.", len(lim.recent))
			}
			t.Logf("\t✓\tTest 0:\tShould bound the trailing counter to the rate window (%d entries).", len(lim.recent))
		}
	}
}
