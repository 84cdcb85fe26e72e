package feed_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tumigisla/zenpool/foundation/feed"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestDecode(t *testing.T) {
	now := time.Date(2023, time.March, 10, 12, 0, 0, 0, time.UTC)

	t.Log("Given the need to decode raw feed messages at the boundary.")
	{
		t.Logf("\tTest 0:\tWhen handling a well formed transaction message.")
		{
			raw := []byte(`{"type":"transaction","data":{"id":"f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16","value":150000000,"vsize":225.5,"fee":3400}}`)

			msg, err := feed.Decode(raw, now)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the message: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to decode the message.", success)

			if msg.Kind != feed.KindTransaction {
				t.Fatalf("\t%s\tTest 0:\tShould get a transaction kind, got %v.", failed, msg.Kind)
			}
			t.Logf("\t%s\tTest 0:\tShould get a transaction kind.", success)

			if msg.Tx.Value != 150000000 || msg.Tx.VirtualSize != 225.5 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the wire values: got %d/%f.", failed, msg.Tx.Value, msg.Tx.VirtualSize)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the wire values.", success)

			if !msg.Tx.ReceivedAt.Equal(now) {
				t.Fatalf("\t%s\tTest 0:\tShould stamp the caller's clock.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould stamp the caller's clock.", success)
		}

		t.Logf("\tTest 1:\tWhen handling a well formed block message.")
		{
			raw := []byte(`{"type":"block","data":{"height":788123,"hash":"00000000000000000002c5b7bd9eb935e09ae0a40dfe0c6bcecd8a8e6f6b9a32"}}`)

			msg, err := feed.Decode(raw, now)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to decode the message: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to decode the message.", success)

			if msg.Kind != feed.KindBlock || msg.Block.Height != 788123 {
				t.Fatalf("\t%s\tTest 1:\tShould get the block variant: %+v", failed, msg)
			}
			t.Logf("\t%s\tTest 1:\tShould get the block variant.", success)
		}

		t.Logf("\tTest 2:\tWhen handling malformed messages.")
		{
			malformed := [][]byte{
				[]byte(`not json`),
				[]byte(`{"type":"transaction","data":{"id":"abc123","value":1000}}`),
				[]byte(`{"type":"transaction","data":{"id":"zzzz","value":1000,"vsize":100,"fee":1}}`),
				[]byte(`{"type":"transaction","data":{"id":"abc123","value":1000,"vsize":-5,"fee":1}}`),
				[]byte(`{"type":"price","data":{}}`),
			}

			for i, raw := range malformed {
				if _, err := feed.Decode(raw, now); !errors.Is(err, feed.ErrMalformed) {
					t.Fatalf("\t%s\tTest 2:\tShould reject malformed message %d: %v", failed, i, err)
				}
			}
			t.Logf("\t%s\tTest 2:\tShould reject every malformed message.", success)
		}
	}
}

func TestFeeRate(t *testing.T) {
	t.Log("Given the need to guard fee rate computation.")
	{
		t.Logf("\tTest 0:\tWhen the virtual size is zero.")
		{
			tx := feed.Transaction{Fee: 500}
			if rate := tx.FeeRate(); rate != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould treat a zero vsize as zero fee rate, got %f.", failed, rate)
			}
			t.Logf("\t%s\tTest 0:\tShould treat a zero vsize as zero fee rate.", success)
		}

		t.Logf("\tTest 1:\tWhen the virtual size is positive.")
		{
			tx := feed.Transaction{Fee: 500, VirtualSize: 250}
			if rate := tx.FeeRate(); rate != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould compute fee per vbyte, got %f.", failed, rate)
			}
			t.Logf("\t%s\tTest 1:\tShould compute fee per vbyte.", success)
		}
	}
}
