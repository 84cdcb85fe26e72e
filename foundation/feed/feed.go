// Package feed provides the boundary between a raw mempool event stream and
// the well formed transaction and block values the engine consumes. Raw
// messages are decoded into a tagged variant and either produce a valid
// value or are rejected at this boundary.
package feed

import "time"

// Transaction represents a single mempool transaction the engine reacts to.
// Values are immutable once created.
type Transaction struct {
	ID          string
	Value       uint64
	VirtualSize float64
	Fee         float64
	ReceivedAt  time.Time
}

// FeeRate returns the fee paid per virtual byte. A zero virtual size is
// treated as a zero fee rate rather than failing.
func (tx Transaction) FeeRate() float64 {
	if tx.VirtualSize <= 0 {
		return 0
	}
	return tx.Fee / tx.VirtualSize
}

// Block represents a block confirmation notification.
type Block struct {
	Height     uint64
	Hash       string
	ReceivedAt time.Time
}
