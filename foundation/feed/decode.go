package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed is returned when a raw message can't produce a well formed
// value. Callers are expected to drop the message and keep reading.
var ErrMalformed = errors.New("malformed feed message")

// Kind tags which variant a decoded message holds.
type Kind int

// Set of message kinds the feed can produce.
const (
	KindTransaction Kind = iota + 1
	KindBlock
)

// Message is the tagged variant produced by Decode. Exactly one of Tx or
// Block is meaningful, selected by Kind.
type Message struct {
	Kind  Kind
	Tx    Transaction
	Block Block
}

// validate holds the settings and caches for validating wire structs.
var validate = validator.New()

// envelope carries the discriminator plus the raw payload for the
// second phase of decoding.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// txMessage is the wire form of a mempool transaction event.
type txMessage struct {
	ID          string  `json:"id" validate:"required,hexadecimal"`
	Value       uint64  `json:"value"`
	VirtualSize float64 `json:"vsize" validate:"required,gt=0"`
	Fee         float64 `json:"fee" validate:"gte=0"`
}

// blockMessage is the wire form of a block confirmation event.
type blockMessage struct {
	Height uint64 `json:"height" validate:"required"`
	Hash   string `json:"hash" validate:"required,hexadecimal"`
}

// Decode turns a raw feed message into a well formed Message or rejects it.
// The receivedAt timestamp is stamped by the caller so replayed captures can
// carry their own clock.
func Decode(data []byte, receivedAt time.Time) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	switch env.Type {
	case "transaction":
		var tm txMessage
		if err := json.Unmarshal(env.Data, &tm); err != nil {
			return Message{}, fmt.Errorf("%w: transaction payload: %s", ErrMalformed, err)
		}
		if err := validate.Struct(tm); err != nil {
			return Message{}, fmt.Errorf("%w: transaction fields: %s", ErrMalformed, err)
		}

		msg := Message{
			Kind: KindTransaction,
			Tx: Transaction{
				ID:          tm.ID,
				Value:       tm.Value,
				VirtualSize: tm.VirtualSize,
				Fee:         tm.Fee,
				ReceivedAt:  receivedAt,
			},
		}
		return msg, nil

	case "block":
		var bm blockMessage
		if err := json.Unmarshal(env.Data, &bm); err != nil {
			return Message{}, fmt.Errorf("%w: block payload: %s", ErrMalformed, err)
		}
		if err := validate.Struct(bm); err != nil {
			return Message{}, fmt.Errorf("%w: block fields: %s", ErrMalformed, err)
		}

		msg := Message{
			Kind: KindBlock,
			Block: Block{
				Height:     bm.Height,
				Hash:       bm.Hash,
				ReceivedAt: receivedAt,
			},
		}
		return msg, nil
	}

	return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
}
