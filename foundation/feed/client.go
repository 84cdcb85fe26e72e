package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Handlers are the callbacks the client invokes for each decoded message.
// Malformed messages are reported through Dropped and never reach the other
// two callbacks.
type Handlers struct {
	Transaction func(tx Transaction)
	Block       func(block Block)
	Dropped     func(err error)
}

// Client reads a websocket mempool stream and forwards decoded events. The
// client makes a single connection attempt; reconnect policy belongs to the
// caller, the engine just tolerates the gap.
type Client struct {
	url      string
	handlers Handlers
}

// NewClient constructs a client for the specified stream url.
func NewClient(url string, handlers Handlers) *Client {
	return &Client{
		url:      url,
		handlers: handlers,
	}
}

// Run dials the stream and forwards events until the connection drops or the
// context is canceled. Events are forwarded in arrival order.
func (c *Client) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dialing feed %q: %w", c.url, err)
	}
	defer conn.Close()

	// Unblock the read loop when the context is canceled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading feed: %w", err)
		}

		c.dispatch(data, time.Now().UTC())
	}
}

// dispatch decodes a single raw message and routes it to the right handler.
func (c *Client) dispatch(data []byte, receivedAt time.Time) {
	msg, err := Decode(data, receivedAt)
	if err != nil {
		if c.handlers.Dropped != nil {
			c.handlers.Dropped(err)
		}
		return
	}

	switch msg.Kind {
	case KindTransaction:
		if c.handlers.Transaction != nil {
			c.handlers.Transaction(msg.Tx)
		}
	case KindBlock:
		if c.handlers.Block != nil {
			c.handlers.Block(msg.Block)
		}
	}
}
