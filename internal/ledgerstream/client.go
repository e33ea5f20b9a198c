package ledgerstream

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 4 * 1024 * 1024
	readTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
	pingInterval   = 54 * time.Second
)

// Config holds the stream client settings.
type Config struct {
	// URL is the node's WebSocket endpoint, e.g. "wss://s1.ripple.com".
	URL string

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration

	// ReconnectMin and ReconnectMax bound the exponential backoff between
	// reconnect attempts.
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func (c *Config) applyDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 15 * time.Second
	}
	if c.ReconnectMin <= 0 {
		c.ReconnectMin = time.Second
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = 30 * time.Second
	}
}

// Client maintains a subscription to the node's ledger and transactions
// streams. It reconnects with backoff and resubscribes on its own; the
// event channel just falls silent during an outage. A reconnect gap shows
// up downstream only as a jump in ledger indexes, which the accumulator's
// reset rule absorbs.
type Client struct {
	cfg    Config
	events chan Event
}

// NewClient creates a stream client. Run must be called to start it.
func NewClient(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:    cfg,
		events: make(chan Event, 256),
	}
}

// Events returns the channel typed events are delivered on. It is closed
// when Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Run connects and pumps events until ctx is cancelled. Connection
// failures are retried with capped exponential backoff; only context
// cancellation ends the loop.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	backoff := c.cfg.ReconnectMin
	for {
		start := time.Now()
		err := c.runConn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("ledger stream connection lost: %v", err)

		// A connection that held for a while earns a fresh backoff.
		if time.Since(start) > c.cfg.ReconnectMax {
			backoff = c.cfg.ReconnectMin
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.cfg.ReconnectMax {
			backoff = c.cfg.ReconnectMax
		}
	}
}

// subscribeCommand is the rippled subscribe request for the two streams.
type subscribeCommand struct {
	ID      int      `json:"id"`
	Command string   `json:"command"`
	Streams []string `json:"streams"`
}

// runConn dials, subscribes and reads until the connection fails or ctx
// is cancelled.
func (c *Client) runConn(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.cfg.URL, err)
	}
	defer conn.Close()
	log.Printf("connected to ledger stream at %s", c.cfg.URL)

	// One writer guard for the subscribe command and keepalive pings.
	var writeMu sync.Mutex
	writeMessage := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteMessage(messageType, data)
	}

	writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteJSON(subscribeCommand{
		ID:      1,
		Command: "subscribe",
		Streams: []string{"ledger", "transactions"},
	})
	writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				if err := writeMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		ev, err := decodeEvent(data)
		if err != nil {
			return err
		}
		if ev == nil {
			continue
		}

		select {
		case c.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
