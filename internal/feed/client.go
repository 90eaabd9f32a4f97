// Package feed receives live points over WebSocket and drives a
// multi-timeframe framework with them.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("feed client closed")

// Message is one point on the wire: {"series":"1m","ts":1700000000000,"values":{...}}.
// Series is optional and lets one stream carry several timeframes.
type Message struct {
	Series string `json:"series,omitempty"`
	domain.Point
}

// Config configures WebSocket client behavior.
type Config struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages. Pongs extend it.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// Buffer is the capacity of the points channel.
	Buffer int
	// Subscribe, when set, is sent as JSON after every (re)connect.
	Subscribe any
}

// DefaultConfig returns default WebSocket configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            1024,
	}
}

// Client streams points from a WebSocket endpoint, reconnecting with
// exponential backoff until closed.
type Client struct {
	endpoint string
	config   Config
	log      zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out     chan Message
	dropped atomic.Uint64

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Dial connects to endpoint and starts receiving. A nil config uses DefaultConfig.
func Dial(ctx context.Context, endpoint string, config *Config, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		log:      zerolog.Nop(),
		out:      make(chan Message, cfg.Buffer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// Points returns the channel of received points. It is closed by Close.
func (c *Client) Points() <-chan Message { return c.out }

// Dropped returns the number of malformed messages discarded so far.
func (c *Client) Dropped() uint64 { return c.dropped.Load() }

// connect establishes the connection and sends the subscription, if any.
func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	if c.config.Subscribe != nil {
		conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		if err := conn.WriteJSON(c.config.Subscribe); err != nil {
			conn.Close()
			return fmt.Errorf("write subscribe: %w", err)
		}
	}

	c.connMu.Lock()
	if c.closed.Load() {
		c.connMu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.connMu.Unlock()

	c.log.Info().Str("endpoint", c.endpoint).Msg("feed connected")
	return nil
}

// Close closes the connection and the points channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.out)
	return nil
}

// readLoop reads messages and reconnects on connection errors.
func (c *Client) readLoop() {
	defer c.wg.Done()

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.log.Warn().Err(err).Msg("feed read failed, reconnecting")
			if !c.reconnect() {
				return
			}
			continue
		}

		msg, err := decode(message)
		if err != nil {
			c.dropped.Add(1)
			c.log.Warn().Err(err).Msg("malformed feed message dropped")
			continue
		}

		// Block until we can send - never drop points
		select {
		case c.out <- msg:
		case <-c.done:
			return
		}
	}
}

// reconnect retries with exponential backoff. False when closed meanwhile.
func (c *Client) reconnect() bool {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	delay := c.config.ReconnectDelay
	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			return true
		}
		c.log.Warn().Err(err).Dur("delay", delay).Msg("feed reconnect failed")

		// Increase delay for next attempt (exponential backoff)
		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// a dead connection surfaces in readLoop
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

func decode(message []byte) (Message, error) {
	var wire struct {
		Series string          `json:"series"`
		TS     *int64          `json:"ts"`
		Values domain.Features `json:"values"`
	}
	if err := json.Unmarshal(message, &wire); err != nil {
		return Message{}, fmt.Errorf("decode point: %w", err)
	}
	if wire.TS == nil {
		return Message{}, errors.New("decode point: missing ts")
	}
	if wire.Values == nil {
		wire.Values = domain.Features{}
	}
	return Message{
		Series: wire.Series,
		Point:  domain.Point{TimestampMs: *wire.TS, Features: wire.Values},
	}, nil
}
