// Package transport owns the one WebSocket connection a session uses to
// exchange reactions with the fan-out service.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jai2010/CollabCanvas/internal/domain"
)

const (
	DefaultEndpoint = "ws://localhost:3000/api/ws"

	// Time allowed to write a message to the peer
	writeWait = 5 * time.Second

	// Time allowed to write the close frame before the socket is dropped
	closeWait = time.Second

	// Frames larger than this are dropped, the connection stays up
	maxMessageSize = 4096

	sendBufferSize    = 64
	inboundBufferSize = 64
)

// Inbound is one event of the receive stream: either a reaction or the
// reason a payload was dropped.
type Inbound struct {
	Reaction domain.Reaction
	Err      error
}

type Dialer struct {
	endpoint string
	dialer   *websocket.Dialer
	logger   *slog.Logger
}

type Option func(*Dialer)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dialer) {
		d.logger = logger
	}
}

func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(d *Dialer) {
		d.dialer.HandshakeTimeout = timeout
	}
}

func NewDialer(endpoint string, opts ...Option) *Dialer {
	d := &Dialer{
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Dialer) Endpoint() string {
	return d.endpoint
}

// Dial opens a connection and starts its reader and writer. The returned
// error is always a *domain.ConnectionError.
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	d.logger.Debug("connecting", "endpoint", d.endpoint)

	ws, resp, err := d.dialer.DialContext(ctx, d.endpoint, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return nil, &domain.ConnectionError{Op: "dial", Endpoint: d.endpoint, Err: err}
	}

	d.logger.Info("connected", "endpoint", d.endpoint)

	c := &Conn{
		conn:     ws,
		endpoint: d.endpoint,
		inbound:  make(chan Inbound, inboundBufferSize),
		outbound: make(chan outgoing, sendBufferSize),
		done:     make(chan struct{}),
		logger:   d.logger,
	}

	go c.reader()
	go c.writer()

	return c, nil
}

type outgoing struct {
	reaction domain.Reaction
	data     []byte
}

// Conn is a live connection. Send and Close may be called from any
// goroutine; Inbound has a single consumer.
type Conn struct {
	conn     *websocket.Conn
	endpoint string
	inbound  chan Inbound
	outbound chan outgoing
	done     chan struct{}
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Inbound is closed when the connection ends, locally or remotely.
func (c *Conn) Inbound() <-chan Inbound {
	return c.inbound
}

// Send queues r for writing. It does not wait for the write and nothing is
// retried. Failures are returned as *domain.SendError.
func (c *Conn) Send(r domain.Reaction) error {
	data, err := json.Marshal(r)
	if err != nil {
		return &domain.SendError{Reaction: r, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &domain.SendError{Reaction: r, Err: domain.ErrClosed}
	}

	select {
	case c.outbound <- outgoing{reaction: r, data: data}:
		return nil
	default:
		return &domain.SendError{Reaction: r, Err: domain.ErrSendBufferFull}
	}
}

// Close drops the connection without waiting for the peer or for queued
// sends. It is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	// best effort, the peer may already be gone
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWait),
	)

	if err := c.conn.Close(); err != nil {
		return &domain.ConnectionError{Op: "close", Endpoint: c.endpoint, Err: err}
	}

	return nil
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Conn) reader() {
	defer close(c.inbound)
	// runs first, so Send already fails once the stream is seen closed
	defer c.Close()

	for {
		message, err := c.next()

		var bad *domain.MalformedMessageError
		if errors.As(err, &bad) {
			c.logger.Debug("dropping inbound message", "error", err)
			if !c.deliver(Inbound{Err: err}) {
				return
			}
			continue
		}
		if err != nil {
			if !c.isClosed() {
				c.logger.Warn("connection lost", "error", err)
			}
			return
		}

		ev := decode(message)
		if ev.Err != nil {
			c.logger.Debug("dropping inbound message", "error", ev.Err)
		}

		if !c.deliver(ev) {
			return
		}
	}
}

// deliver hands ev to the consumer, false once the connection is closed.
func (c *Conn) deliver(ev Inbound) bool {
	select {
	case c.inbound <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Conn) writer() {
	for {
		select {
		case <-c.done:
			return

		case out := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.TextMessage, out.data); err != nil {
				c.logger.Warn("write", "error", &domain.SendError{Reaction: out.reaction, Err: err})
				c.Close()
				return
			}
		}
	}
}

// next reads one frame. A frame over maxMessageSize is drained and returned
// as a *domain.MalformedMessageError so the stream keeps going.
func (c *Conn) next() ([]byte, error) {
	_, r, err := c.conn.NextReader()
	if err != nil {
		return nil, err
	}

	message, err := io.ReadAll(io.LimitReader(r, maxMessageSize+1))
	if err != nil {
		return nil, err
	}

	if len(message) > maxMessageSize {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return nil, err
		}
		return message[:maxMessageSize], &domain.MalformedMessageError{Payload: message[:maxMessageSize], Err: domain.ErrMessageTooLarge}
	}

	return message, nil
}

func decode(payload []byte) Inbound {
	var r domain.Reaction
	if err := json.Unmarshal(payload, &r); err != nil {
		return Inbound{Err: &domain.MalformedMessageError{Payload: payload, Err: err}}
	}

	if err := r.Validate(); err != nil {
		return Inbound{Err: &domain.MalformedMessageError{Payload: payload, Err: err}}
	}

	return Inbound{Reaction: r}
}
