package relay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Status is a relay's connection state as reported to the connectivity check.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusConnecting   Status = "connecting"
	StatusDisconnected Status = "disconnected"
)

const (
	// handshakeTimeout bounds the websocket dial.
	handshakeTimeout = 10 * time.Second

	// writeTimeout is the deadline for a single write to a relay.
	writeTimeout = 10 * time.Second

	// maxFrameSize caps incoming frames so a misbehaving relay cannot
	// exhaust memory.
	maxFrameSize = 1 << 20

	// eventBufSize is the delivery channel depth. The event loop is the
	// single consumer; events beyond the buffer are dropped with a warning
	// rather than blocking the read pumps.
	eventBufSize = 64
)

// Client maintains websocket connections to a set of relays, subscribes each
// with the configured filter, and delivers matching events on one shared
// channel. All operations are best-effort: dial and subscribe failures mark
// the relay disconnected and are retried only when Connect is called again.
type Client struct {
	filter Filter
	subID  string
	events chan *Event

	mu     sync.RWMutex
	relays map[string]*relayConn
}

// relayConn is the per-relay connection state.
type relayConn struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	status Status
}

func (rc *relayConn) setStatus(s Status) {
	rc.mu.Lock()
	rc.status = s
	rc.mu.Unlock()
}

// NewClient creates a Client that will subscribe every relay with filter.
func NewClient(filter Filter) *Client {
	return &Client{
		filter: filter,
		subID:  newSubID(),
		events: make(chan *Event, eventBufSize),
		relays: make(map[string]*relayConn),
	}
}

// Events returns the shared delivery channel. Intended for a single consumer.
func (c *Client) Events() <-chan *Event {
	return c.events
}

// AddRelay registers url with the pool. Adding an already-known relay is a
// no-op, which lets the connectivity task re-add failed relays blindly.
func (c *Client) AddRelay(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.relays[url]; ok {
		return
	}
	c.relays[url] = &relayConn{url: url, status: StatusDisconnected}
}

// Connect dials every relay that is not currently connected, each in its own
// goroutine, and returns immediately. Failures are logged; the relay stays
// disconnected until the next Connect.
func (c *Client) Connect(ctx context.Context) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rc := range c.relays {
		rc.mu.Lock()
		idle := rc.status == StatusDisconnected
		if idle {
			rc.status = StatusConnecting
		}
		rc.mu.Unlock()

		if idle {
			go c.run(ctx, rc)
		}
	}
}

// Statuses returns the current connection state per relay URL.
func (c *Client) Statuses() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Status, len(c.relays))
	for url, rc := range c.relays {
		rc.mu.Lock()
		out[url] = rc.status
		rc.mu.Unlock()
	}
	return out
}

// run dials rc, subscribes, and pumps incoming frames until the connection
// drops or ctx is cancelled. It owns rc's status for its lifetime.
func (c *Client) run(ctx context.Context, rc *relayConn) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, rc.url, nil)
	if err != nil {
		slog.Error("relay: dial failed", "url", rc.url, "err", err)
		rc.setStatus(StatusDisconnected)
		return
	}
	conn.SetReadLimit(maxFrameSize)

	rc.mu.Lock()
	rc.conn = conn
	rc.status = StatusConnected
	rc.mu.Unlock()

	if err := c.subscribe(conn); err != nil {
		slog.Error("relay: subscribe failed", "url", rc.url, "err", err)
		conn.Close()
		rc.setStatus(StatusDisconnected)
		return
	}
	slog.Info("relay: connected", "url", rc.url)

	// Unblock the read pump on shutdown by closing the connection.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	c.readPump(conn, rc.url)
	close(done)

	conn.Close()
	rc.setStatus(StatusDisconnected)
}

// subscribe sends the REQ frame opening this client's subscription.
func (c *Client) subscribe(conn *websocket.Conn) error {
	req := []any{"REQ", c.subID, c.filter}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
	return conn.WriteJSON(req)
}

// readPump parses incoming frames and forwards events until the connection
// fails. It never blocks on delivery: if the consumer falls behind the
// buffered channel, the event is dropped and logged.
func (c *Client) readPump(conn *websocket.Conn, url string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("relay: connection lost", "url", url, "err", err)
			return
		}

		f, err := parseFrame(data)
		if err != nil {
			slog.Warn("relay: skipping bad frame", "url", url, "err", err)
			continue
		}

		switch f.Label {
		case "EVENT":
			select {
			case c.events <- f.Event:
			default:
				slog.Warn("relay: event buffer full, dropping", "url", url, "event_id", f.Event.ID)
			}
		case "NOTICE":
			slog.Warn("relay: notice", "url", url, "msg", f.Notice)
		}
	}
}

// newSubID returns a random subscription identifier.
func newSubID() string {
	var b [8]byte
	rand.Read(b[:]) //nolint:errcheck
	return hex.EncodeToString(b[:])
}
