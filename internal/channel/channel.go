// Package channel implements the persistent session-scoped connection to
// the interview orchestration service: typed message send/receive over a
// websocket, heartbeat, and bounded exponential-backoff reconnection.
package channel

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ai-interview-voice-core/internal/observability/logging"
	"ai-interview-voice-core/internal/observability/metrics"
	"ai-interview-voice-core/internal/protocol"
)

// Status is the connection status reported to observers.
type Status int

const (
	StatusConnected Status = iota
	StatusReconnecting
	// StatusDisconnected is terminal: explicit disconnect or exhausted
	// reconnection. No further automatic attempts follow.
	StatusDisconnected
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "CONNECTED"
	case StatusReconnecting:
		return "RECONNECTING"
	case StatusDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Dialer abstracts websocket dialing so tests can inject failures.
// *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Handlers receives channel events. Each callback runs on the channel's
// read goroutine and must not block.
type Handlers struct {
	OnMessage func(protocol.Inbound)
	OnError   func(error)
	OnStatus  func(Status)
}

// Config holds session channel configuration.
type Config struct {
	Endpoint             string // base URL, e.g. ws://localhost:8000
	SessionID            string
	HeartbeatInterval    time.Duration
	ReconnectBase        time.Duration
	ReconnectMax         time.Duration
	MaxReconnectAttempts int
	DialTimeout          time.Duration
}

// SessionChannel is a persistent bidirectional connection scoped to one
// session id.
type SessionChannel struct {
	cfg      Config
	url      string
	dialer   Dialer
	handlers Handlers
	log      zerolog.Logger
	metrics  *metrics.Metrics

	mu             sync.Mutex
	conn           *websocket.Conn
	open           bool
	closed         bool
	gen            int // connection generation, fences stale read-loop events
	backoff        Backoff
	reconnectTimer *time.Timer
	stopHeartbeat  chan struct{}
}

// New creates a session channel. A nil dialer uses websocket.DefaultDialer.
func New(cfg Config, dialer Dialer, handlers Handlers) *SessionChannel {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	url := strings.TrimRight(cfg.Endpoint, "/") + "/ws/" + cfg.SessionID
	return &SessionChannel{
		cfg:      cfg,
		url:      url,
		dialer:   dialer,
		handlers: handlers,
		log:      logging.WithChannel(cfg.SessionID, url),
		metrics:  metrics.Default,
		backoff: Backoff{
			Base:        cfg.ReconnectBase,
			Max:         cfg.ReconnectMax,
			MaxAttempts: cfg.MaxReconnectAttempts,
		},
	}
}

// Connect establishes the transport. On success the reconnect state is
// reset, the heartbeat starts, and inbound dispatch begins. Connecting
// an already open channel is a no-op.
func (c *SessionChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	conn, _, err := c.dialer.DialContext(dialCtx, c.url, nil)
	if err != nil {
		return &TransportError{Op: "dial", Err: err}
	}

	c.mu.Lock()
	if c.closed || c.open {
		closed := c.closed
		c.mu.Unlock()
		conn.Close()
		if closed {
			return ErrNotConnected
		}
		return nil
	}
	c.adoptLocked(conn)
	c.mu.Unlock()

	c.log.Info().Msg("Session channel connected")
	c.metrics.RecordConnect()
	c.notifyStatus(StatusConnected)
	return nil
}

// adoptLocked installs a freshly dialed connection. Caller holds c.mu.
func (c *SessionChannel) adoptLocked(conn *websocket.Conn) {
	c.gen++
	c.conn = conn
	c.open = true
	c.backoff.Reset()

	c.stopHeartbeat = make(chan struct{})
	go c.heartbeatLoop(c.stopHeartbeat)
	go c.readLoop(conn, c.gen)
}

// Send serializes and transmits only if the connection is currently open.
// A message sent while closed is dropped and reported, never queued.
func (c *SessionChannel) Send(msg protocol.Outbound) error {
	data, err := protocol.EncodeOutbound(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if !c.open || c.conn == nil {
		c.mu.Unlock()
		c.metrics.RecordMessageDropped("not_connected")
		c.log.Warn().Str("kind", string(msg.MessageType())).Msg("Send while channel closed, message dropped")
		c.notifyError(ErrNotConnected)
		return ErrNotConnected
	}
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		werr := &TransportError{Op: "write", Err: err}
		c.notifyError(werr)
		return werr
	}
	c.metrics.RecordMessageSent(string(msg.MessageType()))
	return nil
}

// Disconnect cancels all timers, closes the transport, and suppresses
// further automatic reconnection.
func (c *SessionChannel) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.open = false
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.stopHeartbeat != nil {
		close(c.stopHeartbeat)
		c.stopHeartbeat = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.log.Info().Msg("Session channel disconnected")
	c.notifyStatus(StatusDisconnected)
}

// IsOpen reports whether the transport is currently open.
func (c *SessionChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *SessionChannel) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(gen, err)
			return
		}

		msg, err := protocol.DecodeInbound(data)
		if err != nil {
			// Undispatchable payloads are dropped, the connection stays up.
			c.metrics.RecordProtocolError()
			c.log.Warn().Err(err).Msg("Dropping undecodable inbound payload")
			c.notifyError(err)
			continue
		}

		c.metrics.RecordMessageReceived(string(msg.MessageType()))
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(msg)
		}
	}
}

func (c *SessionChannel) heartbeatLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.Send(protocol.Ping{SessionID: c.cfg.SessionID}); err == nil {
				c.metrics.RecordHeartbeat()
			}
		}
	}
}

// connectionLost handles an unexpected closure observed by a read loop.
// Events from superseded connections are ignored.
func (c *SessionChannel) connectionLost(gen int, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.open = false
	c.conn = nil
	if c.stopHeartbeat != nil {
		close(c.stopHeartbeat)
		c.stopHeartbeat = nil
	}
	c.mu.Unlock()

	c.log.Warn().Err(err).Msg("Session channel closed unexpectedly")
	c.metrics.RecordDisconnect()
	c.notifyError(&TransportError{Op: "read", Err: err})

	c.mu.Lock()
	scheduled := c.scheduleReconnectLocked()
	c.mu.Unlock()
	if scheduled {
		c.notifyStatus(StatusReconnecting)
	}
}

// scheduleReconnectLocked arms the reconnect timer for the next attempt.
// Caller holds c.mu. Returns false when attempts are exhausted, which is
// terminal for the channel.
func (c *SessionChannel) scheduleReconnectLocked() bool {
	delay, ok := c.backoff.Next()
	if !ok {
		c.log.Error().Int("attempts", c.backoff.Attempts()).Msg("Reconnect attempts exhausted")
		c.metrics.RecordReconnectExhausted()
		go func() {
			c.notifyError(ErrReconnectExhausted)
			c.notifyStatus(StatusDisconnected)
		}()
		return false
	}

	c.log.Info().Dur("delay", delay).Int("attempt", c.backoff.Attempts()).Msg("Scheduling reconnect")
	c.metrics.RecordReconnectAttempt()
	c.reconnectTimer = time.AfterFunc(delay, c.tryReconnect)
	return true
}

func (c *SessionChannel) tryReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.reconnectTimer = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	cancel()

	if err != nil {
		c.log.Warn().Err(err).Msg("Reconnect attempt failed")
		c.notifyError(&TransportError{Op: "dial", Err: err})
		c.mu.Lock()
		if !c.closed {
			c.scheduleReconnectLocked()
		}
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.adoptLocked(conn)
	c.mu.Unlock()

	c.log.Info().Msg("Session channel reconnected")
	c.metrics.RecordConnect()
	c.notifyStatus(StatusConnected)
}

func (c *SessionChannel) notifyError(err error) {
	if c.handlers.OnError != nil && !errors.Is(err, context.Canceled) {
		c.handlers.OnError(err)
	}
}

func (c *SessionChannel) notifyStatus(s Status) {
	if c.handlers.OnStatus != nil {
		c.handlers.OnStatus(s)
	}
}
