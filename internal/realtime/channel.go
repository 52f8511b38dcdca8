// Package realtime maintains the single push connection to the backend's
// chat hub and forwards its inbound events onto the bus.
package realtime

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/securechat/msgr/internal/bus"
	"go.uber.org/zap"
)

const (
	targetMessageReceived = "MessageReceived"
	targetJoinChat        = "JoinChat"
	targetLeaveChat       = "LeaveChat"
)

// reconnectSchedule mirrors the hub client's automatic retry ladder. After
// the last attempt fails the channel stays down until the next Start.
var reconnectSchedule = []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second}

// TokenFunc supplies the bearer token at (re)dial time, so a refreshed
// session is picked up without recreating the channel.
type TokenFunc func() string

// frame is the hub's JSON wire format: inbound events carry target+payload,
// outbound invocations carry type+target+args.
type frame struct {
	Type    string          `json:"type,omitempty"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Args    []string        `json:"args,omitempty"`
}

// Channel wraps one long-lived websocket to the push hub. Inbound
// MessageReceived events are parsed and published as rt.message; everything
// else is ignored. Join/leave are best-effort: the server may not support
// per-chat scoping, so failures are swallowed.
type Channel struct {
	hubURL string
	token  TokenFunc
	bus    *bus.Bus
	logger *zap.Logger
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	joined  string
	running bool
	cancel  context.CancelFunc
}

// NewChannel creates a channel for the given hub URL. Nothing connects
// until Start.
func NewChannel(hubURL string, token TokenFunc, b *bus.Bus, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		hubURL: hubURL,
		token:  token,
		bus:    b,
		logger: logger,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Start opens the connection and begins the read pump. Returns false (never
// an error) when the initial dial fails: a backend without realtime support
// must not block the UI.
func (c *Channel) Start(ctx context.Context) bool {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.logger.Info("realtime unavailable", zap.Error(err))
		return false
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.conn = conn
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()

	c.bus.Publish(bus.Event{Kind: bus.KindRealtimeConnected})
	go c.readPump(pumpCtx)
	return true
}

// Stop tears the connection down. Idempotent; errors are swallowed.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.running = false
}

// JoinChat subscribes to a chat's events. The chat is remembered so the
// subscription is replayed after a reconnect.
func (c *Channel) JoinChat(chatID string) {
	c.mu.Lock()
	c.joined = chatID
	conn := c.conn
	c.mu.Unlock()
	c.invoke(conn, targetJoinChat, chatID)
}

// LeaveChat unsubscribes from a chat's events.
func (c *Channel) LeaveChat(chatID string) {
	c.mu.Lock()
	if c.joined == chatID {
		c.joined = ""
	}
	conn := c.conn
	c.mu.Unlock()
	c.invoke(conn, targetLeaveChat, chatID)
}

func (c *Channel) invoke(conn *websocket.Conn, target, chatID string) {
	if conn == nil || chatID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	if err := conn.WriteJSON(frame{Type: "invoke", Target: target, Args: []string{chatID}}); err != nil {
		c.logger.Debug("hub invocation failed", zap.String("target", target), zap.Error(err))
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.hubURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			q := u.Query()
			q.Set("access_token", tok)
			u.RawQuery = q.Encode()
		}
	}
	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// readPump reads frames until the connection drops, then walks the retry
// ladder. A successful redial replays the join for the tracked chat.
func (c *Channel) readPump(ctx context.Context) {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err == nil {
			c.handleFrame(data)
			continue
		}
		if ctx.Err() != nil {
			return
		}

		c.logger.Warn("realtime connection lost", zap.Error(err))
		c.bus.Publish(bus.Event{Kind: bus.KindRealtimeDisconnected})

		if !c.reconnect(ctx) {
			c.mu.Lock()
			c.running = false
			c.conn = nil
			c.mu.Unlock()
			return
		}
	}
}

func (c *Channel) reconnect(ctx context.Context) bool {
	for _, delay := range reconnectSchedule {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Info("reconnect attempt failed", zap.Duration("after", delay), zap.Error(err))
			continue
		}

		c.mu.Lock()
		c.conn = conn
		joined := c.joined
		c.mu.Unlock()

		c.bus.Publish(bus.Event{Kind: bus.KindRealtimeConnected})
		if joined != "" {
			c.invoke(conn, targetJoinChat, joined)
		}
		return true
	}
	c.logger.Warn("realtime reconnect attempts exhausted")
	return false
}

func (c *Channel) handleFrame(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return
	}
	if !strings.EqualFold(f.Target, targetMessageReceived) {
		return
	}
	if evt := ParseMessageEvent(f.Payload); evt != nil {
		c.bus.Publish(bus.Event{Kind: bus.KindRealtimeMessage, Payload: evt})
	}
}
