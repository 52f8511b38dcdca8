package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/securechat/msgr/internal/bus"
)

// hubStub is a minimal websocket endpoint impersonating the push hub.
type hubStub struct {
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	tokens   chan string
}

func newHubStub(t *testing.T) (*hubStub, *httptest.Server) {
	t.Helper()
	h := &hubStub{
		conns:  make(chan *websocket.Conn, 4),
		tokens: make(chan string, 4),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.tokens <- r.URL.Query().Get("access_token")
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.conns <- conn
	}))
	t.Cleanup(srv.Close)
	return h, srv
}

func waitConn(t *testing.T, h *hubStub) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-h.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for hub connection")
		return nil
	}
}

func TestStartFalseWhenHubUnreachable(t *testing.T) {
	b := bus.New()
	c := NewChannel("http://127.0.0.1:1", nil, b, nil)
	if c.Start(context.Background()) {
		t.Error("Start() should return false when the hub is unreachable")
	}
}

func TestStartSendsTokenAndPublishesConnected(t *testing.T) {
	h, srv := newHubStub(t)
	b := bus.New()
	ch, unsub := b.Subscribe("rt.", 10)
	defer unsub()

	c := NewChannel(srv.URL, func() string { return "tok-1" }, b, nil)
	if !c.Start(context.Background()) {
		t.Fatal("Start() = false")
	}
	defer c.Stop()

	select {
	case tok := <-h.tokens:
		if tok != "tok-1" {
			t.Errorf("access_token = %q, want tok-1", tok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub never saw the dial")
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindRealtimeConnected {
			t.Errorf("kind = %q, want %q", evt.Kind, bus.KindRealtimeConnected)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rt.connected event")
	}
}

func TestInboundMessageReachesBus(t *testing.T) {
	h, srv := newHubStub(t)
	b := bus.New()
	ch, unsub := b.Subscribe(bus.KindRealtimeMessage, 10)
	defer unsub()

	c := NewChannel(srv.URL, nil, b, nil)
	if !c.Start(context.Background()) {
		t.Fatal("Start() = false")
	}
	defer c.Stop()

	conn := waitConn(t, h)
	err := conn.WriteJSON(frame{
		Target:  targetMessageReceived,
		Payload: json.RawMessage(`{"chatId":"1","text":"hey"}`),
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		msg, ok := evt.Payload.(*MessageEvent)
		if !ok {
			t.Fatalf("payload = %T", evt.Payload)
		}
		if msg.ChatID != "1" || msg.Text != "hey" {
			t.Errorf("message = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rt.message event")
	}
}

func TestJoinChatSendsInvocation(t *testing.T) {
	h, srv := newHubStub(t)
	b := bus.New()

	c := NewChannel(srv.URL, nil, b, nil)
	if !c.Start(context.Background()) {
		t.Fatal("Start() = false")
	}
	defer c.Stop()

	conn := waitConn(t, h)
	c.JoinChat("42")

	var f frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatal(err)
	}
	if f.Type != "invoke" || f.Target != targetJoinChat || len(f.Args) != 1 || f.Args[0] != "42" {
		t.Errorf("frame = %+v", f)
	}

	c.LeaveChat("42")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatal(err)
	}
	if f.Target != targetLeaveChat {
		t.Errorf("frame = %+v", f)
	}
}

func TestJoinBeforeStartIsSwallowed(t *testing.T) {
	c := NewChannel("http://127.0.0.1:1", nil, bus.New(), nil)
	c.JoinChat("1")  // no connection; must not panic
	c.LeaveChat("1") // likewise
}

func TestStopIdempotent(t *testing.T) {
	_, srv := newHubStub(t)
	c := NewChannel(srv.URL, nil, bus.New(), nil)
	if !c.Start(context.Background()) {
		t.Fatal("Start() = false")
	}
	c.Stop()
	c.Stop()
}

func TestReconnectReplaysJoin(t *testing.T) {
	h, srv := newHubStub(t)
	b := bus.New()

	c := NewChannel(srv.URL, nil, b, nil)
	if !c.Start(context.Background()) {
		t.Fatal("Start() = false")
	}
	defer c.Stop()

	first := waitConn(t, h)
	c.JoinChat("7")
	var f frame
	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := first.ReadJSON(&f); err != nil {
		t.Fatal(err)
	}

	// Drop the connection; the channel's first retry has no delay.
	_ = first.Close()

	second := waitConn(t, h)
	_ = second.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := second.ReadJSON(&f); err != nil {
		t.Fatal(err)
	}
	if f.Target != targetJoinChat || len(f.Args) != 1 || f.Args[0] != "7" {
		t.Errorf("replayed frame = %+v, want join for chat 7", f)
	}
}
