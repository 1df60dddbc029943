package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/jai2010/CollabCanvas/internal/domain"
)

// fanout relays every frame it receives to all connected clients,
// the sender included, like the reaction service does.
type fanout struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newFanout(t *testing.T) (*fanout, string) {
	t.Helper()

	f := &fanout{conns: make(map[*websocket.Conn]struct{})}

	router := httprouter.New()
	router.GET("/api/ws", f.serve)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		f.dropAll()
		srv.Close()
	})

	return f, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
}

func (f *fanout) serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.conns[ws] = struct{}{}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.conns, ws)
		f.mu.Unlock()
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		f.broadcast(message)
	}
}

func (f *fanout) broadcast(message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ws := range f.conns {
		ws.WriteMessage(websocket.TextMessage, message)
	}
}

func (f *fanout) dropAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ws := range f.conns {
		ws.Close()
	}
}

func (f *fanout) waitClients(t *testing.T, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		got := len(f.conns)
		f.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("fan-out never saw %d clients", n)
}

func dial(t *testing.T, endpoint string) *Conn {
	t.Helper()

	c, err := NewDialer(endpoint).Dial(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

func next(t *testing.T, c *Conn) Inbound {
	t.Helper()

	select {
	case ev, ok := <-c.Inbound():
		if !ok {
			t.Fatal("inbound closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
	}

	return Inbound{}
}

func TestSendReachesEveryPeer(t *testing.T) {
	f, endpoint := newFanout(t)

	ava := dial(t, endpoint)
	bo := dial(t, endpoint)
	f.waitClients(t, 2)

	sent := domain.Reaction{X: 120, Y: 40, Emoji: "🐸", UserName: "Ava", Timestamp: 1700000000000}
	if err := ava.Send(sent); err != nil {
		t.Fatalf("send: %v", err)
	}

	for name, c := range map[string]*Conn{"self echo": ava, "peer": bo} {
		ev := next(t, c)
		if ev.Err != nil {
			t.Fatalf("%s: unexpected error %v", name, ev.Err)
		}
		if ev.Reaction != sent {
			t.Fatalf("%s: got %+v want %+v", name, ev.Reaction, sent)
		}
	}
}

func TestMalformedMessageIsDroppedNotFatal(t *testing.T) {
	f, endpoint := newFanout(t)

	c := dial(t, endpoint)

	raw, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		t.Fatalf("raw dial: %v", err)
	}
	defer raw.Close()
	f.waitClients(t, 2)

	frames := []string{
		`not json`,
		`{"x":1,"y":2,"userName":"Bo","timestamp":1}`,
		`{"x":10,"y":10,"emoji":"😎","userName":"Bo","timestamp":1700000000000}`,
	}
	for _, frame := range frames {
		if err := raw.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("raw write: %v", err)
		}
	}

	for i, wantErr := range []error{nil, domain.ErrMissingEmoji} {
		ev := next(t, c)
		var bad *domain.MalformedMessageError
		if !errors.As(ev.Err, &bad) {
			t.Fatalf("frame %d: got %v want MalformedMessageError", i, ev.Err)
		}
		if wantErr != nil && !errors.Is(ev.Err, wantErr) {
			t.Fatalf("frame %d: got %v want %v", i, ev.Err, wantErr)
		}
		if string(bad.Payload) != frames[i] {
			t.Fatalf("frame %d payload: got %q want %q", i, bad.Payload, frames[i])
		}
	}

	ev := next(t, c)
	if ev.Err != nil || ev.Reaction.UserName != "Bo" {
		t.Fatalf("valid frame after malformed ones: got %+v", ev)
	}
}

func TestOversizedFrameIsDroppedNotFatal(t *testing.T) {
	f, endpoint := newFanout(t)

	c := dial(t, endpoint)

	raw, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		t.Fatalf("raw dial: %v", err)
	}
	defer raw.Close()
	f.waitClients(t, 2)

	huge := `{"x":1,"y":2,"emoji":"😎","userName":"` + strings.Repeat("a", 5*maxMessageSize) + `","timestamp":1}`
	valid := `{"x":10,"y":10,"emoji":"😎","userName":"Bo","timestamp":1700000000000}`
	for _, frame := range []string{huge, valid} {
		if err := raw.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("raw write: %v", err)
		}
	}

	ev := next(t, c)
	if !errors.Is(ev.Err, domain.ErrMessageTooLarge) {
		t.Fatalf("oversized frame: got %+v want ErrMessageTooLarge", ev)
	}
	var bad *domain.MalformedMessageError
	if !errors.As(ev.Err, &bad) || len(bad.Payload) != maxMessageSize {
		t.Fatalf("oversized frame payload: got %v", ev.Err)
	}

	ev = next(t, c)
	if ev.Err != nil || ev.Reaction.UserName != "Bo" {
		t.Fatalf("valid frame after oversized one: got %+v", ev)
	}

	if err := c.Send(domain.Reaction{Emoji: "😊", UserName: "Ava"}); err != nil {
		t.Fatalf("send after oversized frame: %v", err)
	}
}

func TestDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	srv.Close()

	_, err := NewDialer(endpoint, WithHandshakeTimeout(time.Second)).Dial(context.Background())

	var ce *domain.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("dial: got %v want ConnectionError", err)
	}
	if ce.Op != "dial" || ce.Endpoint != endpoint {
		t.Fatalf("connection error: got %+v", ce)
	}
}

func TestConnKeepsEndpoint(t *testing.T) {
	_, endpoint := newFanout(t)

	c := dial(t, endpoint)
	if c.endpoint != endpoint {
		t.Fatalf("endpoint: got %q want %q", c.endpoint, endpoint)
	}
}

func TestDialRejectedHandshake(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewDialer("ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws").Dial(context.Background())

	var ce *domain.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("dial: got %v want ConnectionError", err)
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("dial error should carry the status: %v", err)
	}
}

func TestCloseIsUnconditional(t *testing.T) {
	_, endpoint := newFanout(t)

	c := dial(t, endpoint)

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	select {
	case _, ok := <-c.Inbound():
		if ok {
			t.Fatal("inbound delivered after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inbound not closed after close")
	}

	err := c.Send(domain.Reaction{Emoji: "😊", UserName: "Ava"})
	if !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("send after close: got %v want ErrClosed", err)
	}

	var se *domain.SendError
	if !errors.As(err, &se) {
		t.Fatalf("send after close: got %T want *SendError", err)
	}
}

func TestRemoteDropEndsStream(t *testing.T) {
	f, endpoint := newFanout(t)

	c := dial(t, endpoint)
	f.waitClients(t, 1)
	f.dropAll()

	select {
	case _, ok := <-c.Inbound():
		if ok {
			t.Fatal("unexpected inbound message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inbound not closed after remote drop")
	}

	if err := c.Send(domain.Reaction{Emoji: "😊", UserName: "Ava"}); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("send after drop: got %v want ErrClosed", err)
	}
}
