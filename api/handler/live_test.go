package handler_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/taskshare/api/handler"
	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/internal/services/realtime"
	"github.com/fastygo/taskshare/pkg/jwtauth"
)

type fixedUnread int

func (f fixedUnread) GetUnreadCount(context.Context, int64) (int, error) { return int(f), nil }

func startLive(t *testing.T) (*realtime.Hub, *jwtauth.Issuer, websocket.Dialer) {
	t.Helper()
	hub := realtime.NewHub(4, nil)
	tokens := jwtauth.NewIssuer("live-secret", "taskshare", time.Hour)
	live := handler.NewLiveHandler(hub, tokens, fixedUnread(3), "*", time.Second, nil, nil)

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: live.Serve}
	go srv.Serve(ln)
	t.Cleanup(func() {
		_ = hub.Close(context.Background())
		_ = ln.Close()
	})

	dialer := websocket.Dialer{
		NetDial:          func(string, string) (net.Conn, error) { return ln.Dial() },
		HandshakeTimeout: time.Second,
	}
	return hub, tokens, dialer
}

func readFrame(t *testing.T, conn *websocket.Conn) realtime.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	var frame realtime.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("decoding frame %s: %v", raw, err)
	}
	return frame
}

func TestLiveSession(t *testing.T) {
	hub, tokens, dialer := startLive(t)
	token, err := tokens.Sign(domain.Principal{ID: 7, Username: "ana"})
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	conn, _, err := dialer.Dial("ws://taskshare/ws?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sync := readFrame(t, conn)
	if sync.Event != domain.EventSync {
		t.Fatalf("expected sync first, got %s", sync.Event)
	}
	if data, _ := sync.Data.(map[string]interface{}); data["unreadCount"] != float64(3) {
		t.Fatalf("unexpected sync payload %v", sync.Data)
	}

	if err := hub.EmitToUser(context.Background(), 7, domain.EventMarkedRead, domain.MarkedReadEvent{IDs: domain.MarkedAll}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if frame := readFrame(t, conn); frame.Event != domain.EventMarkedRead {
		t.Fatalf("expected marked-read, got %s", frame.Event)
	}
}

func TestLiveSessionSubprotocolToken(t *testing.T) {
	_, tokens, dialer := startLive(t)
	token, err := tokens.Sign(domain.Principal{ID: 9, Username: "bob"})
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	dialer.Subprotocols = []string{"bearer", token}

	conn, _, err := dialer.Dial("ws://taskshare/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if conn.Subprotocol() != "bearer" {
		t.Fatalf("expected bearer subprotocol, got %q", conn.Subprotocol())
	}
	if frame := readFrame(t, conn); frame.Event != domain.EventSync {
		t.Fatalf("expected sync, got %s", frame.Event)
	}
}

func TestLiveRejectsMissingToken(t *testing.T) {
	_, _, dialer := startLive(t)
	_, resp, err := dialer.Dial("ws://taskshare/ws", nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %v", resp)
	}
}
