package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/convo-relay/internal/config"
	"github.com/vovakirdan/convo-relay/internal/core"
	"github.com/vovakirdan/convo-relay/internal/proto"
)

type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *core.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(&disabledLogger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return ts, hub
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// readUntil reads outbound frames until one matches event, failing if any
// frame named in forbidden arrives first.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, forbidden ...string) wireOutbound {
	t.Helper()

	for {
		var out wireOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		name := out.Event
		if out.Type == proto.OutboundTypeError {
			name = proto.OutboundTypeError
		}
		for _, f := range forbidden {
			if name == f {
				t.Fatalf("received forbidden %s while waiting for %s: %s", f, event, out.Data)
			}
		}
		if name == event {
			return out
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func joinAs(t *testing.T, ctx context.Context, conn *websocket.Conn, user string, rooms ...string) {
	t.Helper()

	send(t, ctx, conn, proto.InboundUserJoin, proto.UserJoinData{UserID: user})
	for {
		out := readUntil(t, ctx, conn, proto.EventUserStatus)
		var status proto.UserStatus
		if err := json.Unmarshal(out.Data, &status); err != nil {
			t.Fatalf("unmarshal status: %v", err)
		}
		if status.UserID == user && status.Status == "online" {
			break
		}
	}
	for _, room := range rooms {
		send(t, ctx, conn, proto.InboundConversationJoin, proto.ConversationData{ConversationID: room})
	}
}
