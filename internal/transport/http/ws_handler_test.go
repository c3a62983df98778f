package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/convo-relay/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t, testConfig())

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketMessageAndTyping(t *testing.T) {
	ts, hub := startTestServer(t, testConfig())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	alice := dial(t, ctx, ts)
	bob := dial(t, ctx, ts)

	joinAs(t, ctx, alice, "alice", "conv-1")
	joinAs(t, ctx, bob, "bob", "conv-1")
	waitFor(t, "both members in conv-1", func() bool { return len(hub.Rooms().MembersOf("conv-1")) == 2 })

	send(t, ctx, alice, proto.InboundMessageSend, proto.SendMessageData{
		ConversationID: "conv-1",
		Message:        &proto.ChatMessage{ID: "m1", Content: "hi", Status: "sending"},
	})

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		out := readUntil(t, ctx, conn, proto.EventMessageNew)
		var msg proto.ChatMessage
		if err := json.Unmarshal(out.Data, &msg); err != nil {
			t.Fatalf("unmarshal message for %s: %v", name, err)
		}
		if msg.ID != "m1" || msg.Content != "hi" || msg.Status != "delivered" {
			t.Fatalf("unexpected message for %s: %+v", name, msg)
		}
		if msg.SenderID != "alice" || msg.ConversationID != "conv-1" {
			t.Fatalf("sender fields not filled for %s: %+v", name, msg)
		}
	}

	ackOut := readUntil(t, ctx, alice, proto.EventMessageDelivered)
	var ack proto.MessageAck
	if err := json.Unmarshal(ackOut.Data, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.MessageID != "m1" || ack.Status != "delivered" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	isTyping := true
	send(t, ctx, bob, proto.InboundTypingSend, proto.TypingData{ConversationID: "conv-1", UserID: "bob", IsTyping: &isTyping})

	typingOut := readUntil(t, ctx, alice, proto.EventUserTyping)
	var typing proto.UserTyping
	if err := json.Unmarshal(typingOut.Data, &typing); err != nil {
		t.Fatalf("unmarshal typing: %v", err)
	}
	if typing.UserID != "bob" || !typing.IsTyping || typing.ConversationID != "conv-1" {
		t.Fatalf("unexpected typing: %+v", typing)
	}

	// Bob must never see his own typing event; his next frame is the message below.
	send(t, ctx, bob, proto.InboundMessageSend, proto.SendMessageData{
		ConversationID: "conv-1",
		Message:        &proto.ChatMessage{ID: "m2"},
	})
	readUntil(t, ctx, bob, proto.EventMessageNew, proto.EventUserTyping)
}

func TestWebSocketCallSignaling(t *testing.T) {
	ts, _ := startTestServer(t, testConfig())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	alice := dial(t, ctx, ts)
	bob := dial(t, ctx, ts)
	joinAs(t, ctx, alice, "alice")
	joinAs(t, ctx, bob, "bob")

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0\r\n"}`)
	send(t, ctx, alice, proto.InboundCallUser, proto.CallUserData{
		UserToCall: "bob",
		SignalData: offer,
		From:       "alice",
		CallType:   "audio",
	})

	incomingOut := readUntil(t, ctx, bob, proto.EventCallIncoming)
	var incoming proto.CallIncoming
	if err := json.Unmarshal(incomingOut.Data, &incoming); err != nil {
		t.Fatalf("unmarshal incoming: %v", err)
	}
	if incoming.From != "alice" || incoming.CallType != "audio" {
		t.Fatalf("unexpected incoming call: %+v", incoming)
	}
	if string(incoming.Signal) != string(offer) {
		t.Fatalf("signal altered in transit: %s", incoming.Signal)
	}

	answer := json.RawMessage(`{"type":"answer","sdp":"v=0\r\n"}`)
	send(t, ctx, bob, proto.InboundCallAnswer, proto.CallAnswerData{Signal: answer, To: "alice"})

	acceptedOut := readUntil(t, ctx, alice, proto.EventCallAccepted, proto.EventCallIncoming)
	if string(acceptedOut.Data) != string(answer) {
		t.Fatalf("accepted signal = %s, want %s", acceptedOut.Data, answer)
	}

	send(t, ctx, bob, proto.InboundCallEnd, proto.CallEndData{To: "alice"})
	ended := readUntil(t, ctx, alice, proto.EventCallEnded)
	if len(ended.Data) != 0 {
		t.Fatalf("call:ended should carry no data, got %s", ended.Data)
	}
}

func TestWebSocketCallUnreachable(t *testing.T) {
	ts, _ := startTestServer(t, testConfig())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	alice := dial(t, ctx, ts)
	joinAs(t, ctx, alice, "alice")

	send(t, ctx, alice, proto.InboundCallUser, proto.CallUserData{UserToCall: "carol", From: "alice"})

	out := readUntil(t, ctx, alice, proto.EventCallUnreachable)
	var notice proto.CallUnreachable
	if err := json.Unmarshal(out.Data, &notice); err != nil {
		t.Fatalf("unmarshal notice: %v", err)
	}
	if notice.TargetUserID != "carol" || notice.Action != "call_initiate" {
		t.Fatalf("unexpected notice: %+v", notice)
	}
}

func TestWebSocketMalformedPayloadKeepsConnection(t *testing.T) {
	ts, _ := startTestServer(t, testConfig())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, ts)

	send(t, ctx, conn, proto.InboundMessageSend, map[string]any{"conversationId": "conv-1"})
	out := readUntil(t, ctx, conn, proto.OutboundTypeError)
	if out.Error == nil || out.Error.Code != "bad_request" || !strings.Contains(out.Error.Msg, "message is required") {
		t.Fatalf("expected bad_request, got %+v", out.Error)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":`)); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	out = readUntil(t, ctx, conn, proto.OutboundTypeError)
	if out.Error == nil || out.Error.Code != "bad_request" {
		t.Fatalf("expected bad_request for garbage, got %+v", out.Error)
	}

	send(t, ctx, conn, "message:shout", map[string]any{})
	out = readUntil(t, ctx, conn, proto.OutboundTypeError)
	if out.Error == nil || out.Error.Code != "unknown_event" {
		t.Fatalf("expected unknown_event, got %+v", out.Error)
	}

	joinAs(t, ctx, conn, "alice")
}

func TestWebSocketBareStringJoin(t *testing.T) {
	ts, hub := startTestServer(t, testConfig())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, ts)
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundUserJoin, Data: json.RawMessage(`"alice"`)}); err != nil {
		t.Fatalf("send: %v", err)
	}
	readUntil(t, ctx, conn, proto.EventUserStatus)

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundConversationJoin, Data: json.RawMessage(`"conv-9"`)}); err != nil {
		t.Fatalf("send: %v", err)
	}
	waitFor(t, "alice in conv-9", func() bool { return len(hub.Rooms().MembersOf("conv-9")) == 1 })

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundConversationLeave, Data: json.RawMessage(`"conv-9"`)}); err != nil {
		t.Fatalf("send: %v", err)
	}
	waitFor(t, "alice out of conv-9", func() bool { return len(hub.Rooms().MembersOf("conv-9")) == 0 })
}

func TestWebSocketDisconnectAnnouncesOffline(t *testing.T) {
	ts, hub := startTestServer(t, testConfig())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	alice := dial(t, ctx, ts)
	joinAs(t, ctx, alice, "alice", "conv-1")

	bob := dial(t, ctx, ts)
	joinAs(t, ctx, bob, "bob", "conv-1")
	waitFor(t, "bob in conv-1", func() bool { return len(hub.Rooms().MembersOf("conv-1")) == 2 })

	bob.Close(websocket.StatusNormalClosure, "bye")

	for {
		out := readUntil(t, ctx, alice, proto.EventUserStatus)
		var status proto.UserStatus
		if err := json.Unmarshal(out.Data, &status); err != nil {
			t.Fatalf("unmarshal status: %v", err)
		}
		if status.UserID == "bob" && status.Status == "offline" {
			break
		}
	}

	if _, ok := hub.Registry().Lookup("bob"); ok {
		t.Fatal("bob should be unregistered")
	}
	if n := len(hub.Rooms().MembersOf("conv-1")); n != 1 {
		t.Fatalf("expected only alice in conv-1, got %d", n)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	ts, _ := startTestServer(t, testConfig())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	_, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://evil.example"}},
	})
	if err == nil {
		t.Fatal("expected handshake from foreign origin to fail")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://localhost:3000"}},
	})
	if err != nil {
		t.Fatalf("allowed origin should connect: %v", err)
	}
	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	ts, _ := startTestServer(t, cfg)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, ts)
	for i := 0; i < 3; i++ {
		send(t, ctx, conn, proto.InboundConversationJoin, proto.ConversationData{ConversationID: "conv-1"})
	}

	out := readUntil(t, ctx, conn, proto.OutboundTypeError)
	if out.Error == nil || out.Error.Code != "rate_limited" {
		t.Fatalf("expected rate_limited, got %+v", out.Error)
	}
}

func TestOnlineEndpoint(t *testing.T) {
	ts, hub := startTestServer(t, testConfig())

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, ts)
	joinAs(t, ctx, conn, "alice")
	waitFor(t, "alice online", func() bool { return len(hub.Online()) == 1 })

	req := httptest.NewRequest(http.MethodGet, "/api/online", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected CORS header: %q", got)
	}

	var online proto.OnlineUsers
	if err := json.Unmarshal(resp.Body.Bytes(), &online); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(online.Users) != 1 || online.Users[0] != "alice" {
		t.Fatalf("unexpected online users: %v", online.Users)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := startTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/online", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin must not be allowed, got %q", got)
	}
}
