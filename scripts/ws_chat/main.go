package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/convo-relay/internal/client"
	"github.com/vovakirdan/convo-relay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "relay WebSocket address")
	user := flag.String("user", "cli-user", "user id")
	conversation := flag.String("conversation", "general", "conversation to join")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, client.Options{URL: *addr, UserID: *user})
	if err != nil {
		return err
	}
	defer c.Close()

	subscribe(c, *user)

	if err := c.JoinConversation(ctx, *conversation); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s in conversation %s\n", *addr, *user, *conversation)
	fmt.Println("Type messages and press Enter to send. Commands: /call <user>, /answer <user>, /end <user>. Ctrl+C to exit.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return fmt.Errorf("connection lost")
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := handleLine(ctx, c, *conversation, strings.TrimSpace(line)); err != nil {
				log.Printf("send: %v", err)
			}
		}
	}
}

func handleLine(ctx context.Context, c *client.Client, conversation, line string) error {
	if line == "" {
		return nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/call":
		return c.CallUser(ctx, proto.CallUserData{UserToCall: arg, ConversationID: conversation, CallType: "audio"})
	case "/answer":
		return c.AnswerCall(ctx, arg, nil)
	case "/end":
		return c.EndCall(ctx, arg)
	}

	_ = c.SendTyping(ctx, conversation, false)
	return c.SendMessage(ctx, conversation, proto.ChatMessage{
		ID:        uuid.NewString(),
		Content:   line,
		Timestamp: time.Now().UTC(),
		Status:    "sending",
	})
}

func subscribe(c *client.Client, self string) {
	c.On(client.EventDisconnect, func(json.RawMessage) { fmt.Println("[disconnected]") })
	c.On(client.EventConnect, func(json.RawMessage) { fmt.Println("[reconnected]") })

	c.On(proto.EventMessageNew, func(data json.RawMessage) {
		var msg proto.ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		if msg.SenderID == self {
			return
		}
		fmt.Printf("[%s] %s: %s\n", msg.ConversationID, msg.SenderID, msg.Content)
	})
	c.On(proto.EventUserStatus, func(data json.RawMessage) {
		var status proto.UserStatus
		if err := json.Unmarshal(data, &status); err == nil && status.UserID != self {
			fmt.Printf("* %s is %s\n", status.UserID, status.Status)
		}
	})
	c.On(proto.EventUserTyping, func(data json.RawMessage) {
		var typing proto.UserTyping
		if err := json.Unmarshal(data, &typing); err == nil && typing.IsTyping {
			fmt.Printf("* %s is typing...\n", typing.UserID)
		}
	})
	c.On(proto.EventCallIncoming, func(data json.RawMessage) {
		var call proto.CallIncoming
		if err := json.Unmarshal(data, &call); err == nil {
			fmt.Printf("* incoming %s call from %s (/answer %s)\n", call.CallType, call.From, call.From)
		}
	})
	c.On(proto.EventCallAccepted, func(json.RawMessage) { fmt.Println("* call accepted") })
	c.On(proto.EventCallEnded, func(json.RawMessage) { fmt.Println("* call ended") })
	c.On(proto.EventCallUnreachable, func(data json.RawMessage) {
		var notice proto.CallUnreachable
		if err := json.Unmarshal(data, &notice); err == nil {
			fmt.Printf("* %s is not reachable\n", notice.TargetUserID)
		}
	})
	c.On(client.EventError, func(data json.RawMessage) {
		var relayErr proto.Error
		if err := json.Unmarshal(data, &relayErr); err == nil {
			fmt.Printf("! %s: %s\n", relayErr.Code, relayErr.Msg)
		}
	})
}
