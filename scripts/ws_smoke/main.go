package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/convo-relay/internal/client"
	"github.com/vovakirdan/convo-relay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "relay WebSocket address")
	user := flag.String("user", "tester", "user id to announce")
	conversation := flag.String("conversation", "general", "conversation id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := client.Dial(ctx, client.Options{URL: *addr, UserID: *user, ReconnectAttempts: -1})
	if err != nil {
		return err
	}
	defer c.Close()

	delivered := make(chan proto.MessageAck, 1)
	failed := make(chan proto.Error, 1)

	c.On(proto.EventUserStatus, func(data json.RawMessage) {
		var status proto.UserStatus
		if err := json.Unmarshal(data, &status); err == nil {
			fmt.Printf("Status: user=%s %s\n", status.UserID, status.Status)
		}
	})
	c.On(proto.EventMessageNew, func(data json.RawMessage) {
		var msg proto.ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			fmt.Printf("Raw data: %s\n", string(data))
			return
		}
		fmt.Printf("Message: conversation=%s sender=%s content=%q status=%s\n",
			msg.ConversationID, msg.SenderID, msg.Content, msg.Status)
	})
	c.On(proto.EventMessageDelivered, func(data json.RawMessage) {
		var ack proto.MessageAck
		if err := json.Unmarshal(data, &ack); err == nil {
			select {
			case delivered <- ack:
			default:
			}
		}
	})
	c.On(client.EventError, func(data json.RawMessage) {
		var relayErr proto.Error
		if err := json.Unmarshal(data, &relayErr); err == nil {
			select {
			case failed <- relayErr:
			default:
			}
		}
	})

	if err := c.JoinConversation(ctx, *conversation); err != nil {
		return err
	}
	msg := proto.ChatMessage{
		ID:        uuid.NewString(),
		Content:   *text,
		Timestamp: time.Now().UTC(),
		Status:    "sending",
	}
	if err := c.SendMessage(ctx, *conversation, msg); err != nil {
		return err
	}

	select {
	case ack := <-delivered:
		fmt.Printf("Delivered: id=%s status=%s\n", ack.MessageID, ack.Status)
		return nil
	case relayErr := <-failed:
		return fmt.Errorf("relay error %s: %s", relayErr.Code, relayErr.Msg)
	case <-c.Done():
		return errors.New("connection closed before delivery")
	case <-ctx.Done():
		return fmt.Errorf("waiting for delivery: %w", ctx.Err())
	}
}
