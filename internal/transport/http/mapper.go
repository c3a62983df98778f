package http

import (
	"encoding/json"

	"github.com/vovakirdan/convo-relay/internal/core"
	"github.com/vovakirdan/convo-relay/internal/proto"
)

func badRequest(err error) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: err.Error()}
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundUserJoin:
		var join proto.UserJoinData
		if err := proto.DecodeID(inbound.Data, &join, func(id string) { join.UserID = id }); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{Kind: core.CommandJoinAsUser, User: join.UserID}, nil

	case proto.InboundConversationJoin, proto.InboundConversationLeave:
		var conv proto.ConversationData
		if err := proto.DecodeID(inbound.Data, &conv, func(id string) { conv.ConversationID = id }); err != nil {
			return nil, badRequest(err)
		}
		kind := core.CommandJoinRoom
		if inbound.Type == proto.InboundConversationLeave {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, Room: conv.ConversationID}, nil

	case proto.InboundMessageSend:
		var send proto.SendMessageData
		if err := proto.Decode(inbound.Data, &send); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{
			Kind:    core.CommandSendMessage,
			Room:    send.ConversationID,
			Message: messageFromWire(send.Message),
		}, nil

	case proto.InboundTypingSend:
		var typing proto.TypingData
		if err := proto.Decode(inbound.Data, &typing); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{
			Kind: core.CommandSendTyping,
			Typing: core.Typing{
				ConversationID: typing.ConversationID,
				UserID:         typing.UserID,
				IsTyping:       *typing.IsTyping,
			},
		}, nil

	case proto.InboundCallUser:
		var call proto.CallUserData
		if err := proto.Decode(inbound.Data, &call); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{
			Kind: core.CommandCallInitiate,
			Call: core.CallSignal{
				From:           call.From,
				Target:         call.UserToCall,
				Signal:         call.SignalData,
				ConversationID: call.ConversationID,
				CallType:       core.CallKind(call.CallType),
			},
		}, nil

	case proto.InboundCallAnswer:
		var answer proto.CallAnswerData
		if err := proto.Decode(inbound.Data, &answer); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{
			Kind: core.CommandCallAccept,
			Call: core.CallSignal{Target: answer.To, Signal: answer.Signal},
		}, nil

	case proto.InboundCallEnd:
		var end proto.CallEndData
		if err := proto.Decode(inbound.Data, &end); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{
			Kind: core.CommandCallEnd,
			Call: core.CallSignal{Target: end.To},
		}, nil

	default:
		return nil, &proto.Error{Code: core.ErrCodeUnknownEvent, Msg: "unknown event type " + inbound.Type}
	}
}

func messageFromWire(m *proto.ChatMessage) core.Message {
	return core.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		MediaURL:       m.MediaURL,
		MediaType:      core.MediaKind(m.MediaType),
		Timestamp:      m.Timestamp,
		Status:         core.MessageStatus(m.Status),
		IsDeleted:      m.IsDeleted,
		Extra:          extraFromWire(m.Extra),
	}
}

func messageToWire(m core.Message) proto.ChatMessage {
	return proto.ChatMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		MediaURL:       m.MediaURL,
		MediaType:      string(m.MediaType),
		Timestamp:      m.Timestamp,
		Status:         string(m.Status),
		IsDeleted:      m.IsDeleted,
		Extra:          extraToWire(m.Extra),
	}
}

func extraFromWire(extra map[string]json.RawMessage) map[string][]byte {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(extra))
	for key, value := range extra {
		out[key] = value
	}
	return out
}

func extraToWire(extra map[string][]byte) map[string]json.RawMessage {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for key, value := range extra {
		out[key] = value
	}
	return out
}

func event(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventPresence:
		return event(proto.EventUserStatus, proto.UserStatus{UserID: ev.User, Status: string(ev.Presence)})
	case core.EventMessage:
		return event(proto.EventMessageNew, messageToWire(ev.Message))
	case core.EventMessageAck:
		return event(proto.EventMessageDelivered, proto.MessageAck{
			MessageID: ev.Message.ID,
			Status:    string(ev.Message.Status),
		})
	case core.EventTyping:
		return event(proto.EventUserTyping, proto.UserTyping{
			ConversationID: ev.Typing.ConversationID,
			UserID:         ev.Typing.UserID,
			IsTyping:       ev.Typing.IsTyping,
		})
	case core.EventCallIncoming:
		return event(proto.EventCallIncoming, proto.CallIncoming{
			From:           ev.Call.From,
			Signal:         ev.Call.Signal,
			ConversationID: ev.Call.ConversationID,
			CallType:       string(ev.Call.CallType),
		})
	case core.EventCallAccepted:
		if len(ev.Call.Signal) == 0 {
			return event(proto.EventCallAccepted, nil)
		}
		return event(proto.EventCallAccepted, json.RawMessage(ev.Call.Signal))
	case core.EventCallEnded:
		return event(proto.EventCallEnded, nil)
	case core.EventCallUnreachable:
		return event(proto.EventCallUnreachable, proto.CallUnreachable{
			TargetUserID: ev.Call.Target,
			Action:       ev.Call.Action.String(),
		})
	case core.EventError:
		if ev.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
