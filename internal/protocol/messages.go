package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeUserMessage    MessageType = "user_message"
	TypeAssistantReply MessageType = "assistant_reply"
	TypeErrorEvent     MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserMessage is one utterance sent over the chat channel.
type UserMessage struct {
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	RequestID string      `json:"request_id,omitempty"`
	TSMs      int64       `json:"ts_ms,omitempty"`
}

// AssistantReply wraps a turn result. Reply is the same object POST /v1/chat
// answers with.
type AssistantReply struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Reply     any         `json:"reply"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func NewAssistantReply(requestID string, reply any) AssistantReply {
	return AssistantReply{Type: TypeAssistantReply, RequestID: requestID, Reply: reply}
}

func NewErrorEvent(requestID, code, detail string, retryable bool) ErrorEvent {
	return ErrorEvent{
		Type:      TypeErrorEvent,
		RequestID: requestID,
		Code:      code,
		Retryable: retryable,
		Detail:    detail,
	}
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeUserMessage:
		var msg UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid user_message: text is required")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// TypeOf reports the frame type of a parsed or outgoing message.
func TypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case UserMessage:
		return m.Type, true
	case AssistantReply:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
