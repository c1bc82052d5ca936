package game

import (
	"encoding/json"
	"fmt"
)

// Message type for the WebSocket notification relay between a browser session
// and the server.
type MessageType string

const (
	MsgTypeHello   MessageType = "hello"   // Client opens a relay session
	MsgTypeWelcome MessageType = "welcome" // Server assigns the session ID
	MsgTypeEvent   MessageType = "event"   // Client forwards a game notification
	MsgTypeError   MessageType = "error"   // Server sends an error message
)

// WsMessage represents a WebSocket message.
type WsMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewWsMessage creates a new WsMessage with a marshaled payload.
func NewWsMessage(msgType MessageType, payload interface{}) (WsMessage, error) {
	if payload == nil {
		return WsMessage{Type: msgType}, nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return WsMessage{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return WsMessage{
		Type:    msgType,
		Payload: payloadBytes,
	}, nil
}

// Parse unmarshals the message payload into one of the message types (HelloMessage, EventMessage, etc.)
func (m *WsMessage) Parse() (any, error) {
	var target any
	switch m.Type {
	case MsgTypeHello:
		target = &HelloMessage{}
	case MsgTypeWelcome:
		target = &WelcomeMessage{}
	case MsgTypeEvent:
		target = &EventMessage{}
	case MsgTypeError:
		target = &ErrorMessage{}
	default:
		return nil, fmt.Errorf("unknown message type: %s", m.Type)
	}

	if len(m.Payload) == 0 {
		return target, nil
	}

	err := json.Unmarshal(m.Payload, target)
	return target, err
}

// HelloMessage is the payload for MsgTypeHello
type HelloMessage struct {
	Version   string `json:"version"`
	TileSet   string `json:"tile_set"`
	GroupSize int    `json:"group_size"`
}

// WelcomeMessage is the payload for MsgTypeWelcome
type WelcomeMessage struct {
	SessionID string `json:"session_id"`
}

// EventMessage is the payload for MsgTypeEvent
type EventMessage struct {
	Name      string         `json:"name"`                 // Full notification name, e.g. "mge:over"
	StartedMs int64          `json:"started_ms,omitempty"` // Set for started events
	Attempt   *AttemptDetail `json:"attempt,omitempty"`
	Over      *OverDetail    `json:"over,omitempty"`
}

// NewEventMessage converts a controller notification to its relay payload.
func NewEventMessage(e Event) EventMessage {
	msg := EventMessage{Name: e.Name(), Attempt: e.Attempt, Over: e.Over}
	if e.Kind == EventStarted {
		msg.StartedMs = e.Started.UnixMilli()
	}
	return msg
}

// ErrorMessage is the payload for MsgTypeError
type ErrorMessage struct {
	Message string `json:"message"`
}
