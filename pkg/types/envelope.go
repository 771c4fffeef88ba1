package types

import (
	"encoding/json"
)

// Envelope is the inbound wire format. Payload stays raw until the router
// knows which variant to decode it into.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound is the outbound wire format. Payload is marshaled by the
// connection's writer.
type Outbound struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewOutbound wraps a payload in the outbound envelope.
func NewOutbound(msgType string, payload interface{}) *Outbound {
	return &Outbound{Type: msgType, Payload: payload}
}

// ParseEnvelope decodes an inbound frame. Unknown types are not an error
// here; the router drops them silently per the authorization policy.
// FUNCTIONAL DISCOVERY: oversized frames rejected before JSON decoding so a
// hostile client cannot force large allocations
func ParseEnvelope(data []byte) (*Envelope, error) {
	if len(data) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedEnvelope
	}
	if env.Type == "" {
		return nil, ErrMalformedEnvelope
	}
	return &env, nil
}

// DecodePayload unmarshals the raw payload into the given variant struct.
func (e *Envelope) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		// Types like RAISE_HAND and TOGGLE_FREEZE legitimately carry none.
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return ErrMalformedPayload
	}
	return nil
}

// IsInboundMessageType reports whether the type string is part of the
// inbound catalogue.
func IsInboundMessageType(msgType string) bool {
	switch msgType {
	case MessageTypePrivateMessage,
		MessageTypeHomeworkCodeUpdate,
		MessageTypeHomeworkTerminalIn,
		MessageTypeRaiseHand,
		MessageTypeToggleWhiteboard,
		MessageTypeWhiteboardDraw,
		MessageTypeWhiteboardClear,
		MessageTypeTakeControl,
		MessageTypeToggleFreeze,
		MessageTypeTeacherDirectEdit,
		MessageTypeSpotlightStudent,
		MessageTypeTeacherCodeUpdate,
		MessageTypeAssignHomework,
		MessageTypeTerminalIn,
		MessageTypeRunCode:
		return true
	default:
		return false
	}
}
