package types

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
		want    string
	}{
		{
			name: "valid message with payload",
			data: []byte(`{"type":"RAISE_HAND","payload":{}}`),
			want: "RAISE_HAND",
		},
		{
			name: "valid message without payload",
			data: []byte(`{"type":"TOGGLE_FREEZE"}`),
			want: "TOGGLE_FREEZE",
		},
		{
			name:    "invalid JSON",
			data:    []byte(`{"type":`),
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "missing type",
			data:    []byte(`{"payload":{"to":"student-1"}}`),
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "empty frame",
			data:    []byte(``),
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "oversized frame",
			data:    bytes.Repeat([]byte("a"), MaxMessageSize+1),
			wantErr: ErrMessageTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if env.Type != tt.want {
				t.Errorf("Expected type %s, got %s", tt.want, env.Type)
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"PRIVATE_MESSAGE","payload":{"to":"student-1","text":"hello"}}`))
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}

	var p PrivateMessagePayload
	if err := env.DecodePayload(&p); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if p.To != "student-1" {
		t.Errorf("Expected recipient student-1, got %s", p.To)
	}
	if p.Text != "hello" {
		t.Errorf("Expected text hello, got %s", p.Text)
	}
}

func TestDecodePayloadAbsent(t *testing.T) {
	// A missing payload decodes to the zero value rather than erroring, so
	// payload-free types like TOGGLE_FREEZE share the same path.
	env, err := ParseEnvelope([]byte(`{"type":"TOGGLE_FREEZE"}`))
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}

	var p TakeControlPayload
	if err := env.DecodePayload(&p); err != nil {
		t.Errorf("Expected zero-value decode for absent payload, got error: %v", err)
	}
	if p.StudentID != "" {
		t.Errorf("Expected empty student ID, got %s", p.StudentID)
	}
}

func TestDecodePayloadMalformed(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"TAKE_CONTROL","payload":"not-an-object"}`))
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}

	var p TakeControlPayload
	if err := env.DecodePayload(&p); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("Expected ErrMalformedPayload, got %v", err)
	}
}

func TestIsInboundMessageType(t *testing.T) {
	inbound := []string{
		MessageTypePrivateMessage,
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
		MessageTypeRunCode,
	}
	for _, msgType := range inbound {
		if !IsInboundMessageType(msgType) {
			t.Errorf("Expected %s to be a recognized inbound type", msgType)
		}
	}

	for _, msgType := range []string{"", "INIT_STATE", "SESSION_ENDED", "raise_hand"} {
		if IsInboundMessageType(msgType) {
			t.Errorf("Expected %q to be rejected as an inbound type", msgType)
		}
	}
}
