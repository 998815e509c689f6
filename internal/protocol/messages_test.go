package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseClientMessageUserMessage(t *testing.T) {
	raw := []byte(`{"type":"user_message","text":"recuérdame pagar la luz","request_id":"r1","ts_ms":123}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	um, ok := msg.(UserMessage)
	if !ok {
		t.Fatalf("message type = %T, want UserMessage", msg)
	}
	if um.Text != "recuérdame pagar la luz" || um.RequestID != "r1" {
		t.Fatalf("unexpected user message: %+v", um)
	}
	if um.TSMs != 123 {
		t.Fatalf("TSMs = %d, want %d", um.TSMs, 123)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsBlankText(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{"type":"user_message","text":"   "}`)); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := ParseClientMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected envelope error")
	}
}

func TestOutboundFramesCarryType(t *testing.T) {
	raw, err := json.Marshal(NewErrorEvent("r2", "turn_failed", "boom", true))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if env.Type != TypeErrorEvent {
		t.Fatalf("Type = %q, want %q", env.Type, TypeErrorEvent)
	}
	if typ, ok := TypeOf(NewAssistantReply("r3", map[string]string{"action": "chat"})); !ok || typ != TypeAssistantReply {
		t.Fatalf("TypeOf() = %q, %v", typ, ok)
	}
}

func BenchmarkParseClientMessageUserMessage(b *testing.B) {
	raw := []byte(`{"type":"user_message","text":"agenda una reunión mañana a las 10:30","request_id":"r7"}`)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		msg, err := ParseClientMessage(raw)
		if err != nil {
			b.Fatalf("ParseClientMessage() error = %v", err)
		}
		if _, ok := msg.(UserMessage); !ok {
			b.Fatalf("message type = %T, want UserMessage", msg)
		}
	}
}
