package models

import (
	"encoding/json"
	"testing"
)

func TestEncodeHistory(t *testing.T) {
	history := []Message{
		UserMessage("Hello"),
		AssistantMessage("Hi there!"),
		UserMessage(`quote " and <b>tags</b>`),
	}

	encoded, err := EncodeHistory(history)
	if err != nil {
		t.Fatalf("EncodeHistory() error = %v", err)
	}

	decoded, err := DecodeHistory(encoded)
	if err != nil {
		t.Fatalf("DecodeHistory() error = %v", err)
	}

	if len(decoded) != len(history) {
		t.Fatalf("decoded %d messages, want %d", len(decoded), len(history))
	}
	for i := range history {
		if decoded[i] != history[i] {
			t.Errorf("message %d = %+v, want %+v", i, decoded[i], history[i])
		}
	}
}

func TestEncodeHistory_WireShape(t *testing.T) {
	encoded, err := EncodeHistory([]Message{UserMessage("Hello")})
	if err != nil {
		t.Fatalf("EncodeHistory() error = %v", err)
	}

	want := `[{"sender":"user","text":"Hello"}]`
	if encoded != want {
		t.Errorf("EncodeHistory() = %s, want %s", encoded, want)
	}
}

func TestEncodeHistory_ReplySender(t *testing.T) {
	encoded, err := EncodeHistory([]Message{UserMessage("Hello"), AssistantMessage("Hi there!")})
	if err != nil {
		t.Fatalf("EncodeHistory() error = %v", err)
	}

	want := `[{"sender":"user","text":"Hello"},{"sender":"bot","text":"Hi there!"}]`
	if encoded != want {
		t.Errorf("EncodeHistory() = %s, want %s", encoded, want)
	}
}

func TestEncodeHistory_Nil(t *testing.T) {
	encoded, err := EncodeHistory(nil)
	if err != nil {
		t.Fatalf("EncodeHistory(nil) error = %v", err)
	}
	if encoded != "[]" {
		t.Errorf("EncodeHistory(nil) = %s, want []", encoded)
	}
}

func TestNewExchangeRequest(t *testing.T) {
	req, err := NewExchangeRequest([]Message{UserMessage("Ping")})
	if err != nil {
		t.Fatalf("NewExchangeRequest() error = %v", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	want := `{"message":"[{\"sender\":\"user\",\"text\":\"Ping\"}]"}`
	if string(body) != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestSender(t *testing.T) {
	if !SenderUser.Valid() || !SenderAssistant.Valid() {
		t.Error("known senders should be valid")
	}
	if Sender("assistant").Valid() || Sender("").Valid() {
		t.Error("unknown sender should be invalid")
	}
	if SenderUser.Label() != "You" {
		t.Errorf("SenderUser.Label() = %q", SenderUser.Label())
	}
	if SenderAssistant.Label() != "Assistant" {
		t.Errorf("SenderAssistant.Label() = %q", SenderAssistant.Label())
	}
}

func TestDecodeHistory_Invalid(t *testing.T) {
	if _, err := DecodeHistory("not json"); err == nil {
		t.Error("DecodeHistory() should fail on invalid JSON")
	}
}
