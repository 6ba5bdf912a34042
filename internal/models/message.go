package models

import (
	"encoding/json"
	"fmt"
)

// Sender identifies who authored a message. The values are the ones the
// endpoint expects in replayed history.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "bot"
)

// Valid reports whether s is a known sender
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Label returns the display name for the sender
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "Assistant"
}

// Message is a single immutable entry of a conversation
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// UserMessage creates a message authored by the user
func UserMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text}
}

// AssistantMessage creates a message authored by the assistant
func AssistantMessage(text string) Message {
	return Message{Sender: SenderAssistant, Text: text}
}

// ExchangeRequest is the JSON body POSTed to the endpoint.
// Message holds the whole history serialized as a JSON array string.
type ExchangeRequest struct {
	Message string `json:"message"`
}

// EncodeHistory serializes the ordered history into the string carried by
// ExchangeRequest.Message
func EncodeHistory(history []Message) (string, error) {
	if history == nil {
		history = []Message{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}
	return string(data), nil
}

// DecodeHistory is the inverse of EncodeHistory
func DecodeHistory(encoded string) ([]Message, error) {
	var history []Message
	if err := json.Unmarshal([]byte(encoded), &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return history, nil
}

// NewExchangeRequest builds the request body for history
func NewExchangeRequest(history []Message) (*ExchangeRequest, error) {
	encoded, err := EncodeHistory(history)
	if err != nil {
		return nil, err
	}
	return &ExchangeRequest{Message: encoded}, nil
}
