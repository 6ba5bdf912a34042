// Package chat implements the conversation controller: the message log, the
// draft, and the Idle/Sending state machine around a single exchange.
package chat

import (
	"slices"
	"strings"

	"github.com/diogo/klosachat/internal/models"
)

// Phase is the controller's position in the exchange cycle
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
)

func (p Phase) String() string {
	if p == PhaseSending {
		return "sending"
	}
	return "idle"
}

// State is a snapshot of the conversation and interaction state.
// Transition never mutates the Messages slice of the state it is given.
type State struct {
	Messages []models.Message
	Draft    string
	Phase    Phase
}

// Sending reports whether an exchange is in flight
func (s State) Sending() bool {
	return s.Phase == PhaseSending
}

// EventKind identifies an input to the state machine
type EventKind int

const (
	EventDraftChanged EventKind = iota
	EventSubmit
	EventReplyReceived
	EventExchangeFailed
	EventReset
)

// Event is an input to Transition
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// DraftChanged replaces the draft
func DraftChanged(text string) Event {
	return Event{Kind: EventDraftChanged, Text: text}
}

// Submit asks to send text as the next user message
func Submit(text string) Event {
	return Event{Kind: EventSubmit, Text: text}
}

// ReplyReceived settles the in-flight exchange with a reply
func ReplyReceived(reply string) Event {
	return Event{Kind: EventReplyReceived, Text: reply}
}

// ExchangeFailed settles the in-flight exchange with an error
func ExchangeFailed(err error) Event {
	return Event{Kind: EventExchangeFailed, Err: err}
}

// Reset starts a new, empty conversation
func Reset() Event {
	return Event{Kind: EventReset}
}

// EffectKind identifies a side effect produced by a transition
type EffectKind int

const (
	EffectAppendMessage EffectKind = iota
	EffectClearDraft
	EffectStartExchange
	EffectReset
)

func (k EffectKind) String() string {
	switch k {
	case EffectAppendMessage:
		return "append_message"
	case EffectClearDraft:
		return "clear_draft"
	case EffectStartExchange:
		return "start_exchange"
	case EffectReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Effect describes something a transition did or asks the caller to do.
// EffectStartExchange carries the history to send; the caller owns the
// network call and reports back with ReplyReceived or ExchangeFailed.
type Effect struct {
	Kind    EffectKind
	Message models.Message
	History []models.Message
	Err     error
}

// CanSubmit reports whether text would be accepted in state s
func CanSubmit(s State, text string) bool {
	return !s.Sending() && strings.TrimSpace(text) != ""
}

// Transition computes the next state and the effects of applying ev to s.
// Events that are not valid in the current phase leave s unchanged and
// produce no effects.
func Transition(s State, ev Event) (State, []Effect) {
	switch ev.Kind {
	case EventDraftChanged:
		s.Draft = ev.Text
		return s, nil

	case EventSubmit:
		if !CanSubmit(s, ev.Text) {
			return s, nil
		}
		msg := models.UserMessage(ev.Text)
		s.Messages = appendMessage(s.Messages, msg)
		s.Draft = ""
		s.Phase = PhaseSending
		return s, []Effect{
			{Kind: EffectAppendMessage, Message: msg},
			{Kind: EffectClearDraft},
			{Kind: EffectStartExchange, History: slices.Clone(s.Messages)},
		}

	case EventReplyReceived:
		if !s.Sending() {
			return s, nil
		}
		msg := models.AssistantMessage(ev.Text)
		s.Messages = appendMessage(s.Messages, msg)
		s.Phase = PhaseIdle
		return s, []Effect{{Kind: EffectAppendMessage, Message: msg}}

	case EventExchangeFailed:
		if !s.Sending() {
			return s, nil
		}
		msg := models.AssistantMessage(models.FallbackMessage)
		s.Messages = appendMessage(s.Messages, msg)
		s.Phase = PhaseIdle
		return s, []Effect{{Kind: EffectAppendMessage, Message: msg, Err: ev.Err}}

	case EventReset:
		if s.Sending() {
			return s, nil
		}
		return State{Draft: s.Draft}, []Effect{{Kind: EffectReset}}
	}

	return s, nil
}

// appendMessage returns a new slice so earlier snapshots stay intact
func appendMessage(messages []models.Message, msg models.Message) []models.Message {
	next := make([]models.Message, len(messages), len(messages)+1)
	copy(next, messages)
	return append(next, msg)
}
