package chat

import (
	"errors"
	"testing"

	"github.com/diogo/klosachat/internal/models"
)

func effectKinds(effects []Effect) []EffectKind {
	kinds := make([]EffectKind, len(effects))
	for i, eff := range effects {
		kinds[i] = eff.Kind
	}
	return kinds
}

func equalKinds(a, b []EffectKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTransition_Submit(t *testing.T) {
	state := State{Draft: "Hello"}

	next, effects := Transition(state, Submit("Hello"))

	if next.Phase != PhaseSending {
		t.Errorf("Phase = %v, want sending", next.Phase)
	}
	if next.Draft != "" {
		t.Errorf("Draft = %q, want cleared", next.Draft)
	}
	if len(next.Messages) != 1 || next.Messages[0] != models.UserMessage("Hello") {
		t.Errorf("Messages = %+v", next.Messages)
	}

	want := []EffectKind{EffectAppendMessage, EffectClearDraft, EffectStartExchange}
	if got := effectKinds(effects); !equalKinds(got, want) {
		t.Fatalf("effects = %v, want %v", got, want)
	}
	history := effects[2].History
	if len(history) != 1 || history[0].Text != "Hello" {
		t.Errorf("exchange history = %+v, want the new user message", history)
	}
}

func TestTransition_SubmitRejected(t *testing.T) {
	tests := []struct {
		name  string
		state State
		text  string
	}{
		{"empty", State{}, ""},
		{"whitespace", State{Draft: "  "}, "  "},
		{"tabs and newlines", State{}, "\t\n "},
		{"while sending", State{Phase: PhaseSending, Messages: []models.Message{models.UserMessage("first")}}, "second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects := Transition(tt.state, Submit(tt.text))
			if len(effects) != 0 {
				t.Errorf("effects = %v, want none", effectKinds(effects))
			}
			if len(next.Messages) != len(tt.state.Messages) {
				t.Errorf("Messages grew to %d", len(next.Messages))
			}
			if next.Phase != tt.state.Phase || next.Draft != tt.state.Draft {
				t.Errorf("state changed: %+v -> %+v", tt.state, next)
			}
		})
	}
}

func TestTransition_Settle(t *testing.T) {
	sending := State{Phase: PhaseSending, Messages: []models.Message{models.UserMessage("Ping")}}

	t.Run("reply", func(t *testing.T) {
		next, effects := Transition(sending, ReplyReceived("Pong"))
		if next.Phase != PhaseIdle {
			t.Errorf("Phase = %v, want idle", next.Phase)
		}
		if len(next.Messages) != 2 || next.Messages[1] != models.AssistantMessage("Pong") {
			t.Errorf("Messages = %+v", next.Messages)
		}
		if len(effects) != 1 || effects[0].Err != nil {
			t.Errorf("effects = %+v", effects)
		}
	})

	t.Run("failure", func(t *testing.T) {
		cause := errors.New("boom")
		next, effects := Transition(sending, ExchangeFailed(cause))
		if next.Phase != PhaseIdle {
			t.Errorf("Phase = %v, want idle", next.Phase)
		}
		if len(next.Messages) != 2 || next.Messages[1] != models.AssistantMessage(models.FallbackMessage) {
			t.Errorf("Messages = %+v", next.Messages)
		}
		if len(effects) != 1 || !errors.Is(effects[0].Err, cause) {
			t.Errorf("effects = %+v, want fallback append carrying the cause", effects)
		}
	})

	t.Run("ignored when idle", func(t *testing.T) {
		idle := State{Messages: []models.Message{models.UserMessage("x")}}
		for _, ev := range []Event{ReplyReceived("late"), ExchangeFailed(errors.New("late"))} {
			next, effects := Transition(idle, ev)
			if len(effects) != 0 || len(next.Messages) != 1 {
				t.Errorf("event %v should be ignored while idle", ev.Kind)
			}
		}
	})
}

func TestTransition_DraftChangedWhileSending(t *testing.T) {
	sending := State{Phase: PhaseSending}
	next, effects := Transition(sending, DraftChanged("typing ahead"))
	if next.Draft != "typing ahead" {
		t.Errorf("Draft = %q, want draft edits allowed while sending", next.Draft)
	}
	if next.Phase != PhaseSending {
		t.Error("draft change must not leave sending")
	}
	if len(effects) != 0 {
		t.Errorf("effects = %v, want none", effectKinds(effects))
	}
}

func TestTransition_Reset(t *testing.T) {
	idle := State{Draft: "keep", Messages: []models.Message{models.UserMessage("a"), models.AssistantMessage("b")}}
	next, effects := Transition(idle, Reset())
	if len(next.Messages) != 0 {
		t.Errorf("Messages = %+v, want empty", next.Messages)
	}
	if next.Draft != "keep" {
		t.Errorf("Draft = %q, reset should keep the draft", next.Draft)
	}
	if len(effects) != 1 || effects[0].Kind != EffectReset {
		t.Errorf("effects = %v", effectKinds(effects))
	}

	sending := State{Phase: PhaseSending, Messages: []models.Message{models.UserMessage("a")}}
	next, effects = Transition(sending, Reset())
	if len(effects) != 0 || len(next.Messages) != 1 {
		t.Error("reset must be ignored while sending")
	}
}

func TestTransition_DoesNotAliasPreviousState(t *testing.T) {
	base := make([]models.Message, 1, 8)
	base[0] = models.UserMessage("one")
	state := State{Messages: base}

	next, _ := Transition(state, Submit("two"))
	next.Messages[0] = models.UserMessage("mutated")

	if state.Messages[0].Text != "one" {
		t.Error("Transition must not share the backing array with its input")
	}
}

func TestPhaseAndEffectStrings(t *testing.T) {
	if PhaseIdle.String() != "idle" || PhaseSending.String() != "sending" {
		t.Error("unexpected phase names")
	}
	if EffectStartExchange.String() != "start_exchange" || EffectKind(99).String() != "unknown" {
		t.Error("unexpected effect names")
	}
}
