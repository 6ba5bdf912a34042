package chat

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diogo/klosachat/internal/models"
)

// Exchanger performs one request/response cycle with the endpoint
type Exchanger interface {
	Exchange(ctx context.Context, history []models.Message) (string, error)
}

// ExchangeFunc adapts a function to Exchanger
type ExchangeFunc func(ctx context.Context, history []models.Message) (string, error)

// Exchange calls f
func (f ExchangeFunc) Exchange(ctx context.Context, history []models.Message) (string, error) {
	return f(ctx, history)
}

// Controller owns a conversation and serializes transitions on it.
// The lock is never held during an exchange, so the draft can be edited
// while a reply is pending.
type Controller struct {
	mu        sync.Mutex
	state     State
	sessionID string
	lastErr   error

	exchanger Exchanger
	observers []func(Effect)
	baseLog   zerolog.Logger
	log       zerolog.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.baseLog = logger
	}
}

// WithObserver registers fn to be called with every effect, in order,
// after the transition that produced it
func WithObserver(fn func(Effect)) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// WithSessionID overrides the generated session id
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// NewController creates an idle controller with an empty conversation
func NewController(exchanger Exchanger, opts ...Option) *Controller {
	c := &Controller{
		exchanger: exchanger,
		sessionID: newSessionID(),
		baseLog:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.baseLog.With().Str("session", c.sessionID).Logger()
	return c
}

func newSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// apply runs one transition under the lock and notifies observers after
// releasing it
func (c *Controller) apply(ev Event) []Effect {
	c.mu.Lock()
	next, effects := Transition(c.state, ev)
	c.state = next
	for _, eff := range effects {
		switch eff.Kind {
		case EffectAppendMessage:
			if eff.Message.Sender == models.SenderAssistant {
				c.lastErr = eff.Err
			}
		case EffectReset:
			c.sessionID = newSessionID()
			c.lastErr = nil
			c.log = c.baseLog.With().Str("session", c.sessionID).Logger()
		}
	}
	observers := c.observers
	c.mu.Unlock()

	for _, eff := range effects {
		for _, fn := range observers {
			fn(eff)
		}
	}
	return effects
}

// logger returns a copy of the session logger
func (c *Controller) logger() *zerolog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.log
	return &l
}

// UpdateDraft replaces the draft text. It is allowed in every phase.
func (c *Controller) UpdateDraft(text string) {
	c.apply(DraftChanged(text))
}

// Begin submits text and, when accepted, returns the history to send.
// The caller must later report the outcome with Settle. A rejected submit
// leaves the state untouched, draft included.
func (c *Controller) Begin(text string) ([]models.Message, bool) {
	for _, eff := range c.apply(Submit(text)) {
		if eff.Kind == EffectStartExchange {
			c.logger().Debug().Int("messages", len(eff.History)).Msg("submit accepted")
			return eff.History, true
		}
	}

	c.logger().Debug().Bool("sending", c.Sending()).Msg("submit ignored")
	return nil, false
}

// Settle completes the in-flight exchange. A nil err appends reply; any
// error appends the fallback message instead.
func (c *Controller) Settle(reply string, err error) {
	if err != nil {
		c.logger().Warn().Err(err).Msg("exchange failed")
		c.apply(ExchangeFailed(err))
		return
	}
	c.apply(ReplyReceived(reply))
}

// Submit performs a full exchange for text and blocks until it settles.
// It returns false without side effects when text is blank or another
// exchange is in flight. Exchange failures are not
// returned; they become the fallback message and are kept in LastError.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	history, ok := c.Begin(text)
	if !ok {
		return false
	}

	reply, err := c.Send(ctx, history)
	c.Settle(reply, err)
	return true
}

// Send runs the exchange for a history returned by Begin. It does not
// touch the conversation; report the result with Settle.
func (c *Controller) Send(ctx context.Context, history []models.Message) (string, error) {
	return c.exchanger.Exchange(ctx, history)
}

// Reset starts a new conversation with a new session id.
// It returns false while an exchange is in flight.
func (c *Controller) Reset() bool {
	return len(c.apply(Reset())) > 0
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Messages = slices.Clone(c.state.Messages)
	return s
}

// Messages returns a copy of the conversation
func (c *Controller) Messages() []models.Message {
	return c.State().Messages
}

// Draft returns the current draft text
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Draft
}

// Sending reports whether an exchange is in flight
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Sending()
}

// LastError returns the error behind the most recent fallback message, or
// nil if the latest assistant message was a real reply
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LastReply returns the text of the latest assistant message
func (c *Controller) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.state.Messages) - 1; i >= 0; i-- {
		if c.state.Messages[i].Sender == models.SenderAssistant {
			return c.state.Messages[i].Text, true
		}
	}
	return "", false
}

// SessionID returns the id of the current conversation
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}
