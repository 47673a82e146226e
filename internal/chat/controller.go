// Package chat implements the chat turn controller shared by every surface.
//
// A turn goes Idle -> UserMessageShown -> AwaitingReply -> ReplyShown -> Idle.
// The controller never holds conversation state of its own; the View is the
// only record of what has been said.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/nutribuddy/internal/logging"
	"github.com/diogo/nutribuddy/internal/models"
)

var (
	// ErrEmptyInput is returned by SubmitTurn when the input is blank
	ErrEmptyInput = errors.New("input is empty")
	// ErrTurnInFlight is returned by SubmitTurn while another turn is running
	ErrTurnInFlight = errors.New("a turn is already in flight")
)

// View is the rendering surface driven by the controller
type View interface {
	// Input returns the current value of the input field.
	Input() string
	// ClearInput empties the input field.
	ClearInput()
	// Append adds msg at the end of the message list.
	Append(msg models.Message)
	// Remove deletes the message with the given ID from the list.
	Remove(id string)
	// ScrollToEnd brings the newest message into view.
	ScrollToEnd()
	// SetBusy disables (true) or re-enables (false) input and sending.
	SetBusy(busy bool)
}

// Replier sends one message to the backend and returns its reply
type Replier interface {
	SendMessage(ctx context.Context, message string) (string, error)
}

// State is the per-turn state of the controller
type State int32

const (
	StateIdle State = iota
	StateUserMessageShown
	StateAwaitingReply
	StateReplyShown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUserMessageShown:
		return "user_message_shown"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateReplyShown:
		return "reply_shown"
	default:
		return "unknown"
	}
}

// Controller runs chat turns against a View and a Replier
type Controller struct {
	view     View
	client   Replier
	logger   *zap.Logger
	timeout  time.Duration
	fallback string

	inFlight atomic.Bool
	state    atomic.Int32
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger used for reply diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.OrNop(logger)
	}
}

// WithTimeout bounds each reply request; zero leaves requests bounded only
// by the caller's context
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

// WithFallback overrides the text shown when no reply can be obtained
func WithFallback(text string) Option {
	return func(c *Controller) {
		if text != "" {
			c.fallback = text
		}
	}
}

// NewController creates a controller for view using client as the transport
func NewController(view View, client Replier, opts ...Option) *Controller {
	c := &Controller{
		view:     view,
		client:   client,
		logger:   zap.NewNop(),
		fallback: models.FallbackReply,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current turn state
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Busy reports whether a turn is in flight
func (c *Controller) Busy() bool {
	return c.inFlight.Load()
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
}

// Render appends a message for text attributed to sender and scrolls to it.
// Text is treated as untrusted and sanitized first.
func (c *Controller) Render(text string, sender models.Sender) {
	c.render(models.NewMessage(Sanitize(text), sender))
}

func (c *Controller) render(msg models.Message) string {
	c.view.Append(msg)
	c.view.ScrollToEnd()
	return msg.ID
}

// SubmitTurn runs one full turn for the current input. Blank input is a
// no-op (ErrEmptyInput); a call while another turn runs is rejected with
// ErrTurnInFlight and leaves the view untouched.
func (c *Controller) SubmitTurn(ctx context.Context) error {
	text := strings.TrimSpace(c.view.Input())
	if text == "" {
		return ErrEmptyInput
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrTurnInFlight
	}
	defer c.inFlight.Store(false)

	c.view.SetBusy(true)
	defer c.view.SetBusy(false)

	c.Render(text, models.SenderUser)
	c.view.ClearInput()
	c.setState(StateUserMessageShown)

	placeholderID := c.render(models.NewPlaceholder())
	c.setState(StateAwaitingReply)

	reply := c.RequestReply(ctx, text)

	c.view.Remove(placeholderID)
	c.Render(reply, models.SenderBot)
	c.setState(StateReplyShown)

	c.setState(StateIdle)
	return nil
}

// RequestReply sends message to the backend. It never fails: any error is
// logged and replaced by the fallback text.
func (c *Controller) RequestReply(ctx context.Context, message string) string {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.client.SendMessage(ctx, message)
	if err != nil {
		c.logger.Debug("reply unavailable",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return c.fallback
	}

	c.logger.Debug("reply received",
		zap.Int("length", len(reply)),
		zap.Duration("elapsed", time.Since(start)))
	return reply
}

// HandleKey maps a key press to an action. Only a bare Enter submits; Enter
// with Shift (or Alt, the usual terminal stand-in) is left to the input.
func (c *Controller) HandleKey(ctx context.Context, key string) error {
	if !IsSubmitKey(key) {
		return nil
	}
	return c.SubmitTurn(ctx)
}

// IsSubmitKey reports whether key should submit the current input
func IsSubmitKey(key string) bool {
	return key == "enter"
}
