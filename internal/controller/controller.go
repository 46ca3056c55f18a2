// Package controller wires user actions to the conversation view and the request
// gateway: submitting text, resetting the conversation, the menu and code copy.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"gemichat/internal/gateway"
	"gemichat/internal/logger"
	"gemichat/internal/view"
	"gemichat/pkg/chattypes"
)

// Kind tells which request a Pending belongs to.
type Kind int

const (
	// KindChat is a submitted message.
	KindChat Kind = iota
	// KindReset is a conversation reset.
	KindReset
)

func (k Kind) String() string {
	if k == KindReset {
		return "reset"
	}
	return "chat"
}

// State is the submission state.
type State int

const (
	// StateIdle accepts new submissions.
	StateIdle State = iota
	// StateSending waits for a request to settle.
	StateSending
)

func (s State) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// Input is what the user entered.
type Input struct {
	Text      string
	ImagePath string // optional attachment
}

// Pending is an issued request. Results yields exactly one result.
type Pending struct {
	Kind    Kind
	Results <-chan gateway.Result
}

// Requester sends requests to the backend.
type Requester interface {
	SendChat(ctx context.Context, message string, image *chattypes.Image, token string) (<-chan gateway.Result, error)
	SendReset(ctx context.Context, token string) (<-chan gateway.Result, error)
	IsLoading() bool
	Guarded() bool
}

// TokenSource returns the session token.
type TokenSource interface {
	GetOrCreateToken() string
}

// Conversation is the displayed conversation.
type Conversation interface {
	AppendMessage(msg chattypes.Message) *view.Bubble
	Clear()
	ToggleMenu()
	CloseMenu()
	OnContainerClick(line, column int) (bool, error)
	CopyLastCode() (bool, error)
}

// InputField is the text entry cleared after a successful submit.
type InputField interface {
	Clear()
}

// ImageLoader reads an attachment from disk.
type ImageLoader func(path string) (*chattypes.Image, error)

// Controller handles user actions. Like the view it is driven from a single event
// loop and is not safe for concurrent use.
type Controller struct {
	requests     Requester
	tokens       TokenSource
	conversation Conversation
	input        InputField
	loadImage    ImageLoader
	log          *log.Logger

	state   State
	pending int
}

// Option configures a Controller.
type Option func(*Controller)

// WithInputField sets the field cleared after submit.
func WithInputField(field InputField) Option {
	return func(c *Controller) {
		c.input = field
	}
}

// WithImageLoader replaces gateway.LoadImage.
func WithImageLoader(loader ImageLoader) Option {
	return func(c *Controller) {
		c.loadImage = loader
	}
}

// New creates a controller.
func New(requests Requester, tokens TokenSource, conversation Conversation, opts ...Option) *Controller {
	c := &Controller{
		requests:     requests,
		tokens:       tokens,
		conversation: conversation,
		loadImage:    gateway.LoadImage,
		log:          logger.Component("controller"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the submission state.
func (c *Controller) State() State {
	return c.state
}

// Submit sends the user's input. Empty text is ignored, and so is any submit while
// a guarded request is in flight. An unreadable attachment is reported as an
// assistant bubble without sending anything. Otherwise the user bubble is appended
// before the request is issued and the input field is cleared.
func (c *Controller) Submit(ctx context.Context, in Input) (Pending, bool) {
	if in.Text == "" {
		return Pending{}, false
	}
	if c.busy() {
		c.log.Debug("Submit ignored while a request is in flight")
		return Pending{}, false
	}

	var image *chattypes.Image
	if path := strings.TrimSpace(in.ImagePath); path != "" {
		loaded, err := c.loadImage(path)
		if err != nil {
			c.log.Warn("Attachment rejected", "path", path, "error", err)
			c.conversation.AppendMessage(gateway.FailureMessage(err))
			return Pending{}, false
		}
		image = loaded
	}

	c.conversation.AppendMessage(chattypes.NewUserMessage(in.Text))

	results, err := c.requests.SendChat(ctx, in.Text, image, c.tokens.GetOrCreateToken())
	if err != nil {
		return c.refused(err)
	}
	if c.input != nil {
		c.input.Clear()
	}
	return c.issued(KindChat, results), true
}

// Reset clears the conversation and asks the backend to forget it. It is ignored
// while a guarded request is in flight.
func (c *Controller) Reset(ctx context.Context) (Pending, bool) {
	if c.busy() {
		c.log.Debug("Reset ignored while a request is in flight")
		return Pending{}, false
	}
	c.conversation.CloseMenu()
	c.conversation.Clear()

	results, err := c.requests.SendReset(ctx, c.tokens.GetOrCreateToken())
	if err != nil {
		return c.refused(err)
	}
	return c.issued(KindReset, results), true
}

// Complete renders the outcome of a settled request. A successful reset clears the
// conversation again so its greeting is the only bubble.
func (c *Controller) Complete(kind Kind, res gateway.Result) {
	if c.pending > 0 {
		c.pending--
	}
	if c.pending == 0 {
		c.state = StateIdle
	}

	if res.Err != nil {
		c.log.Debug("Request failed", "kind", kind, "error", res.Err)
		c.conversation.AppendMessage(gateway.FailureMessage(res.Err))
		return
	}
	if kind == KindReset {
		c.conversation.Clear()
	}
	c.conversation.AppendMessage(res.Message)
}

// Wait blocks until p settles and renders its outcome, for callers without an
// event loop.
func (c *Controller) Wait(ctx context.Context, p Pending) error {
	msg, err := gateway.Await(ctx, p.Results)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("waiting for %s request: %w", p.Kind, err)
	}
	c.Complete(p.Kind, gateway.Result{Message: msg, Err: err})
	return err
}

// ToggleMenu shows or hides the menu.
func (c *Controller) ToggleMenu() {
	c.conversation.ToggleMenu()
}

// Click copies the code element at a content position, if there is one.
func (c *Controller) Click(line, column int) (bool, error) {
	return c.conversation.OnContainerClick(line, column)
}

// CopyLastCode copies the most recent code block.
func (c *Controller) CopyLastCode() (bool, error) {
	return c.conversation.CopyLastCode()
}

func (c *Controller) busy() bool {
	return c.requests.Guarded() && c.requests.IsLoading()
}

func (c *Controller) issued(kind Kind, results <-chan gateway.Result) Pending {
	c.pending++
	c.state = StateSending
	c.log.Debug("Request issued", "kind", kind, "pending", c.pending)
	return Pending{Kind: kind, Results: results}
}

func (c *Controller) refused(err error) (Pending, bool) {
	if errors.Is(err, gateway.ErrRequestInFlight) {
		c.log.Debug("Request refused by the in-flight guard")
		return Pending{}, false
	}
	c.log.Error("Failed to issue request", "error", err)
	c.conversation.AppendMessage(gateway.FailureMessage(err))
	return Pending{}, false
}
