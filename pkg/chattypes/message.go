// Package chattypes defines the conversation types shared by the gemichat client.
// Messages are created when the user submits input or when the backend answers,
// and are never modified afterwards.
package chattypes

import (
	"time"

	"github.com/google/uuid"
)

// Origin identifies who authored a message.
type Origin string

const (
	// OriginUser marks text typed by the local user.
	OriginUser Origin = "user"
	// OriginAssistant marks text returned by the backend, including failure notices.
	OriginAssistant Origin = "assistant"
)

// Alignment is the horizontal placement of a rendered bubble.
type Alignment int

const (
	// AlignLeft is used for assistant bubbles.
	AlignLeft Alignment = iota
	// AlignRight is used for user bubbles.
	AlignRight
)

// String returns "left" or "right".
func (a Alignment) String() string {
	if a == AlignRight {
		return "right"
	}
	return "left"
}

// Message is a single entry of the conversation.
type Message struct {
	ID        string    `json:"id"`
	Origin    Origin    `json:"origin"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Failed    bool      `json:"failed,omitempty"` // assistant bubble produced from an error path
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(text string) Message {
	return newMessage(OriginUser, text, false)
}

// NewAssistantMessage creates a message carrying a backend reply.
func NewAssistantMessage(text string) Message {
	return newMessage(OriginAssistant, text, false)
}

// NewFailureMessage creates an assistant message describing a failed request.
func NewFailureMessage(text string) Message {
	return newMessage(OriginAssistant, text, true)
}

func newMessage(origin Origin, text string, failed bool) Message {
	return Message{
		ID:        uuid.New().String(),
		Origin:    origin,
		Text:      text,
		CreatedAt: time.Now(),
		Failed:    failed,
	}
}

// IsUser reports whether the message was typed by the local user.
func (m Message) IsUser() bool {
	return m.Origin == OriginUser
}

// Alignment returns where the bubble for this message is placed.
func (m Message) Alignment() Alignment {
	if m.IsUser() {
		return AlignRight
	}
	return AlignLeft
}
