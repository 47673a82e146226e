package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who a message is attributed to
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is a known sender
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Label returns the display label for the sender
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "Nutrition Buddy"
}

// Message is a single rendered chat entry. Messages are never edited; a
// pending placeholder is removed and replaced by a new message.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Pending   bool
	CreatedAt time.Time
}

// NewMessage creates a message with a fresh ID
func NewMessage(text string, sender Sender) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now(),
	}
}

// NewPlaceholder creates the transient bot message shown while a reply is pending
func NewPlaceholder() Message {
	msg := NewMessage(PlaceholderText, SenderBot)
	msg.Pending = true
	return msg
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /api/chat
type ChatResponse struct {
	Reply string `json:"reply"`
}
