package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is only ever used when assembling prompts for the generation
	// engine. It is never stored inside a Conversation.
	RoleSystem Role = "system"
)

// Message is a single immutable entry in a conversation. Messages are only
// ever created through the exchange protocol and never mutated afterwards.
type Message struct {
	ID      uuid.UUID `json:"id" yaml:"id"`
	Role    Role      `json:"role" yaml:"role"`
	Content string    `json:"content" yaml:"content"`
	Time    time.Time `json:"created_at" yaml:"created_at"`
}

type MessageOption func(*Message)

func WithID(id uuid.UUID) MessageOption {
	return func(m *Message) {
		m.ID = id
	}
}

func WithTime(t time.Time) MessageOption {
	return func(m *Message) {
		m.Time = t
	}
}

func NewMessage(role Role, content string, options ...MessageOption) *Message {
	ret := &Message{
		ID:      uuid.New(),
		Role:    role,
		Content: content,
		Time:    time.Now(),
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

// View renders the message the way transcripts and the CLI show it.
func (m *Message) View() string {
	return fmt.Sprintf("%s: %s", m.Role, strings.TrimRight(m.Content, "\n"))
}
