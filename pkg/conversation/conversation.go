package conversation

// Package conversation holds the domain model shared by the session layer, the
// backends and the intelligence query engine: conversations, their lifecycle
// status, and the append-only message sequence.
//
// A conversation starts out active and ends exactly once. Ending it attaches
// the derived summary and tag set; both are absent while the conversation is
// active. The message sequence is append-only and ordered by insertion, which
// is also the conversation order.

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

type Conversation struct {
	ID        uuid.UUID  `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Status    Status     `json:"status" yaml:"status"`
	StartedAt time.Time  `json:"started_at" yaml:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`

	// Summary and Tags are derived on end and absent while active. Tags may
	// be empty on an ended conversation; Summary may not.
	Summary string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	Messages []*Message `json:"messages" yaml:"messages"`

	// Metadata is freeform extra info carried along with the conversation.
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Overview is the list view of a conversation, without its messages.
type Overview struct {
	ID        uuid.UUID  `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Status    Status     `json:"status" yaml:"status"`
	StartedAt time.Time  `json:"started_at" yaml:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
	Tags      []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func New(title string, options ...Option) *Conversation {
	ret := &Conversation{
		ID:        uuid.New(),
		Title:     title,
		Status:    StatusActive,
		StartedAt: time.Now(),
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

type Option func(*Conversation)

func WithConversationID(id uuid.UUID) Option {
	return func(c *Conversation) {
		c.ID = id
	}
}

func WithStartedAt(t time.Time) Option {
	return func(c *Conversation) {
		c.StartedAt = t
	}
}

func WithMetadata(metadata map[string]interface{}) Option {
	return func(c *Conversation) {
		c.Metadata = metadata
	}
}

func (c *Conversation) Active() bool {
	return c.Status == StatusActive
}

func (c *Conversation) Ended() bool {
	return c.Status == StatusEnded
}

func (c *Conversation) LastMessage() (*Message, bool) {
	if len(c.Messages) == 0 {
		return nil, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Overview returns the list view of the conversation.
func (c *Conversation) Overview() *Overview {
	return &Overview{
		ID:        c.ID,
		Title:     c.Title,
		Status:    c.Status,
		StartedAt: c.StartedAt,
		EndedAt:   c.EndedAt,
		Tags:      c.Tags,
	}
}

// Transcript renders the full message sequence as "role: content" lines,
// which is the format the summarizer is prompted with.
func (c *Conversation) Transcript() string {
	lines := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		lines = append(lines, m.View())
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy. Backends hand out clones so that callers can
// never reach into committed state.
func (c *Conversation) Clone() *Conversation {
	ret := *c

	if c.EndedAt != nil {
		endedAt := *c.EndedAt
		ret.EndedAt = &endedAt
	}

	ret.Tags = append([]string(nil), c.Tags...)

	ret.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		m_ := *m
		ret.Messages[i] = &m_
	}

	// Metadata values can be nested maps and slices, so a per-key copy is
	// not enough.
	if c.Metadata != nil {
		ret.Metadata = clone.Clone(c.Metadata).(map[string]interface{})
	}

	return &ret
}

// Validate checks the lifecycle invariants: ended_at is set iff the
// conversation is ended, a summary is present iff it is ended, and the
// message sequence strictly alternates starting with a user message.
func (c *Conversation) Validate() error {
	switch c.Status {
	case StatusActive:
		if c.EndedAt != nil {
			return errors.New("active conversation has ended_at set")
		}
		if c.Summary != "" {
			return errors.New("active conversation has a summary")
		}
		if c.Tags != nil {
			return errors.New("active conversation has tags")
		}
	case StatusEnded:
		if c.EndedAt == nil {
			return errors.New("ended conversation has no ended_at")
		}
		if c.Summary == "" {
			return errors.New("ended conversation has no summary")
		}
	default:
		return errors.Errorf("unknown status %q", c.Status)
	}

	for i, m := range c.Messages {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if m.Role != want {
			return errors.Errorf("message %d has role %q, want %q", i, m.Role, want)
		}
	}

	return nil
}
