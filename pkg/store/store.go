package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/go-go-golems/parley/pkg/conversation"
)

// Store is the persistence collaborator the local backend commits through.
// Every operation is atomic at this boundary: it is fully applied or not
// applied at all. Implementations return clones, never shared state.
type Store interface {
	// Create allocates a new active conversation.
	Create(ctx context.Context, title string) (*conversation.Conversation, error)

	// Get returns the conversation with its full message sequence, or
	// conversation.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error)

	// List returns overviews of all conversations, most recently started first.
	List(ctx context.Context) ([]*conversation.Overview, error)

	// AppendPair commits a (user, assistant) message pair onto an active
	// conversation in one step. Fails with conversation.ErrConversationEnded
	// on an ended conversation, leaving the sequence unchanged.
	AppendPair(ctx context.Context, id uuid.UUID, userMsg *conversation.Message, assistantMsg *conversation.Message) (*conversation.Conversation, error)

	// End transitions an active conversation to ended, attaching summary and
	// tags and stamping ended_at in one step. Fails with
	// conversation.ErrAlreadyEnded on an ended conversation.
	End(ctx context.Context, id uuid.UUID, summary string, tags []string) (*conversation.Conversation, error)

	// All returns full clones of every conversation, most recently started
	// first. The intelligence engine scans these.
	All(ctx context.Context) ([]*conversation.Conversation, error)
}
