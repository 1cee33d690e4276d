package backend

// Package backend defines the collaborator contract the session layer talks
// to: conversation storage, assistant-reply generation, summarization and
// intelligence search all live behind this boundary. Implementations are
// expected to make each call atomic — fully applied or not applied at all.

import (
	"context"

	"github.com/google/uuid"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/intelligence"
)

// Exchange is the committed result of one user utterance: exactly one user
// message paired with exactly one assistant message.
type Exchange struct {
	UserMessage      *conversation.Message `json:"user_message"`
	AssistantMessage *conversation.Message `json:"assistant_message"`
}

// Backend is the request/response boundary to the collaborators. Inputs are
// assumed validated (non-empty trimmed content and query); validation happens
// in the session layer and never crosses this boundary.
type Backend interface {
	CreateConversation(ctx context.Context, title string) (*conversation.Conversation, error)
	ListConversations(ctx context.Context) ([]*conversation.Overview, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error)

	// SendMessage turns one user utterance into a committed (user, assistant)
	// pair. Either both messages are committed or neither is; no unanswered
	// user turn is ever left behind.
	SendMessage(ctx context.Context, id uuid.UUID, content string) (*Exchange, error)

	// EndConversation transitions the conversation to ended and attaches the
	// derived summary and tags. If summarization fails the conversation
	// remains active and the call is retryable.
	EndConversation(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error)

	// Query matches free text against all conversations and returns a
	// synthesized answer plus ranked matches. It never mutates anything.
	Query(ctx context.Context, text string) (*intelligence.Result, error)
}
