package conversation

import (
	"fmt"

	"github.com/pkg/errors"
)

// The error taxonomy every operation maps into. Validation errors are caught
// locally and never reach a collaborator; the other kinds surface from the
// backend as typed failures the caller can tell apart.
var (
	ErrEmptyContent = errors.New("message content is empty")
	ErrEmptyQuery   = errors.New("query is empty")

	ErrConversationEnded = errors.New("conversation has ended")
	ErrAlreadyEnded      = errors.New("conversation already ended")

	ErrNotFound = errors.New("conversation not found")
)

// UpstreamError wraps a collaborator failure (generation engine, summarizer,
// search, transport). Previously committed state is untouched when one of
// these surfaces.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyContent) || errors.Is(err, ErrEmptyQuery)
}

func IsStateConflict(err error) bool {
	return errors.Is(err, ErrConversationEnded) || errors.Is(err, ErrAlreadyEnded)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUpstream(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}
