package intelligence

// Package intelligence implements the cross-conversation query engine: it
// matches free-text queries against historical message content, ranks the
// matches deterministically, and synthesizes an answer over the top hits.

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Match is one ranked hit for a query. Matches are produced fresh per query
// and only back-reference their source, they never own it.
type Match struct {
	ConversationID uuid.UUID  `json:"conversation_id"`
	MessageID      *uuid.UUID `json:"message_id,omitempty"`
	Snippet        string     `json:"snippet"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	Score          float64    `json:"score"`
}

// Result is the full response to an intelligence query. An empty Matches
// slice with a non-empty Answer is a successful "nothing found", distinct
// from a query failure.
type Result struct {
	Answer  string  `json:"answer"`
	Matches []Match `json:"matches"`
}

// SortMatches orders matches by score descending, ties broken by timestamp
// descending (absent timestamps last), then by conversation id ascending.
// The ordering is total over those keys, so identical inputs always rank
// identically.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.Timestamp != nil && b.Timestamp == nil:
			return true
		case a.Timestamp == nil && b.Timestamp != nil:
			return false
		case a.Timestamp != nil && b.Timestamp != nil:
			if !a.Timestamp.Equal(*b.Timestamp) {
				return a.Timestamp.After(*b.Timestamp)
			}
		}
		return a.ConversationID.String() < b.ConversationID.String()
	})
}
