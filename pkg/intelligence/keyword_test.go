package intelligence

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/conversation"
)

func endedConversation(title string, summary string, contents ...string) *conversation.Conversation {
	conv := conversation.New(title)
	base := time.Now().Add(-time.Hour)
	for i, content := range contents {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		conv.Messages = append(conv.Messages, conversation.NewMessage(
			role, content,
			conversation.WithTime(base.Add(time.Duration(i)*time.Minute)),
		))
	}
	endedAt := time.Now()
	conv.Status = conversation.StatusEnded
	conv.EndedAt = &endedAt
	conv.Summary = summary
	conv.Tags = []string{}
	return conv
}

func TestKeywordSearchFindsMatchingMessage(t *testing.T) {
	s := NewKeywordScorer()

	convs := []*conversation.Conversation{
		endedConversation("store questions", "asked about the refund policy",
			"What is your refund policy?",
			"Refunds are accepted within 30 days.",
		),
		endedConversation("weather", "small talk about rain",
			"Is it going to rain?",
			"Probably, bring an umbrella.",
		),
	}

	matches := s.Search("refund policy", convs)
	require.NotEmpty(t, matches)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}

	assert.Equal(t, convs[0].ID, matches[0].ConversationID)
	assert.Contains(t, strings.ToLower(matches[0].Snippet), "refund")
}

func TestKeywordSearchTitleAndSummaryContributeBaseScore(t *testing.T) {
	s := NewKeywordScorer()

	onTopic := endedConversation("tokyo trip", "planning a tokyo trip", "where should we stay?")
	offTopic := endedConversation("errands", "grocery list", "we could visit tokyo some day")

	matches := s.Search("tokyo", []*conversation.Conversation{offTopic, onTopic})
	require.Len(t, matches, 2)

	// Both messages mention the topic at most once, but the on-topic
	// conversation gets title+summary counts on top.
	assert.Equal(t, onTopic.ID, matches[0].ConversationID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestKeywordSearchNoMatches(t *testing.T) {
	s := NewKeywordScorer()

	convs := []*conversation.Conversation{
		endedConversation("weather", "small talk", "nice day today"),
	}

	matches := s.Search("quantum chromodynamics", convs)
	assert.Empty(t, matches)
}

func TestKeywordSearchSpansActiveConversations(t *testing.T) {
	s := NewKeywordScorer()

	active := conversation.New("open thread")
	active.Messages = append(active.Messages,
		conversation.NewMessage(conversation.RoleUser, "what about refunds?"),
		conversation.NewMessage(conversation.RoleAssistant, "refunds take 5 days"),
	)

	matches := s.Search("refunds", []*conversation.Conversation{active})
	assert.Len(t, matches, 2)
}

func TestKeywordSearchCapsAtTopK(t *testing.T) {
	s := NewKeywordScorer()
	s.TopK = 3

	contents := []string{}
	for i := 0; i < 10; i++ {
		contents = append(contents, "refund question", "refund answer")
	}
	convs := []*conversation.Conversation{
		endedConversation("refunds", "all about refunds", contents...),
	}

	matches := s.Search("refund", convs)
	assert.Len(t, matches, 3)
}

func TestKeywordSearchIsDeterministic(t *testing.T) {
	s := NewKeywordScorer()

	convs := []*conversation.Conversation{
		endedConversation("a", "refund refund", "refund one", "refund two"),
		endedConversation("b", "refund refund", "refund three", "refund four"),
	}

	first := s.Search("refund", convs)
	for i := 0; i < 5; i++ {
		again := s.Search("refund", convs)
		require.Equal(t, first, again)
	}
}

func TestSnippetWindowsAroundFirstHit(t *testing.T) {
	long := strings.Repeat("a", 200) + " refund " + strings.Repeat("b", 200)

	snippet := Snippet(long, "refund", 10)
	assert.True(t, strings.HasPrefix(snippet, "…"))
	assert.True(t, strings.HasSuffix(snippet, "…"))
	assert.Contains(t, snippet, "refund")
	// 10 runes either side plus term and ellipses.
	assert.LessOrEqual(t, len([]rune(snippet)), 10+len("refund")+10+2)
}

func TestSnippetWithoutHitTruncatesPrefix(t *testing.T) {
	long := strings.Repeat("x", 300)

	snippet := Snippet(long, "refund", 80)
	assert.Equal(t, strings.Repeat("x", 160)+"…", snippet)

	short := "short text"
	assert.Equal(t, short, Snippet(short, "refund", 80))
}

func TestSnippetIsCaseInsensitive(t *testing.T) {
	snippet := Snippet("The REFUND was processed.", "refund", 80)
	assert.Equal(t, "The REFUND was processed.", snippet)
}

func TestSnippetWindowStaysAlignedAfterFolding(t *testing.T) {
	// "İ" changes byte length when lowercased, so byte offsets into the
	// folded text do not line up with the original.
	assert.Equal(t, "İİİ refund here", Snippet("İİİ refund here", "refund", 5))
	assert.Equal(t, "…İİ refund tr…", Snippet("İİİİİİİ refund trailing words", "refund", 3))
}

func TestSortMatchesTieBreaks(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	idA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	idB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	matches := []Match{
		{ConversationID: idB, Score: 1, Timestamp: &older},
		{ConversationID: idA, Score: 1, Timestamp: &newer},
		{ConversationID: idB, Score: 2, Timestamp: &older},
		{ConversationID: idB, Score: 1},
		{ConversationID: idA, Score: 1, Timestamp: &older},
	}

	SortMatches(matches)

	// Highest score first.
	assert.Equal(t, float64(2), matches[0].Score)
	// Then recency within equal scores.
	assert.Equal(t, idA, matches[1].ConversationID)
	assert.Equal(t, &newer, matches[1].Timestamp)
	// Equal score and timestamp: conversation id ascending.
	assert.Equal(t, idA, matches[2].ConversationID)
	assert.Equal(t, idB, matches[3].ConversationID)
	// Missing timestamps rank last.
	assert.Nil(t, matches[4].Timestamp)
}
