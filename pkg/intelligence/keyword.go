package intelligence

import (
	"strings"

	"github.com/go-go-golems/parley/pkg/conversation"
)

const (
	DefaultTopK       = 10
	DefaultSnippetPad = 80
)

// KeywordScorer ranks messages by term frequency. A conversation's title and
// summary contribute a base score to every message in it, so messages from
// conversations about the query topic outrank incidental term hits.
type KeywordScorer struct {
	TopK       int
	SnippetPad int
}

func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{
		TopK:       DefaultTopK,
		SnippetPad: DefaultSnippetPad,
	}
}

// Search scans both active and ended conversations and returns the top
// matches, ranked. The query is assumed non-empty and trimmed.
func (s *KeywordScorer) Search(query string, convs []*conversation.Conversation) []Match {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []Match{}
	}

	matches := []Match{}
	for _, conv := range convs {
		base := termCount(conv.Title+" "+conv.Summary, terms)
		for _, msg := range conv.Messages {
			score := base + termCount(msg.Content, terms)
			if score <= 0 {
				continue
			}

			msgID := msg.ID
			timestamp := msg.Time
			matches = append(matches, Match{
				ConversationID: conv.ID,
				MessageID:      &msgID,
				Snippet:        Snippet(msg.Content, terms[0], s.SnippetPad),
				Timestamp:      &timestamp,
				Score:          float64(score),
			})
		}
	}

	SortMatches(matches)

	topK := s.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches
}

func termCount(text string, terms []string) int {
	t := strings.ToLower(text)
	count := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		count += strings.Count(t, term)
	}
	return count
}

// Snippet excerpts pad runes of context around the first occurrence of term,
// with ellipses marking truncation. When the term does not occur, the first
// 2*pad runes are returned.
func Snippet(text string, term string, pad int) string {
	runes := []rune(text)

	start, end, ok := matchSpan(text, term)
	if !ok {
		if len(runes) > pad*2 {
			return string(runes[:pad*2]) + "…"
		}
		return text
	}

	a := start - pad
	if a < 0 {
		a = 0
	}
	b := end + pad
	if b > len(runes) {
		b = len(runes)
	}

	snippet := string(runes[a:b])
	if a > 0 {
		snippet = "…" + snippet
	}
	if b < len(runes) {
		snippet = snippet + "…"
	}
	return snippet
}

// matchSpan locates the first case-insensitive occurrence of term in text and
// returns its rune span. Lowercasing can change a rune's byte length (İ becomes
// a two-rune sequence), so the folded text is built rune by rune with every
// folded byte mapped back to its source rune.
func matchSpan(text string, term string) (int, int, bool) {
	if term == "" {
		return 0, 0, false
	}

	var folded strings.Builder
	folded.Grow(len(text))
	origin := make([]int, 0, len(text))

	runeIdx := 0
	for _, r := range text {
		low := strings.ToLower(string(r))
		folded.WriteString(low)
		for i := 0; i < len(low); i++ {
			origin = append(origin, runeIdx)
		}
		runeIdx++
	}

	loweredTerm := strings.ToLower(term)
	pos := strings.Index(folded.String(), loweredTerm)
	if pos < 0 {
		return 0, 0, false
	}

	start := origin[pos]
	end := origin[pos+len(loweredTerm)-1] + 1
	return start, end, true
}
