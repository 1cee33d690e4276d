package summarize

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/conversation"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []string
	}{
		{
			name: "trailing tags line",
			out:  "- point one\n- point two\n\nTAGS: travel, budget, tokyo",
			want: []string{"travel", "budget", "tokyo"},
		},
		{
			name: "lowercase prefix",
			out:  "summary\ntags: a, b",
			want: []string{"a", "b"},
		},
		{
			name: "missing tags line",
			out:  "just a summary without tags",
			want: []string{},
		},
		{
			name: "last tags line wins",
			out:  "TAGS: stale, old\nmore text\nTAGS: fresh",
			want: []string{"fresh"},
		},
		{
			name: "empty entries dropped",
			out:  "TAGS: a, , b,",
			want: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.out))
		})
	}
}

type scriptedEngine struct {
	reply string
	err   error
}

func (e *scriptedEngine) RunInference(
	ctx context.Context,
	msgs []*conversation.Message,
) (*conversation.Message, error) {
	if e.err != nil {
		return nil, e.err
	}
	return conversation.NewMessage(conversation.RoleAssistant, e.reply), nil
}

func TestEngineSummarizerReturnsSummaryAndTags(t *testing.T) {
	s := NewEngineSummarizer(&scriptedEngine{
		reply: "- we planned a trip\n\nTAGS: travel, planning",
	})

	conv := conversation.New("trip")
	conv.Messages = append(conv.Messages,
		conversation.NewMessage(conversation.RoleUser, "let's plan a trip"),
		conversation.NewMessage(conversation.RoleAssistant, "where to?"),
	)

	summary, tags, err := s.Summarize(context.Background(), conv)
	require.NoError(t, err)
	assert.Contains(t, summary, "we planned a trip")
	assert.Equal(t, []string{"travel", "planning"}, tags)
}

func TestEngineSummarizerPropagatesEngineFailure(t *testing.T) {
	s := NewEngineSummarizer(&scriptedEngine{err: errors.New("model unavailable")})

	_, _, err := s.Summarize(context.Background(), conversation.New(""))
	require.Error(t, err)
}
