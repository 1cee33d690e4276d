package tokens

import (
	"github.com/pkg/errors"
	"github.com/tiktoken-go/tokenizer"

	"github.com/go-go-golems/parley/pkg/conversation"
)

// Counter counts tokens with a tiktoken codec so that prompt history can be
// budgeted before it is sent to the generation engine.
type Counter struct {
	codec tokenizer.Codec
}

func NewCounter(encoding tokenizer.Encoding) (*Counter, error) {
	if encoding == "" {
		encoding = tokenizer.Cl100kBase
	}

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, errors.Wrap(err, "could not create tokenizer")
	}

	return &Counter{codec: codec}, nil
}

func (c *Counter) Count(text string) (int, error) {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// TruncateHistory drops the oldest messages until the remaining history fits
// within budget tokens. The most recent message is always kept, even if it
// alone exceeds the budget.
func (c *Counter) TruncateHistory(msgs []*conversation.Message, budget int) ([]*conversation.Message, error) {
	if budget <= 0 || len(msgs) == 0 {
		return msgs, nil
	}

	total := 0
	counts := make([]int, len(msgs))
	for i, m := range msgs {
		count, err := c.Count(m.Content)
		if err != nil {
			return nil, err
		}
		counts[i] = count
		total += count
	}

	start := 0
	for start < len(msgs)-1 && total > budget {
		total -= counts[start]
		start++
	}

	return msgs[start:], nil
}
