package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/backend"
	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/intelligence"
)

// Client implements the backend contract over the conversation server's REST
// API. It never retries: a blip during SendMessage or EndConversation could
// otherwise duplicate messages or double-end the conversation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ backend.Backend = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL string, options ...Option) *Client {
	ret := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

type createRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	Role    conversation.Role `json:"role"`
	Content string            `json:"content"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type apiError struct {
	Detail string `json:"detail"`
}

func (c *Client) CreateConversation(ctx context.Context, title string) (*conversation.Conversation, error) {
	conv := &conversation.Conversation{}
	if err := c.do(ctx, http.MethodPost, "/conversations/", &createRequest{Title: title}, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]*conversation.Overview, error) {
	overviews := []*conversation.Overview{}
	if err := c.do(ctx, http.MethodGet, "/conversations/", nil, &overviews); err != nil {
		return nil, err
	}
	return overviews, nil
}

func (c *Client) GetConversation(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	conv := &conversation.Conversation{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conversations/%s/", id), nil, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (c *Client) SendMessage(ctx context.Context, id uuid.UUID, content string) (*backend.Exchange, error) {
	exchange := &backend.Exchange{}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%s/messages/", id),
		&sendMessageRequest{Role: conversation.RoleUser, Content: content}, exchange)
	if err != nil {
		return nil, err
	}
	if exchange.UserMessage == nil || exchange.AssistantMessage == nil {
		return nil, conversation.NewUpstreamError("send-message",
			errors.New("server returned an incomplete exchange"))
	}
	return exchange, nil
}

func (c *Client) EndConversation(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	conv := &conversation.Conversation{}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%s/end/", id), nil, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (c *Client) Query(ctx context.Context, text string) (*intelligence.Result, error) {
	result := &intelligence.Result{}
	if err := c.do(ctx, http.MethodPost, "/query/", &queryRequest{Query: text}, result); err != nil {
		return nil, err
	}
	if result.Matches == nil {
		result.Matches = []intelligence.Match{}
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "could not marshal request")
		}
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Header.Set("Content-Type", "application/json")

	log.Trace().
		Str("method", method).
		Str("path", path).
		Msg("backend request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return conversation.NewUpstreamError("transport", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return conversation.NewUpstreamError("decode", err)
		}
		return nil
	}

	return c.mapError(resp)
}

// mapError turns a non-2xx response into the error taxonomy. The server
// reports state conflicts as 400s with a human-readable detail.
func (c *Client) mapError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return conversation.ErrNotFound

	case resp.StatusCode == http.StatusBadRequest:
		apiErr := apiError{}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		detail := strings.ToLower(apiErr.Detail)
		switch {
		case strings.Contains(detail, "already ended"):
			return conversation.ErrAlreadyEnded
		case strings.Contains(detail, "ended"):
			return conversation.ErrConversationEnded
		default:
			return conversation.NewUpstreamError("request",
				errors.Errorf("bad request: %s", apiErr.Detail))
		}

	default:
		return conversation.NewUpstreamError("request",
			errors.Errorf("unexpected status %d", resp.StatusCode))
	}
}
