package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rodja/ChatGPT/internal/auth"
	"github.com/rodja/ChatGPT/internal/config"
	"github.com/rodja/ChatGPT/internal/constants"
	"github.com/rodja/ChatGPT/internal/logging"
)

// Client talks to the conversation API, tracking the conversation
// position across exchanges. It is not safe for concurrent use.
type Client struct {
	transport Transport
	state     *conversationState
	paid      bool
	timeout   time.Duration
	logger    *logging.Logger

	tokenSource auth.TokenSource
	cache       *auth.Cache
}

// Option customizes client construction.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithTokenSource replaces the session-token authenticator used when no
// usable access token is available.
func WithTokenSource(ts auth.TokenSource) Option {
	return func(c *Client) { c.tokenSource = ts }
}

// WithCache replaces the on-disk token cache.
func WithCache(cache *auth.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger replaces the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a client from the configuration: resolves an access token
// (explicit, cached, or freshly obtained from the session endpoint) and
// wires the transport against the resolved base URL.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		state:   newConversationState(cfg.ConversationID, cfg.ParentID),
		paid:    cfg.Paid,
		timeout: cfg.AskTimeout(),
		logger:  logging.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		token, err := c.resolveAccessToken(cfg)
		if err != nil {
			return nil, err
		}
		transport, err := newHTTPTransport(cfg.ResolvedBaseURL(), token, cfg.Proxy, c.logger)
		if err != nil {
			return nil, err
		}
		c.transport = transport
	}

	return c, nil
}

func (c *Client) resolveAccessToken(cfg *config.Config) (string, error) {
	if cfg.AccessToken != "" {
		return cfg.AccessToken, nil
	}

	if c.cache == nil {
		path, err := auth.DefaultCachePath()
		if err != nil {
			return "", err
		}
		c.cache = auth.OpenCache(path)
	}

	cached, cacheErr := c.cache.AccessToken(cfg.Email)
	if cacheErr == nil && cached != "" {
		return cached, nil
	}
	if errors.Is(cacheErr, auth.ErrTokenInvalid) {
		return "", &Error{
			Source:  "client",
			Message: "cached access token cannot be decoded, log in again",
			Code:    CodeInvalidToken,
		}
	}

	// Cache miss or expired token: log in through the session endpoint.
	if c.tokenSource == nil {
		authenticator, authErr := auth.NewSessionAuthenticator(auth.Credentials{
			Email:        cfg.Email,
			Password:     cfg.Password,
			SessionToken: cfg.SessionToken,
			Proxy:        cfg.Proxy,
		})
		if authErr != nil {
			if errors.Is(cacheErr, auth.ErrTokenExpired) {
				return "", &Error{
					Source:  "client",
					Message: "cached access token has expired and no session token is configured, log in again",
					Code:    CodeExpiredToken,
				}
			}
			return "", authErr
		}
		c.tokenSource = authenticator
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultAuthTimeout)
	defer cancel()

	token, err := c.tokenSource.Obtain(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	if saveErr := c.cache.SaveAccessToken(cfg.Email, token.AccessToken); saveErr != nil {
		c.logger.Warn("failed to cache access token", logging.Fields{"error": saveErr.Error()})
	}
	return token.AccessToken, nil
}

func (c *Client) model() string {
	if c.paid {
		return constants.ModelPaid
	}
	return constants.ModelFree
}

// resolveIDs works out the conversation and parent ids for the next
// request from the per-call overrides and the tracked state.
func (c *Client) resolveIDs(ctx context.Context, opts AskOptions) (conversationID, parentID string, err error) {
	if opts.ParentID != "" && opts.ConversationID == "" {
		return "", "", userError("conversation_id must be set once parent_id is set")
	}
	if opts.ConversationID != "" && opts.ConversationID != c.state.conversationID {
		// Jumping to another conversation invalidates the tracked
		// parent; it belongs to the old one.
		c.state.parentID = ""
	}

	conversationID = opts.ConversationID
	if conversationID == "" {
		conversationID = c.state.conversationID
	}
	parentID = opts.ParentID
	if parentID == "" {
		parentID = c.state.parentID
	}

	switch {
	case conversationID == "" && parentID == "":
		parentID = uuid.NewString()
	case conversationID != "" && parentID == "":
		known, lookupErr := c.lookupParent(ctx, conversationID)
		if lookupErr != nil {
			return "", "", lookupErr
		}
		parentID = known
	}

	return conversationID, parentID, nil
}

// lookupParent finds the latest message id of a conversation via the
// local mapping, resyncing it from the server once per unknown id.
func (c *Client) lookupParent(ctx context.Context, conversationID string) (string, error) {
	if parent, ok := c.state.mapping[conversationID]; ok {
		return parent, nil
	}
	if !c.state.resyncTried[conversationID] {
		c.state.resyncTried[conversationID] = true
		if err := c.syncConversationMapping(ctx); err != nil {
			return "", err
		}
		if parent, ok := c.state.mapping[conversationID]; ok {
			return parent, nil
		}
	}
	return "", userError(fmt.Sprintf("conversation %s not found, submit a new message to start one", conversationID))
}

// syncConversationMapping refreshes the conversation->latest-message
// map from the first page of the server's conversation list.
func (c *Client) syncConversationMapping(ctx context.Context) error {
	conversations, err := c.GetConversations(ctx, constants.DefaultConversationOffset, constants.DefaultConversationLimit)
	if err != nil {
		return err
	}
	for _, conv := range conversations {
		history, err := c.GetMessageHistory(ctx, conv.ID)
		if err != nil {
			return err
		}
		c.state.mapping[conv.ID] = history.CurrentNode
	}
	return nil
}

// Ask sends a prompt and invokes onDelta for every streamed update of
// the answer. Each delta carries the full answer text so far. On
// success the conversation position advances to the server-reported
// ids; a failed stream leaves the position untouched, though the
// request is still recorded in the rollback history.
func (c *Client) Ask(ctx context.Context, prompt string, opts AskOptions, onDelta func(*MessageDelta)) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conversationID, parentID, err := c.resolveIDs(ctx, opts)
	if err != nil {
		return err
	}

	request := askRequest{
		Action: "next",
		Messages: []askMessage{{
			ID:   uuid.NewString(),
			Role: "user",
			Content: askContent{
				ContentType: "text",
				Parts:       []string{prompt},
			},
		}},
		ParentMessageID: parentID,
		Model:           c.model(),
	}
	if conversationID != "" {
		request.ConversationID = &conversationID
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	c.logger.Debug("sending prompt", logging.Fields{
		"conversation_id": conversationID,
		"parent_id":       parentID,
		"model":           request.Model,
	})

	c.state.push(conversationID, parentID)

	stream, err := c.transport.Stream(ctx, http.MethodPost, "api/conversation", body)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	parser := &streamParser{prompt: prompt}
	var last *MessageDelta
	for {
		line, readErr := stream.Next()
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("failed to read response stream: %w", readErr)
		}

		delta, done, parseErr := parser.parseLine(line)
		if parseErr != nil {
			return parseErr
		}
		if done {
			break
		}
		if delta != nil {
			last = delta
			if onDelta != nil {
				onDelta(delta)
			}
		}
	}

	if last != nil {
		c.state.commit(last.ConversationID, last.ParentID)
	} else {
		c.state.commit(conversationID, parentID)
	}
	return nil
}

// AskAsync is the channel form of Ask. The returned channel delivers
// every delta in order, then an Err event if the exchange failed, then
// closes. Sends are bounded by the request deadline, so a consumer that
// stops reading does not hold the goroutine past the timeout.
func (c *Client) AskAsync(ctx context.Context, prompt string, opts AskOptions) <-chan AskEvent {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	events := make(chan AskEvent)
	go func() {
		defer close(events)
		defer cancel()
		err := c.Ask(ctx, prompt, opts, func(delta *MessageDelta) {
			select {
			case events <- AskEvent{Delta: delta}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			select {
			case events <- AskEvent{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return events
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.transport.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Source:  "OpenAI",
			Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(resp.Body)),
			Code:    CodeServer,
		}
	}
	return resp, nil
}

// GetConversations lists stored conversations, newest first.
func (c *Client) GetConversations(ctx context.Context, offset, limit int) ([]Conversation, error) {
	path := fmt.Sprintf("api/conversations?offset=%d&limit=%d", offset, limit)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var page conversationsPage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, serverError("OpenAI", fmt.Sprintf("failed to parse conversation list: %v", err))
	}
	return page.Items, nil
}

// GetMessageHistory fetches the full record of one conversation.
func (c *Client) GetMessageHistory(ctx context.Context, conversationID string) (*ConversationHistory, error) {
	resp, err := c.do(ctx, http.MethodGet, "api/conversation/"+conversationID, nil)
	if err != nil {
		return nil, err
	}

	var history ConversationHistory
	if err := json.Unmarshal(resp.Body, &history); err != nil {
		return nil, serverError("OpenAI", fmt.Sprintf("failed to parse conversation history: %v", err))
	}
	return &history, nil
}

// GenTitle asks the server to generate and store a title for a
// conversation from one of its messages.
func (c *Client) GenTitle(ctx context.Context, conversationID, messageID string) error {
	body, err := json.Marshal(map[string]string{
		"message_id": messageID,
		"model":      constants.ModelTitle,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "api/conversation/gen_title/"+conversationID, body)
	return err
}

// ChangeTitle renames a conversation.
func (c *Client) ChangeTitle(ctx context.Context, conversationID, title string) error {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	_, err = c.do(ctx, http.MethodPatch, "api/conversation/"+conversationID, body)
	return err
}

// DeleteConversation hides a conversation on the server.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	_, err := c.do(ctx, http.MethodPatch, "api/conversation/"+conversationID, []byte(`{"is_visible": false}`))
	return err
}

// ClearConversations hides every stored conversation.
func (c *Client) ClearConversations(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPatch, "api/conversations", []byte(`{"is_visible": false}`))
	return err
}

// Rollback moves the conversation position back n exchanges.
func (c *Client) Rollback(n int) error {
	return c.state.rollback(n)
}

// Reset abandons the current conversation.
func (c *Client) Reset() {
	c.state.reset()
}

// SetConversationID switches to another conversation. The parent id is
// cleared so the next exchange looks it up from the server.
func (c *Client) SetConversationID(conversationID string) {
	c.state.conversationID = conversationID
	c.state.parentID = ""
}

// ConversationID returns the tracked conversation id.
func (c *Client) ConversationID() string {
	return c.state.conversationID
}

// ParentID returns the tracked parent message id.
func (c *Client) ParentID() string {
	return c.state.parentID
}
