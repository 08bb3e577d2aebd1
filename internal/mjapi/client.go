// Package mjapi implements the HTTP client for the MJAPI decision service.
// The per-turn relay core only depends on the narrow Caller interface; the
// remaining methods cover account and bot lifecycle around a game.
package mjapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mjai-relay/mjai-relay/internal/mjai"
	"go.uber.org/zap"
)

// Action is the wire envelope pairing a sequence number with an event.
// CanAct is only ever written as an explicit false override on the tail of
// a non-final batch; when absent the service may act on the event.
type Action struct {
	Seq    int        `json:"seq"`
	Data   mjai.Event `json:"data"`
	CanAct *bool      `json:"can_act,omitempty"`
}

// Caller is the slice of the service consumed by the per-turn relay core.
type Caller interface {
	// Act submits one sequence-stamped event and returns the service's
	// reaction, nil when the service takes no action.
	Act(ctx context.Context, seq int, ev mjai.Event) (mjai.Reaction, error)

	// Batch submits an ordered list of actions as one call. The returned
	// reaction is only meaningful when the final action was actionable.
	Batch(ctx context.Context, actions []Action) (mjai.Reaction, error)
}

// Client talks to an MJAPI server over JSON HTTP. It is not safe for
// concurrent use: the bearer token is set by the login methods and read by
// every later call.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	logger  *zap.Logger
}

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves requests bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Token returns the current bearer token, "" when not logged in.
func (c *Client) Token() string {
	return c.token
}

// Register creates a new account and returns its secret. The caller is
// responsible for keeping the secret; the service will not reveal it again.
func (c *Client) Register(ctx context.Context, user string) (string, error) {
	var res struct {
		Secret string `json:"secret"`
	}
	req := map[string]string{"name": user}
	if err := c.post(ctx, "/user/register", req, &res); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	c.logger.Info("registered new user", zap.String("user", user))
	return res.Secret, nil
}

// Login authenticates with a username and secret and stores the returned
// session token for subsequent calls.
func (c *Client) Login(ctx context.Context, user, secret string) error {
	var res struct {
		ID string `json:"id"`
	}
	req := map[string]string{"name": user, "secret": secret}
	if err := c.post(ctx, "/user/login", req, &res); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.token = res.ID
	c.logger.Debug("logged in", zap.String("user", user))
	return nil
}

// LoginWithSession adopts an existing session id as the bearer token and
// validates it against the service.
func (c *Client) LoginWithSession(ctx context.Context, sessionID string) error {
	c.token = sessionID
	if _, err := c.Usage(ctx); err != nil {
		c.token = ""
		return fmt.Errorf("session login: %w", err)
	}
	c.logger.Debug("logged in with session id")
	return nil
}

// Logout invalidates the session token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/user/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.token = ""
	return nil
}

// Usage returns the account's accumulated API usage counter.
func (c *Client) Usage(ctx context.Context) (int, error) {
	var res struct {
		Usage int `json:"usage"`
	}
	if err := c.get(ctx, "/user/usage", &res); err != nil {
		return 0, fmt.Errorf("usage: %w", err)
	}
	return res.Usage, nil
}

// ListModels returns the model names the service offers.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var res struct {
		Models []string `json:"models"`
	}
	if err := c.get(ctx, "/mjai/list", &res); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return res.Models, nil
}

// StartBot starts a server-side bot session for one game. Bound is the size
// of the message buffer the service tracks; sequence numbers wrap below it.
func (c *Client) StartBot(ctx context.Context, seat, bound int, model string) error {
	req := map[string]any{"seat": seat, "bound": bound, "bot": model}
	if err := c.post(ctx, "/mjai/start", req, nil); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}
	c.logger.Info("started remote bot",
		zap.Int("seat", seat),
		zap.Int("bound", bound),
		zap.String("model", model),
	)
	return nil
}

// StopBot releases the server-side bot session.
func (c *Client) StopBot(ctx context.Context) error {
	if err := c.post(ctx, "/mjai/stop", nil, nil); err != nil {
		return fmt.Errorf("stop bot: %w", err)
	}
	return nil
}

// Act implements Caller.
func (c *Client) Act(ctx context.Context, seq int, ev mjai.Event) (mjai.Reaction, error) {
	req := map[string]any{"seq": seq, "data": ev}
	return c.reactionPost(ctx, "/mjai/act", req)
}

// Batch implements Caller.
func (c *Client) Batch(ctx context.Context, actions []Action) (mjai.Reaction, error) {
	return c.reactionPost(ctx, "/mjai/batch", actions)
}

// reactionPost posts a payload and decodes the reply as a reaction. A reply
// body that is not a structured mapping with a type field is a service-level
// "no action", not a transport failure, and yields a nil reaction.
func (c *Client) reactionPost(ctx context.Context, path string, payload any) (mjai.Reaction, error) {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	var reaction mjai.Reaction
	if err := json.Unmarshal(body, &reaction); err != nil {
		c.logger.Debug("discarding malformed reaction body", zap.Error(err))
		return nil, nil
	}
	if !mjai.ValidReaction(reaction) {
		return nil, nil
	}
	return reaction, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, body)
	}
	return body, nil
}
