// Package gateway sends one user turn to the remote agent and turns its
// reply into display text.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/logging"
)

const (
	// DefaultAccessKeyHeader carries the API key.
	DefaultAccessKeyHeader = "x-api-key"

	maxErrorBody = 64 << 10
	maxExcerpt   = 512
)

// Client is the agent gateway. It makes exactly one POST per Send and never
// retries.
type Client struct {
	http      HTTPClient
	log       *logging.Logger
	keyHeader string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Its timeout bounds every send.
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// WithAccessKeyHeader changes the header that carries the API key.
func WithAccessKeyHeader(name string) Option {
	return func(cl *Client) { cl.keyHeader = name }
}

// New creates a gateway client.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 60 * time.Second},
		log:       logging.New("gateway"),
		keyHeader: DefaultAccessKeyHeader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Send posts message to the agent described by cfg and returns the reply
// text. Incomplete settings fail with *ConfigurationError before any I/O;
// everything else fails with *TransportError.
func (c *Client) Send(ctx context.Context, message, userID, sessionID string, cfg domain.ConnectionConfig) (string, error) {
	if missing := cfg.Missing(); len(missing) > 0 {
		return "", &ConfigurationError{Missing: missing}
	}

	log := c.log.WithSession(sessionID).WithRequest(logging.RequestID(ctx))
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		UserID:    userID,
		AgentID:   strings.TrimSpace(cfg.AgentID),
		SessionID: sessionID,
		Message:   message,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSpace(cfg.EndpointURL), bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.keyHeader, strings.TrimSpace(cfg.APIKey))

	resp, err := c.http.Do(req)
	if err != nil {
		terr := &TransportError{Err: err}
		log.TimedEvent("send", start, nil, terr)
		return "", terr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		terr := &TransportError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(raw),
		}
		log.TimedEvent("send", start, map[string]interface{}{"status": resp.StatusCode}, terr)
		return "", terr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
		log.TimedEvent("send", start, map[string]interface{}{"status": resp.StatusCode}, terr)
		return "", terr
	}

	text, err := Normalize(raw)
	if err != nil {
		terr := &TransportError{StatusCode: resp.StatusCode, Err: err}
		log.TimedEvent("send", start, map[string]interface{}{"status": resp.StatusCode}, terr)
		return "", terr
	}

	log.TimedEvent("send", start, map[string]interface{}{
		"status":     resp.StatusCode,
		"reply_size": len(text),
	}, nil)
	return text, nil
}

// replyKeys are checked in order for the agent's text.
var replyKeys = []string{"response", "message"}

// Normalize extracts display text from a 2xx response body. A non-empty
// string under "response" (then "message") is returned as is; any other
// non-null value there is returned as compact JSON. Without either key the
// whole body is returned as compact JSON.
func Normalize(body []byte) (string, error) {
	if !json.Valid(body) {
		return "", errors.New("decode response: invalid JSON")
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) == nil {
		for _, key := range replyKeys {
			raw, ok := fields[key]
			if !ok || string(raw) == "null" {
				continue
			}
			var s string
			if json.Unmarshal(raw, &s) == nil {
				if s != "" {
					return s, nil
				}
				continue
			}
			return compact(raw)
		}
	}
	return compact(body)
}

func compact(raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return buf.String(), nil
}

// statusText returns the reason phrase, e.g. "Not Found" for "404 Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
