// Package client is a Go SDK for the MedLink booking API. It mirrors what the
// web client does: one request per user action, bearer-token sessions that
// are torn down on 401, and a re-read of server state after every mutation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client for baseURL. session may be shared between clients; a
// nil session starts signed out with in-memory storage.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession(nil)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		session:    session,
		logger:     zerolog.New(os.Stderr).With().Timestamp().Str("component", "medlink-client").Logger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// doJSON sends body as JSON and decodes the envelope's data into out. A 401
// tears the session down before the AuthError is returned.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &UnknownError{Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &UnknownError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnknownError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UnknownError{Status: resp.StatusCode, Message: "read response", Err: err}
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &UnknownError{Status: resp.StatusCode, Message: "decode response", Err: err}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errorFor(resp.StatusCode, env.Msg, env.Error)
		if resp.StatusCode == http.StatusUnauthorized {
			if err := c.session.Teardown(); err != nil {
				c.logger.Warn().Err(err).Msg("failed to clear stored session")
			}
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &UnknownError{Status: resp.StatusCode, Message: "decode data", Err: err}
	}
	return nil
}
