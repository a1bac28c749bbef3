// Package restapi talks to the hosted message store over its JSON REST interface.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrRemote }

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListMessages(ctx context.Context) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := c.do(ctx, http.MethodGet, "/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PostMessage submits msg. When the store echoes the stored record it is returned.
// A reply carrying only an id stamps that id on msg; any other reply returns msg
// unchanged, since a 2xx status means the message was stored.
func (c *Client) PostMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("encode message: %w", err)
	}

	raw, err := c.send(ctx, http.MethodPost, "/messages", body)
	if err != nil {
		return domain.Message{}, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return msg, nil
	}

	var echo domain.Message
	if err := json.Unmarshal(raw, &echo); err != nil {
		observability.LoggerFromContext(ctx).Warn("ignoring undecodable message echo", "error", err)
		return msg, nil
	}
	if echo.Sender == "" && echo.Receiver == "" {
		if echo.ID != "" {
			msg.ID = echo.ID
		}
		return msg, nil
	}
	return echo, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	raw, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// send performs the request and returns the body of a 2xx reply.
func (c *Client) send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	start := time.Now()
	log := observability.LoggerFromContext(ctx).With("method", method, "path", path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID := observability.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("request failed", "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	log.Debug("request done", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	return raw, nil
}
