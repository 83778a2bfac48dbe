// Package client is a Go client for the notifyd RPC surface.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-notifyd/internal/domain"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notifyd: %d %s", e.Status, e.Message)
}

// Unwrap maps status codes back onto the domain sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrBadRequest
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	}
	return nil
}

// NotifyParams mirrors the Notify method arguments. ExpireTimeout is in
// milliseconds; -1 asks for the urgency default and 0 means never.
type NotifyParams struct {
	AppName       string         `json:"app_name"`
	ReplacesID    uint32         `json:"replaces_id,omitempty"`
	AppIcon       string         `json:"app_icon,omitempty"`
	Summary       string         `json:"summary"`
	Body          string         `json:"body,omitempty"`
	Actions       []string       `json:"actions,omitempty"`
	Hints         map[string]any `json:"hints,omitempty"`
	ExpireTimeout int32          `json:"expire_timeout"`
}

// Signal is one frame of the signal stream.
type Signal struct {
	Name    string
	EventID string
	Data    json.RawMessage
}

// ClosedSignal is the decoded data of a NotificationClosed frame.
type ClosedSignal struct {
	EventID string        `json:"event_id"`
	ID      uint32        `json:"id"`
	Reason  domain.Reason `json:"reason"`
}

// JournalEntry is one recorded closure as served by the journal route.
type JournalEntry struct {
	EventID        string   `json:"event_id"`
	NotificationID uint32   `json:"notification_id"`
	AppName        string   `json:"app_name"`
	AppIcon        string   `json:"app_icon,omitempty"`
	Summary        string   `json:"summary"`
	Body           string   `json:"body,omitempty"`
	Actions        []string `json:"actions,omitempty"`
	Urgency        string   `json:"urgency"`
	Reason         uint32   `json:"reason"`
	ReasonText     string   `json:"reason_text"`
	CreatedAt      string   `json:"created_at"`
	ClosedAt       string   `json:"closed_at"`
}

type Client struct {
	base  string
	token string
	http  *http.Client
}

type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL (for example
// http://127.0.0.1:3000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Notify(ctx context.Context, p NotifyParams) (uint32, error) {
	var out struct {
		ID uint32 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notifications", p, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// CloseNotification closes id with reason Closed. It reports whether a live
// notification was actually closed.
func (c *Client) CloseNotification(ctx context.Context, id uint32) (bool, error) {
	return c.close(ctx, http.MethodDelete, fmt.Sprintf("/v1/notifications/%d", id))
}

// DismissNotification closes id with reason Dismissed.
func (c *Client) DismissNotification(ctx context.Context, id uint32) (bool, error) {
	return c.close(ctx, http.MethodPost, fmt.Sprintf("/v1/notifications/%d/dismiss", id))
}

func (c *Client) close(ctx context.Context, method, path string) (bool, error) {
	var out struct {
		Closed bool `json:"closed"`
	}
	if err := c.do(ctx, method, path, nil, &out); err != nil {
		return false, err
	}
	return out.Closed, nil
}

func (c *Client) GetNotification(ctx context.Context, id uint32) (*domain.Notification, error) {
	var n domain.Notification
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/notifications/%d", id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) GetNotifications(ctx context.Context) (map[uint32]domain.Notification, error) {
	out := map[uint32]domain.Notification{}
	if err := c.do(ctx, http.MethodGet, "/v1/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCapabilities(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/v1/capabilities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetServerInformation(ctx context.Context) (domain.ServerInfo, error) {
	var out domain.ServerInfo
	err := c.do(ctx, http.MethodGet, "/v1/server-information", nil, &out)
	return out, err
}

// Journal returns recent closures recorded for appName.
func (c *Client) Journal(ctx context.Context, appName string, limit int) ([]JournalEntry, error) {
	path := "/v1/journal/" + url.PathEscape(appName)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []JournalEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Signals streams signals to fn until ctx is cancelled or the server closes
// the stream. Cancellation is not reported as an error.
func (c *Client) Signals(ctx context.Context, fn func(Signal)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/signals", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("open signal stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var cur Signal
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if cur.Name != "" {
				fn(cur)
			}
			cur = Signal{}
		case strings.HasPrefix(line, "event: "):
			cur.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "id: "):
			cur.EventID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "data: "):
			cur.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read signal stream: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Error == "" {
		env.Error = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: env.Error}
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
