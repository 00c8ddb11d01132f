// Package todoist fetches tasks from the Todoist REST API.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the REST v2 endpoint.
	DefaultBaseURL = "https://api.todoist.com/rest/v2"
	// DefaultTimeout bounds a whole Fetch request.
	DefaultTimeout = 10 * time.Second
)

// ErrNoToken is returned by Fetch when the client has no API token.
var ErrNoToken = errors.New("todoist: no API token")

// Task is one task record as returned by the API. Fields are kept opaque so
// that every attribute takes part in change detection.
type Task map[string]any

// Content returns the task title, or "" when absent.
func (t Task) Content() string {
	s, _ := t["content"].(string)
	return s
}

// Client talks to the Todoist API.
type Client struct {
	BaseURL string       // default DefaultBaseURL
	Token   string       // API token sent as a bearer credential
	HTTP    *http.Client // default has DefaultTimeout
	Logger  *slog.Logger // nil means slog.Default()
}

// NewClient returns a client for the public API.
func NewClient(token string) *Client {
	return &Client{Token: token}
}

// Fetch returns the tasks matching filter (for example "today"), in the
// order the API lists them, keeping at most limit of them when limit > 0.
func (c *Client) Fetch(ctx context.Context, filter string, limit int) ([]Task, error) {
	if c.Token == "" {
		return nil, ErrNoToken
	}
	log := c.logger()

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u := strings.TrimSuffix(base, "/") + "/tasks"
	if filter != "" {
		u += "?" + url.Values{"filter": {filter}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("todoist: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	log.LogAttrs(ctx, slog.LevelDebug, "Client.Fetch.begin", slog.String("filter", filter))
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("todoist: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("todoist: reading response: %w", err)
	}
	log.LogAttrs(ctx, slog.LevelDebug, "Client.Fetch.response",
		slog.Int("status", resp.StatusCode), slog.Int("bytes", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("todoist: unexpected status %s: %s", resp.Status, snippet(body))
	}

	tasks, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	log.LogAttrs(ctx, slog.LevelDebug, "Client.Fetch", slog.Int("tasks", len(tasks)))
	return tasks, nil
}

// Decode parses a JSON array of tasks. Numbers are kept as json.Number so a
// decoded task re-encodes to the same text.
func Decode(data []byte) ([]Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tasks []Task
	if err := dec.Decode(&tasks); err != nil {
		return nil, fmt.Errorf("todoist: decoding tasks: %w", err)
	}
	return tasks, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func snippet(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = s[:n] + "..."
	}
	return s
}
