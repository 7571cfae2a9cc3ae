// Package remote mirrors local record mutations to a backend over HTTP.
// Mirror calls are advisory: callers never wait on them before updating
// local state and never roll back when they fail.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Makepad-fr/qrgen/internal/model"
)

const (
	SavePath   = "/api/saveQRCode"
	RemovePath = "/api/removeQRCode"
)

// Mirror receives best-effort notifications of local mutations.
type Mirror interface {
	Save(ctx context.Context, rec model.Record) error
	Remove(ctx context.Context, index int, id string) error
}

// RemoveRequest is the body of a remove notification. Index is the
// position the record had before it was removed.
type RemoveRequest struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Path, e.Code)
}

// Nop is used when no mirror endpoint is configured.
type Nop struct{}

func (Nop) Save(context.Context, model.Record) error  { return nil }
func (Nop) Remove(context.Context, int, string) error { return nil }

// Client posts JSON to the two mirror endpoints under a base URL.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client for base (e.g. http://localhost:8080).
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Save(ctx context.Context, rec model.Record) error {
	return c.postJSON(ctx, SavePath, rec)
}

func (c *Client) Remove(ctx context.Context, index int, id string) error {
	return c.postJSON(ctx, RemovePath, RemoveRequest{Index: index, ID: id})
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, Code: resp.StatusCode}
	}
	return nil
}
