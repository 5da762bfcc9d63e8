// Package cli implements the compassctl command line client.
package cli

import (
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
	"time"

	service "github.com/crashcompass/compass/internal/app"
	"github.com/crashcompass/compass/internal/domain/attribution"
)

// ErrRequest classifies failed API calls.
var ErrRequest = errors.New("compass request failed")

// APIError is a non-2xx answer from the compass API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("status %d %s", e.Status, http.StatusText(e.Status))
}

// Is reports every APIError as ErrRequest.
func (e *APIError) Is(target error) bool { return target == ErrRequest }

// Client talks to a running compass server.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the server at base.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Dashboard fetches the home page view.
func (c *Client) Dashboard(ctx context.Context) (service.Dashboard, error) {
	var out service.Dashboard
	err := c.do(ctx, http.MethodGet, "/v1/dashboard", nil, &out)
	return out, err
}

// Category fetches one category page.
func (c *Client) Category(ctx context.Context, slug string) (service.CategoryPage, error) {
	var out service.CategoryPage
	err := c.do(ctx, http.MethodGet, "/v1/categories/"+url.PathEscape(slug), nil, &out)
	return out, err
}

// History fetches the recession probability history.
func (c *Client) History(ctx context.Context) (service.History, error) {
	var out service.History
	err := c.do(ctx, http.MethodGet, "/v1/history", nil, &out)
	return out, err
}

// Explain posts contributors and returns the explanation of the top one.
func (c *Client) Explain(ctx context.Context, req service.ExplainRequest) (attribution.Explanation, error) {
	var out attribution.Explanation
	body, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, http.MethodPost, "/v1/explain", body, &out)
	return out, err
}

// Format asks the server for the axis label of v.
func (c *Client) Format(ctx context.Context, v float64) (string, error) {
	var out struct {
		Label string `json:"label"`
	}
	q := url.Values{"value": {strconv.FormatFloat(v, 'g', -1, 64)}}
	err := c.do(ctx, http.MethodGet, "/v1/format?"+q.Encode(), nil, &out)
	return out.Label, err
}

// Stats fetches service statistics.
func (c *Client) Stats(ctx context.Context) (service.Stats, error) {
	var out service.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Code, apiErr.Message = e.Code, e.Message
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrRequest, path, err)
	}
	return nil
}
