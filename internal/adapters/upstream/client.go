// Package upstream is the HTTP client for the model API that serves
// categories, series, the dial score and the backtest history.
package upstream

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

	"golang.org/x/sync/singleflight"

	"github.com/crashcompass/compass/internal/domain/model"
	"github.com/crashcompass/compass/pkg/logger"
	"github.com/crashcompass/compass/pkg/metrics"
)

// Endpoint paths on the upstream API.
const (
	pathCategories = "/api/v1/fred/categories"
	pathSeries     = "/api/v1/fred/series/"
	pathDialScore  = "/api/v1/fred/dial_score"
	pathHistory    = "/api/v1/ml/history"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// Client fetches raw dashboard data. Identical concurrent requests share
// one round trip.
type Client struct {
	base  string
	h     *http.Client
	log   logger.Logger
	group singleflight.Group
}

// New creates a client for the API rooted at base.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		h:    &http.Client{Timeout: defaultTimeout},
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categories returns the category listing.
func (c *Client) Categories(ctx context.Context) (model.CategoryListing, error) {
	var out model.CategoryListing
	if err := c.getJSON(ctx, "categories", pathCategories, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = model.CategoryListing{}
	}
	return out, nil
}

// Series returns one series with its observations.
func (c *Client) Series(ctx context.Context, id string) (model.SeriesResponse, error) {
	var out model.SeriesResponse
	if err := c.getJSON(ctx, "series", pathSeries+url.PathEscape(id), &out); err != nil {
		return model.SeriesResponse{}, err
	}
	if out.SeriesID == "" {
		out.SeriesID = id
	}
	return out, nil
}

// DialScore returns the current dial score and its contributors.
func (c *Client) DialScore(ctx context.Context) (model.DialScore, error) {
	var out model.DialScore
	if err := c.getJSON(ctx, "dial_score", pathDialScore, &out); err != nil {
		return model.DialScore{}, err
	}
	return out, nil
}

// History returns the monthly backtest history, ascending by date.
func (c *Client) History(ctx context.Context) ([]model.HistoryPoint, error) {
	var out []model.HistoryPoint
	if err := c.getJSON(ctx, "history", pathHistory, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.HistoryPoint{}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	ch := c.group.DoChan(path, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		return c.fetch(context.WithoutCancel(ctx), endpoint, path)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res = <-ch:
	}
	if res.Shared {
		metrics.RecordUpstreamShared()
	}
	if res.Err != nil {
		return res.Err
	}

	if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
		c.log.Warn(ctx, "upstream decode failed", logger.String("endpoint", endpoint), logger.Error(err))
		metrics.RecordErrorByComponent("upstream", "decode")
		return fmt.Errorf("%w: %s: %w", ErrDecode, endpoint, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint, path string) ([]byte, error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RecordUpstreamRequest(endpoint, outcome, float64(time.Since(start).Microseconds())/1000)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		outcome = "error"
		c.log.Warn(ctx, "upstream request failed", logger.String("endpoint", endpoint), logger.Error(err))
		metrics.RecordErrorByComponent("upstream", "transport")
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "status_" + strconv.Itoa(resp.StatusCode)
		se := &StatusError{Status: resp.StatusCode, Detail: detail(body)}
		c.log.Debug(ctx, "upstream returned error status",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
			logger.String("detail", se.Detail))
		if !errors.Is(se, ErrNotFound) {
			metrics.RecordErrorByComponent("upstream", "status")
		}
		return nil, se
	}
	return body, nil
}

// detail extracts the "detail" field of an error body. Non-string details
// are rendered as raw JSON.
func detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	if bytes.Equal(payload.Detail, []byte("null")) {
		return ""
	}
	return string(payload.Detail)
}
