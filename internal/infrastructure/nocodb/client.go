package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/contentreview/backend/internal/domain"
)

const maxAttempts = 3

// Tables names the NocoDB tables the service reads and writes
type Tables struct {
	Parents  string
	Variants string
	Webhooks string
	Products string
}

// Config holds NocoDB connection settings
type Config struct {
	BaseURL           string
	Token             string
	BaseName          string
	Tables            Tables
	PageSize          int
	VariantPageSize   int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to the NocoDB REST API. Reads try the v2 records endpoint
// first and fall back to the two v1 data endpoints.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	token           string
	baseName        string
	tables          Tables
	pageSize        int
	variantPageSize int
	rateLimiter     *rate.Limiter
	logger          *zap.Logger
	backoff         func(attempt int) time.Duration
}

// NewClient creates a new NocoDB client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	variantPageSize := cfg.VariantPageSize
	if variantPageSize <= 0 {
		variantPageSize = 100
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		token:           cfg.Token,
		baseName:        cfg.BaseName,
		tables:          cfg.Tables,
		pageSize:        pageSize,
		variantPageSize: variantPageSize,
		rateLimiter:     rate.NewLimiter(limit, 10),
		logger:          logger.Named("nocodb"),
		backoff:         exponentialBackoff,
	}
}

// exponentialBackoff returns the wait before retrying attempt: 500ms, 1s, 2s
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500<<(attempt-1)) * time.Millisecond
}

// statusError is a non-2xx response
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// readEndpoints lists the read URLs for table in the order they are tried
func (c *Client) readEndpoints(table string) []string {
	endpoints := []string{fmt.Sprintf("%s/api/v2/tables/%s/records", c.baseURL, table)}
	if c.baseName != "" {
		endpoints = append(endpoints, fmt.Sprintf("%s/api/v1/db/data/noco/%s/%s", c.baseURL, c.baseName, table))
	}
	return append(endpoints, fmt.Sprintf("%s/api/v1/db/data/v1/%s", c.baseURL, table))
}

// do executes one request, retrying network failures, 429 and 5xx responses
func (c *Client) do(ctx context.Context, method, reqURL string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("xc-token", c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Debug("request failed", zap.String("url", reqURL), zap.Int("attempt", attempt), zap.Error(err))
			if !c.sleep(ctx, attempt) {
				return nil, ctx.Err()
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return respBody, nil
		}

		lastErr = &statusError{code: resp.StatusCode, body: string(respBody)}
		c.logger.Debug("unexpected status",
			zap.String("url", reqURL),
			zap.Int("attempt", attempt),
			zap.Int("status", resp.StatusCode))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, lastErr
		}
		if !c.sleep(ctx, attempt) {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// sleep waits for the backoff of attempt and reports false if ctx ended first
func (c *Client) sleep(ctx context.Context, attempt int) bool {
	if attempt >= maxAttempts {
		return true
	}
	d := c.backoff(attempt)
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// fetchRows reads table rows, trying each read endpoint until one succeeds
func (c *Client) fetchRows(ctx context.Context, table string, params url.Values) ([]json.RawMessage, error) {
	query := ""
	if len(params) > 0 {
		query = "?" + params.Encode()
	}

	var lastErr error
	for _, endpoint := range c.readEndpoints(table) {
		body, err := c.do(ctx, http.MethodGet, endpoint+query, nil)
		if err != nil {
			c.logger.Debug("endpoint failed", zap.String("endpoint", endpoint), zap.Error(err))
			lastErr = err
			continue
		}
		rows, err := decodeRecords(body)
		if err != nil {
			lastErr = err
			continue
		}
		return rows, nil
	}

	c.logger.Warn("all endpoints failed", zap.String("table", table), zap.Error(lastErr))
	return nil, fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, table, lastErr)
}

// patchRow updates one row: v2 takes the id in the body, v1 in the path
func (c *Client) patchRow(ctx context.Context, table string, id int64, patch map[string]interface{}) (json.RawMessage, error) {
	v2Body := make(map[string]interface{}, len(patch)+1)
	for k, v := range patch {
		v2Body[k] = v
	}
	v2Body["Id"] = id

	v2, err := json.Marshal(v2Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	v1, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}

	attempts := []struct {
		url  string
		body []byte
	}{
		{fmt.Sprintf("%s/api/v2/tables/%s/records", c.baseURL, table), v2},
	}
	if c.baseName != "" {
		attempts = append(attempts, struct {
			url  string
			body []byte
		}{fmt.Sprintf("%s/api/v1/db/data/noco/%s/%s/%d", c.baseURL, c.baseName, table, id), v1})
	}

	var lastErr error
	for _, a := range attempts {
		body, err := c.do(ctx, http.MethodPatch, a.url, a.body)
		if err != nil {
			c.logger.Debug("update endpoint failed", zap.String("endpoint", a.url), zap.Error(err))
			lastErr = err
			continue
		}
		return body, nil
	}

	c.logger.Warn("update failed", zap.String("table", table), zap.Int64("id", id), zap.Error(lastErr))
	return nil, fmt.Errorf("%w: update %s/%d: %v", domain.ErrStoreUnavailable, table, id, lastErr)
}

// eqFilter builds a NocoDB equality where clause
func eqFilter(column, value string) string {
	return fmt.Sprintf("(%s,eq,%s)", column, value)
}
