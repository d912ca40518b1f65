// Package fundata talks to the external fund-data service: the open-fund
// list, single-fund quotes and NAV history. Responses are cached in-process
// so the catalog can be re-rendered without hammering the upstream.
package fundata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound means the upstream knows nothing about the requested code.
	ErrNotFound = errors.New("fund not found")
	// ErrUnavailable means the upstream could not be reached or answered badly.
	ErrUnavailable = errors.New("fund data service unavailable")
)

const (
	listCacheKey = "fund_list"
	quoteKeyFmt  = "quote:%s"
)

// Config holds client configuration
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	ListCacheTTL  time.Duration
	QuoteCacheTTL time.Duration
	Log           zerolog.Logger
}

// Client fetches fund data over HTTP.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	cache         *gocache.Cache
	listCacheTTL  time.Duration
	quoteCacheTTL time.Duration
	log           zerolog.Logger
}

// NewClient creates a new fund data client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	listTTL := cfg.ListCacheTTL
	if listTTL == 0 {
		listTTL = time.Hour
	}
	quoteTTL := cfg.QuoteCacheTTL
	if quoteTTL == 0 {
		quoteTTL = 5 * time.Minute
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		cache:         gocache.New(quoteTTL, 10*time.Minute),
		listCacheTTL:  listTTL,
		quoteCacheTTL: quoteTTL,
		log:           cfg.Log.With().Str("component", "fundata_client").Logger(),
	}
}

// List returns the open-fund list (popular funds). Cached for the
// configured list TTL, one hour by default.
func (c *Client) List(ctx context.Context) ([]FundInfo, error) {
	if cached, ok := c.cache.Get(listCacheKey); ok {
		return cached.([]FundInfo), nil
	}

	var funds []FundInfo
	if err := c.getJSON(ctx, "/api/funds/list", &funds); err != nil {
		return nil, err
	}

	// Backfill missing types from the code prefix
	for i := range funds {
		if funds[i].Type == "" {
			funds[i].Type = TypeForCode(funds[i].Code)
		}
	}

	c.cache.Set(listCacheKey, funds, c.listCacheTTL)
	c.log.Debug().Int("count", len(funds)).Msg("Fund list refreshed")

	return funds, nil
}

// Lookup returns the latest quote for a single fund code.
func (c *Client) Lookup(ctx context.Context, code string) (Quote, error) {
	key := fmt.Sprintf(quoteKeyFmt, code)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(Quote), nil
	}

	var quote Quote
	if err := c.getJSON(ctx, fmt.Sprintf("/api/funds/%s/quote", code), &quote); err != nil {
		return Quote{}, err
	}
	if quote.Code == "" {
		quote.Code = code
	}
	if quote.Timestamp.IsZero() {
		quote.Timestamp = time.Now()
	}

	c.cache.Set(key, quote, c.quoteCacheTTL)

	return quote, nil
}

// History returns up to limit days of NAV history, newest first.
func (c *Client) History(ctx context.Context, code string, limit int) ([]NavPoint, error) {
	var points []NavPoint
	path := fmt.Sprintf("/api/funds/%s/history?limit=%d", code, limit)
	if err := c.getJSON(ctx, path, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// Invalidate drops any cached quote for code so the next Lookup hits the
// upstream. Used by the explicit refresh endpoints.
func (c *Client) Invalidate(code string) {
	c.cache.Delete(fmt.Sprintf(quoteKeyFmt, code))
}

// getJSON performs a GET against the upstream and decodes the response.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("Fund data request failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("Fund data service returned error")
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}

	return nil
}
