// Package alphavantage is a thin HTTP client for the Alpha Vantage query API.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"TickerSentinel/internal/model"
	"TickerSentinel/internal/retry"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"

	functionSymbolSearch = "SYMBOL_SEARCH"
	functionMonthly      = "TIME_SERIES_MONTHLY"
	functionDaily        = "TIME_SERIES_DAILY"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKeys []string
	Timeout time.Duration
	Proxy   string
}

// Client calls the Alpha Vantage API. It holds no per-call state and is safe for concurrent use.
type Client struct {
	http *resty.Client
	keys []string
}

// New creates a client with optional proxy support.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Accept", "application/json")
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}

	return &Client{http: client, keys: opts.APIKeys}
}

func (c *Client) Name() string { return "alphavantage" }

// apiKey picks one of the configured keys at random.
func (c *Client) apiKey() string {
	switch len(c.keys) {
	case 0:
		return ""
	case 1:
		return c.keys[0]
	default:
		return c.keys[rand.IntN(len(c.keys))]
	}
}

// SymbolSearch returns the best matches for keywords, trimmed to limit when limit > 0.
// An undecodable body yields an empty result.
func (c *Client) SymbolSearch(ctx context.Context, keywords string, limit int) (*model.SearchResult, error) {
	body, err := c.query(ctx, map[string]string{
		"function": functionSymbolSearch,
		"keywords": keywords,
	})
	if err != nil {
		return nil, err
	}
	var result model.SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		log.Warn().Err(err).Str("keywords", keywords).Str("body", truncate(string(body), 200)).
			Msg("malformed symbol search response, treating as no matches")
		return &model.SearchResult{}, nil
	}
	if limit > 0 && len(result.BestMatches) > limit {
		result.BestMatches = result.BestMatches[:limit]
	}
	return &result, nil
}

// MonthlyTimeSeries returns the monthly series for symbol.
func (c *Client) MonthlyTimeSeries(ctx context.Context, symbol string) (*model.TimeSeriesResponse, error) {
	return c.timeSeries(ctx, functionMonthly, symbol, nil)
}

// DailyTimeSeries returns the most recent daily bars for symbol.
func (c *Client) DailyTimeSeries(ctx context.Context, symbol string) (*model.TimeSeriesResponse, error) {
	return c.timeSeries(ctx, functionDaily, symbol, map[string]string{"outputsize": "compact"})
}

func (c *Client) timeSeries(ctx context.Context, function, symbol string, extra map[string]string) (*model.TimeSeriesResponse, error) {
	params := map[string]string{
		"function": function,
		"symbol":   symbol,
	}
	for k, v := range extra {
		params[k] = v
	}
	body, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	var series model.TimeSeriesResponse
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("decode %s: %w", strings.ToLower(function), err)
	}
	series.Raw = body
	return &series, nil
}

// notice is the shape of the messages the API returns with a 200 status instead of data.
type notice struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (c *Client) query(ctx context.Context, params map[string]string) ([]byte, error) {
	function := params["function"]

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", c.apiKey()).
		Get("/query")
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", function, ctx.Err())
		}
		return nil, retry.Transient(fmt.Errorf("%s request: %w", function, err))
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		apiErr := &APIError{Function: function, StatusCode: resp.StatusCode(), Message: truncate(string(body), 200)}
		if apiErr.Temporary() {
			return nil, retry.Transient(apiErr)
		}
		return nil, apiErr
	}

	var n notice
	if err := json.Unmarshal(body, &n); err == nil {
		switch {
		case n.ErrorMessage != "":
			return nil, &APIError{Function: function, StatusCode: resp.StatusCode(), Message: n.ErrorMessage}
		case n.Note != "":
			return nil, retry.Transient(&APIError{Function: function, StatusCode: resp.StatusCode(), Message: n.Note, Throttled: true})
		case n.Information != "":
			return nil, retry.Transient(&APIError{Function: function, StatusCode: resp.StatusCode(), Message: n.Information, Throttled: true})
		}
	}
	return body, nil
}

// APIError describes a response the API answered with instead of data.
type APIError struct {
	Function   string
	StatusCode int
	Message    string
	Throttled  bool
}

func (e *APIError) Error() string {
	if e.Throttled {
		return fmt.Sprintf("alphavantage %s: throttled: %s", e.Function, e.Message)
	}
	return fmt.Sprintf("alphavantage %s: status %d: %s", e.Function, e.StatusCode, e.Message)
}

// Temporary reports whether the failure is worth retrying.
func (e *APIError) Temporary() bool {
	return e.Throttled || e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// AsAPIError extracts an APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
