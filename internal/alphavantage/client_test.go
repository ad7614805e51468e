package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"TickerSentinel/internal/retry"
)

const searchBody = `{
  "bestMatches": [
    {"1. symbol": "AAPL", "2. name": "Apple Inc", "3. type": "Equity", "4. region": "United States",
     "5. marketOpen": "09:30", "6. marketClose": "16:00", "7. timezone": "UTC-04", "8. currency": "USD", "9. matchScore": "0.8889"},
    {"1. symbol": "AAPL.TRT", "2. name": "Apple CDR", "3. type": "Equity", "4. region": "Toronto",
     "5. marketOpen": "09:30", "6. marketClose": "16:00", "7. timezone": "UTC-05", "8. currency": "CAD", "9. matchScore": "0.6667"}
  ]
}`

const monthlyBody = `{
  "Meta Data": {
    "1. Information": "Monthly Prices (open, high, low, close) and Volumes",
    "2. Symbol": "AAPL",
    "3. Last Refreshed": "2024-05-31",
    "4. Time Zone": "US/Eastern"
  },
  "Monthly Time Series": {
    "2024-05-31": {"1. open": "169.5800", "2. high": "193.0000", "3. low": "169.1100", "4. close": "192.2500", "5. volume": "1336537425"},
    "2024-04-30": {"1. open": "171.1900", "2. high": "178.3600", "3. low": "164.0750", "4. close": "170.3300", "5. volume": "1245717000"}
  }
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, APIKeys: []string{"demo"}, Timeout: 5 * time.Second})
}

func TestSymbolSearch_TrimsToLimit(t *testing.T) {
	var gotQuery atomic.Value
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(searchBody))
	})

	res, err := c.SymbolSearch(context.Background(), "Apple", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.BestMatches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(res.BestMatches))
	}
	if res.BestMatches[0].Symbol != "AAPL" {
		t.Errorf("Symbol mismatch: got %s, want AAPL", res.BestMatches[0].Symbol)
	}

	q := gotQuery.Load().(url.Values)
	if q.Get("function") != "SYMBOL_SEARCH" || q.Get("keywords") != "Apple" || q.Get("apikey") != "demo" {
		t.Errorf("unexpected query: %v", q)
	}
}

func TestMonthlyTimeSeries_Decodes(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") != "TIME_SERIES_MONTHLY" || r.URL.Query().Get("symbol") != "AAPL" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(monthlyBody))
	})

	resp, err := c.MonthlyTimeSeries(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MetaData.Symbol != "AAPL" || resp.MetaData.LastRefreshed != "2024-05-31" {
		t.Errorf("unexpected metadata: %+v", resp.MetaData)
	}
	if resp.MetaData.TimeZone != "US/Eastern" {
		t.Errorf("TimeZone mismatch: got %s", resp.MetaData.TimeZone)
	}
	bar, ok := resp.Monthly["2024-05-31"]
	if !ok {
		t.Fatal("missing 2024-05-31 entry")
	}
	if !bar.Close.Equal(decimal.RequireFromString("192.25")) {
		t.Errorf("Close mismatch: got %s", bar.Close)
	}
	if string(resp.Raw) != monthlyBody {
		t.Error("raw payload not preserved")
	}
}

func TestQuery_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{"server error", http.StatusServiceUnavailable, "unavailable", true},
		{"too many requests", http.StatusTooManyRequests, "slow down", true},
		{"not found", http.StatusNotFound, "missing", false},
		{"throttle note", http.StatusOK, `{"Note": "Thank you for using Alpha Vantage!"}`, true},
		{"information notice", http.StatusOK, `{"Information": "rate limit reached"}`, true},
		{"error message", http.StatusOK, `{"Error Message": "Invalid API call."}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.MonthlyTimeSeries(context.Background(), "AAPL")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := retry.IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient = %v, want %v (err: %v)", got, tt.transient, err)
			}
			if _, ok := AsAPIError(err); !ok {
				t.Errorf("expected APIError in chain, got %T", err)
			}
		})
	}
}

func TestQuery_ConnectionErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	c := New(Options{BaseURL: baseURL, Timeout: time.Second})
	_, err := c.SymbolSearch(context.Background(), "Apple", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !retry.IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestQuery_CancelledContextNotTransient(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchBody))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SymbolSearch(ctx, "Apple", 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if retry.IsTransient(err) {
		t.Error("cancelled request must not be retried")
	}
}

func TestAPIKey_Rotation(t *testing.T) {
	c := New(Options{APIKeys: []string{"a", "b", "c"}})
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[c.apiKey()] = true
	}
	for _, k := range []string{"a", "b", "c"} {
		if !seen[k] {
			t.Errorf("key %q never chosen", k)
		}
	}
	if New(Options{}).apiKey() != "" {
		t.Error("expected empty key without configured keys")
	}
}

func TestSymbolSearch_MalformedBodyIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"html page", "<html>oops</html>"},
		{"matches not a list", `{"bestMatches":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			res, err := c.SymbolSearch(context.Background(), "Apple", 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res == nil || len(res.BestMatches) != 0 {
				t.Errorf("expected empty result, got %+v", res)
			}
		})
	}
}
