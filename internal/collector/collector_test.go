package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TickerSentinel/internal/alphavantage"
	"TickerSentinel/internal/model"
	"TickerSentinel/internal/retry"
)

var testPolicy = retry.Policy{MaxAttempts: 2, Delay: time.Millisecond}

var refDate = time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

func appleAPI() *MockAPI {
	return &MockAPI{
		Matches: map[string][]model.SymbolMatch{
			"Apple": {{Symbol: "AAPL", Name: "Apple Inc"}, {Symbol: "AAPL.TRT", Name: "Apple CDR"}},
		},
		Monthly: map[string]*model.TimeSeriesResponse{
			"AAPL": GenerateMockSeries("AAPL", 190, 24, refDate, model.GranularityMonthly),
		},
		Daily: map[string]*model.TimeSeriesResponse{
			"AAPL": GenerateMockSeries("AAPL", 190, 30, refDate, model.GranularityDaily),
		},
	}
}

func TestResolve_FirstCandidate(t *testing.T) {
	api := appleAPI()
	r := NewTickerResolver(api, testPolicy)

	ticker, ok, err := r.Resolve(context.Background(), "Apple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || ticker != "AAPL" {
		t.Errorf("expected AAPL, got %q (ok=%v)", ticker, ok)
	}
	if api.SearchCalls != 1 {
		t.Errorf("expected 1 search call, got %d", api.SearchCalls)
	}
}

func TestResolve_NoCandidates(t *testing.T) {
	tests := []struct {
		name    string
		matches []model.SymbolMatch
	}{
		{"empty list", nil},
		{"blank symbol", []model.SymbolMatch{{Symbol: "  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockAPI{Matches: map[string][]model.SymbolMatch{"zzzNoMatch": tt.matches}}
			ticker, ok, err := NewTickerResolver(api, testPolicy).Resolve(context.Background(), "zzzNoMatch")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok || ticker != "" {
				t.Errorf("expected absent ticker, got %q (ok=%v)", ticker, ok)
			}
		})
	}
}

func TestResolve_TransientThenSuccess(t *testing.T) {
	api := appleAPI()
	api.SearchErrs = []error{retry.Transient(errors.New("503"))}

	ticker, ok, err := NewTickerResolver(api, testPolicy).Resolve(context.Background(), "Apple")
	if err != nil || !ok || ticker != "AAPL" {
		t.Fatalf("expected AAPL, got %q ok=%v err=%v", ticker, ok, err)
	}
	if api.SearchCalls != 2 {
		t.Errorf("expected 2 search calls, got %d", api.SearchCalls)
	}
}

func TestResolve_TransientTwiceFails(t *testing.T) {
	api := appleAPI()
	api.SearchErrs = []error{
		retry.Transient(errors.New("timeout")),
		retry.Transient(errors.New("timeout")),
		retry.Transient(errors.New("timeout")),
	}

	_, ok, err := NewTickerResolver(api, testPolicy).Resolve(context.Background(), "Apple")
	if ok {
		t.Error("expected no ticker")
	}
	if !IsRetrievalError(err) {
		t.Fatalf("expected RetrievalError, got %T: %v", err, err)
	}
	if api.SearchCalls != 2 {
		t.Errorf("expected retry bounded at 1 (2 calls), got %d", api.SearchCalls)
	}
}

func TestFetchMonthlySeries_Apple(t *testing.T) {
	api := appleAPI()
	f := NewSeriesFetcher(api, testPolicy)

	resp, err := f.FetchMonthlySeries(context.Background(), "Apple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != api.Monthly["AAPL"] {
		t.Error("expected the downstream payload to be returned verbatim")
	}
	if len(api.Requested) != 1 || api.Requested[0] != "AAPL" {
		t.Errorf("expected one monthly request for AAPL, got %v", api.Requested)
	}
}

func TestFetchMonthlySeries_NoMatch(t *testing.T) {
	api := &MockAPI{Matches: map[string][]model.SymbolMatch{}}
	f := NewSeriesFetcher(api, testPolicy)

	_, err := f.FetchMonthlySeries(context.Background(), "zzzNoMatch")
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %T: %v", err, err)
	}
	if re.SearchText != "zzzNoMatch" {
		t.Errorf("SearchText mismatch: got %s", re.SearchText)
	}
	if IsRetrievalError(err) {
		t.Error("resolution miss must be distinct from retrieval failure")
	}
	if api.MonthlyCalls != 0 {
		t.Errorf("time-series endpoint must not be called, got %d calls", api.MonthlyCalls)
	}
	if api.SearchCalls != 1 {
		t.Errorf("expected 1 search call, got %d", api.SearchCalls)
	}
}

func TestFetchMonthlySeries_RetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantErr   bool
		wantCalls int
	}{
		{"transient then success", []error{retry.Transient(errors.New("502"))}, false, 2},
		{"transient twice", []error{retry.Transient(errors.New("502")), retry.Transient(errors.New("502"))}, true, 2},
		{"permanent", []error{errors.New("invalid api call")}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := appleAPI()
			api.MonthlyErrs = tt.errs
			_, err := NewSeriesFetcher(api, testPolicy).FetchMonthlySeries(context.Background(), "Apple")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var re *RetrievalError
				if !errors.As(err, &re) {
					t.Fatalf("expected RetrievalError, got %T", err)
				}
				if re.Ticker != "AAPL" {
					t.Errorf("Ticker mismatch: got %s", re.Ticker)
				}
			}
			if api.MonthlyCalls != tt.wantCalls {
				t.Errorf("expected %d monthly calls, got %d", tt.wantCalls, api.MonthlyCalls)
			}
		})
	}
}

func TestFetchMonthlySeries_SearchFailurePropagates(t *testing.T) {
	api := appleAPI()
	api.SearchErrs = []error{retry.Transient(errors.New("down")), retry.Transient(errors.New("down"))}

	_, err := NewSeriesFetcher(api, testPolicy).FetchMonthlySeries(context.Background(), "Apple")
	if !IsRetrievalError(err) || IsResolutionError(err) {
		t.Fatalf("expected RetrievalError only, got %v", err)
	}
	if api.MonthlyCalls != 0 {
		t.Errorf("expected no monthly calls, got %d", api.MonthlyCalls)
	}
}

func TestFetchDailySeriesForLastWeek_Window(t *testing.T) {
	api := appleAPI()
	f := NewSeriesFetcher(api, testPolicy)
	f.Now = func() time.Time { return refDate.Add(15 * time.Hour) }

	bars, err := f.FetchDailySeriesForLastWeek(context.Background(), "Apple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 7 {
		t.Fatalf("expected 7 bars, got %d", len(bars))
	}
	first, last := bars[0].Time, bars[len(bars)-1].Time
	if !first.Equal(refDate.AddDate(0, 0, -6)) || !last.Equal(refDate) {
		t.Errorf("unexpected window %s..%s", first.Format("2006-01-02"), last.Format("2006-01-02"))
	}

	today, ok, err := f.FetchTodayBar(context.Background(), "Apple")
	if err != nil || !ok {
		t.Fatalf("expected today's bar, ok=%v err=%v", ok, err)
	}
	if !today.Time.Equal(refDate) {
		t.Errorf("today bar dated %s", today.Time)
	}
}

func TestFetchTodayBar_NotYetPublished(t *testing.T) {
	f := NewSeriesFetcher(appleAPI(), testPolicy)
	f.Now = func() time.Time { return refDate.AddDate(0, 0, 1) }

	bar, ok, err := f.FetchTodayBar(context.Background(), "Apple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || bar != nil {
		t.Errorf("expected no bar for %s, got %+v", refDate.AddDate(0, 0, 1).Format("2006-01-02"), bar)
	}
}

func TestResolve_MalformedSearchResponseIsAbsent(t *testing.T) {
	for _, body := range []string{"", "<html>oops</html>", `{"bestMatches":{}}`} {
		t.Run(body, func(t *testing.T) {
			var seriesCalls int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("function") != "SYMBOL_SEARCH" {
					seriesCalls++
				}
				w.Write([]byte(body))
			}))
			t.Cleanup(srv.Close)
			api := alphavantage.New(alphavantage.Options{BaseURL: srv.URL, APIKeys: []string{"demo"}, Timeout: time.Second})

			ticker, ok, err := NewTickerResolver(api, testPolicy).Resolve(context.Background(), "Apple")
			if err != nil || ok || ticker != "" {
				t.Errorf("expected absent ticker, got (%q, %v, %v)", ticker, ok, err)
			}

			_, err = NewSeriesFetcher(api, testPolicy).FetchMonthlySeries(context.Background(), "Apple")
			if !IsResolutionError(err) {
				t.Errorf("expected ResolutionError, got %v", err)
			}
			if seriesCalls != 0 {
				t.Errorf("expected no time-series request, got %d", seriesCalls)
			}
		})
	}
}
