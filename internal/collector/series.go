package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"TickerSentinel/internal/model"
	"TickerSentinel/internal/retry"
)

const (
	opMonthlySeries = "monthly time series"
	opDailySeries   = "daily time series"
)

// SeriesFetcher resolves a search text to a ticker and retrieves its time series.
type SeriesFetcher struct {
	resolver *TickerResolver
	api      API
	policy   retry.Policy

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewSeriesFetcher creates a fetcher that shares api and policy with its own resolver.
func NewSeriesFetcher(api API, policy retry.Policy) *SeriesFetcher {
	return &SeriesFetcher{
		resolver: NewTickerResolver(api, policy),
		api:      api,
		policy:   policy,
		Now:      time.Now,
	}
}

// Resolver returns the resolver used by the fetcher.
func (f *SeriesFetcher) Resolver() *TickerResolver { return f.resolver }

// FetchMonthlySeries resolves searchText and returns the monthly series of the ticker as received.
func (f *SeriesFetcher) FetchMonthlySeries(ctx context.Context, searchText string) (*model.TimeSeriesResponse, error) {
	ticker, err := f.resolve(ctx, searchText)
	if err != nil {
		return nil, err
	}

	resp, err := retry.Value(ctx, f.policy, opMonthlySeries, func(ctx context.Context) (*model.TimeSeriesResponse, error) {
		return f.api.MonthlyTimeSeries(ctx, ticker)
	})
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("fetch monthly time series failed")
		return nil, &RetrievalError{Op: opMonthlySeries, SearchText: searchText, Ticker: ticker, Err: err}
	}

	log.Info().
		Str("ticker", ticker).
		Int("months", len(resp.Monthly)).
		Str("last_refreshed", resp.MetaData.LastRefreshed).
		Msg("retrieved monthly time series")
	if len(resp.Raw) > 0 {
		log.Debug().Str("ticker", ticker).RawJSON("payload", resp.Raw).Msg("monthly time series payload")
	}
	return resp, nil
}

// FetchDailySeriesForLastWeek returns the daily bars dated within the last seven days, oldest first.
func (f *SeriesFetcher) FetchDailySeriesForLastWeek(ctx context.Context, searchText string) ([]model.OHLCV, error) {
	ticker, err := f.resolve(ctx, searchText)
	if err != nil {
		return nil, err
	}

	resp, err := retry.Value(ctx, f.policy, opDailySeries, func(ctx context.Context) (*model.TimeSeriesResponse, error) {
		return f.api.DailyTimeSeries(ctx, ticker)
	})
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("fetch daily time series failed")
		return nil, &RetrievalError{Op: opDailySeries, SearchText: searchText, Ticker: ticker, Err: err}
	}
	bars, err := resp.DailyBars()
	if err != nil {
		return nil, &RetrievalError{Op: opDailySeries, SearchText: searchText, Ticker: ticker, Err: err}
	}

	today := f.today()
	lastWeek := today.AddDate(0, 0, -7)
	recent := make([]model.OHLCV, 0, 7)
	for _, b := range bars {
		if b.Time.After(lastWeek) && !b.Time.After(today) {
			recent = append(recent, b)
		}
	}

	log.Info().Str("ticker", ticker).Int("bars", len(recent)).Msg("retrieved daily time series")
	return recent, nil
}

// FetchTodayBar returns today's daily bar, if the API already has one.
func (f *SeriesFetcher) FetchTodayBar(ctx context.Context, searchText string) (*model.OHLCV, bool, error) {
	bars, err := f.FetchDailySeriesForLastWeek(ctx, searchText)
	if err != nil {
		return nil, false, err
	}
	today := f.today()
	for i := range bars {
		if bars[i].Time.Equal(today) {
			return &bars[i], true, nil
		}
	}
	return nil, false, nil
}

func (f *SeriesFetcher) resolve(ctx context.Context, searchText string) (string, error) {
	ticker, ok, err := f.resolver.Resolve(ctx, searchText)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ResolutionError{SearchText: searchText}
	}
	return ticker, nil
}

func (f *SeriesFetcher) today() time.Time {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
