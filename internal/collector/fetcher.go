package collector

import (
	"context"

	"TickerSentinel/internal/model"
)

// API defines the downstream calls the resolver and fetcher depend on.
type API interface {
	SymbolSearch(ctx context.Context, keywords string, limit int) (*model.SearchResult, error)
	MonthlyTimeSeries(ctx context.Context, symbol string) (*model.TimeSeriesResponse, error)
	DailyTimeSeries(ctx context.Context, symbol string) (*model.TimeSeriesResponse, error)
	Name() string
}
