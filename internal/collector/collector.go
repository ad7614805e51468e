package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"TickerSentinel/internal/model"
)

// MockAPI returns controllable fixed data for development and testing.
// Queued errors are returned, one per call, before any data is served.
type MockAPI struct {
	mu sync.Mutex

	Matches map[string][]model.SymbolMatch
	Monthly map[string]*model.TimeSeriesResponse
	Daily   map[string]*model.TimeSeriesResponse

	SearchErrs  []error
	MonthlyErrs []error
	DailyErrs   []error

	SearchCalls  int
	MonthlyCalls int
	DailyCalls   int
	Requested    []string
}

func (m *MockAPI) Name() string { return "mock" }

func (m *MockAPI) SymbolSearch(_ context.Context, keywords string, limit int) (*model.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	if err := pop(&m.SearchErrs); err != nil {
		return nil, err
	}
	matches := m.Matches[keywords]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return &model.SearchResult{BestMatches: matches}, nil
}

func (m *MockAPI) MonthlyTimeSeries(_ context.Context, symbol string) (*model.TimeSeriesResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MonthlyCalls++
	m.Requested = append(m.Requested, symbol)
	if err := pop(&m.MonthlyErrs); err != nil {
		return nil, err
	}
	if resp, ok := m.Monthly[symbol]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("mock: no monthly series for %s", symbol)
}

func (m *MockAPI) DailyTimeSeries(_ context.Context, symbol string) (*model.TimeSeriesResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DailyCalls++
	m.Requested = append(m.Requested, symbol)
	if err := pop(&m.DailyErrs); err != nil {
		return nil, err
	}
	if resp, ok := m.Daily[symbol]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("mock: no daily series for %s", symbol)
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

// GenerateMockSeries builds a series of count bars around basePrice ending at end.
// Monthly series are keyed by month end, daily series by calendar day.
func GenerateMockSeries(symbol string, basePrice float64, count int, end time.Time, g model.Granularity) *model.TimeSeriesResponse {
	bars := make(map[string]model.Bar, count)
	base := decimal.NewFromFloat(basePrice)
	for i := 0; i < count; i++ {
		var t time.Time
		if g == model.GranularityMonthly {
			y, mo, _ := end.Date()
			t = time.Date(y, mo-time.Month(i)+1, 0, 0, 0, 0, 0, time.UTC)
		} else {
			t = end.AddDate(0, 0, -i)
		}
		p := base.Mul(decimal.NewFromFloat(1 - float64(i)*0.01))
		bars[t.Format("2006-01-02")] = model.Bar{
			Open:   p.Mul(decimal.NewFromFloat(0.99)),
			High:   p.Mul(decimal.NewFromFloat(1.02)),
			Low:    p.Mul(decimal.NewFromFloat(0.97)),
			Close:  p,
			Volume: decimal.NewFromInt(1000000),
		}
	}
	resp := &model.TimeSeriesResponse{
		MetaData: model.SeriesMetaData{Symbol: symbol, LastRefreshed: end.Format("2006-01-02"), TimeZone: "US/Eastern"},
	}
	if g == model.GranularityMonthly {
		resp.Monthly = bars
	} else {
		resp.Daily = bars
	}
	return resp
}
