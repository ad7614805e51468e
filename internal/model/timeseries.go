package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Bar is a single time-series record as sent by the API. Values arrive as quoted strings.
type Bar struct {
	Open   decimal.Decimal `json:"1. open"`
	High   decimal.Decimal `json:"2. high"`
	Low    decimal.Decimal `json:"3. low"`
	Close  decimal.Decimal `json:"4. close"`
	Volume decimal.Decimal `json:"5. volume"`
}

// SeriesMetaData describes a time-series payload.
type SeriesMetaData struct {
	Information   string `json:"information"`
	Symbol        string `json:"symbol"`
	LastRefreshed string `json:"last_refreshed"`
	OutputSize    string `json:"output_size,omitempty"`
	TimeZone      string `json:"time_zone"`
}

// UnmarshalJSON matches keys by name rather than by their numeric prefix,
// which differs between the monthly and daily payloads ("4. Time Zone" vs "5. Time Zone").
func (m *SeriesMetaData) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		name := k
		if i := strings.Index(k, ". "); i >= 0 {
			name = k[i+2:]
		}
		switch strings.ToLower(name) {
		case "information":
			m.Information = v
		case "symbol":
			m.Symbol = v
		case "last refreshed":
			m.LastRefreshed = v
		case "output size":
			m.OutputSize = v
		case "time zone":
			m.TimeZone = v
		}
	}
	return nil
}

// TimeSeriesResponse is a time-series payload keyed by date.
type TimeSeriesResponse struct {
	MetaData SeriesMetaData `json:"Meta Data"`
	Monthly  map[string]Bar `json:"Monthly Time Series,omitempty"`
	Daily    map[string]Bar `json:"Time Series (Daily),omitempty"`

	// Raw is the payload exactly as received.
	Raw []byte `json:"-"`
}

// MonthEndBars returns the monthly entries dated at the last day of their month, oldest first.
func (r *TimeSeriesResponse) MonthEndBars() ([]OHLCV, error) {
	bars, err := toBars(r.Monthly)
	if err != nil {
		return nil, err
	}
	for i := range bars {
		y, m, _ := bars[i].Time.Date()
		bars[i].Time = time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return bars, nil
}

// DailyBars returns the daily entries, oldest first.
func (r *TimeSeriesResponse) DailyBars() ([]OHLCV, error) {
	return toBars(r.Daily)
}

func toBars(series map[string]Bar) ([]OHLCV, error) {
	bars := make([]OHLCV, 0, len(series))
	for date, b := range series {
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		bars = append(bars, OHLCV{
			Time:   t,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
