package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Granularity names the bar interval of a series.
type Granularity string

const (
	GranularityDaily   Granularity = "DAILY"
	GranularityMonthly Granularity = "MONTHLY"
)

// SeriesStats holds summary statistics computed over a monthly series.
type SeriesStats struct {
	LastClose   decimal.Decimal
	MA12m       decimal.Decimal
	RSI14       decimal.Decimal
	High12m     decimal.Decimal
	Low12m      decimal.Decimal
	Position12m decimal.Decimal // 0.0 ~ 1.0
	Months      int
}
