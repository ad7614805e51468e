package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"TickerSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the given values over the specified period.
func CalculateSMA(values []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, errors.New("period must be positive")
	}
	if len(values) < period {
		return decimal.Zero, errors.New("not enough data for SMA calculation")
	}
	sum := decimal.Zero
	for i := len(values) - period; i < len(values); i++ {
		sum = sum.Add(values[i])
	}
	return sum.Div(decimal.NewFromInt(int64(period))), nil
}

// CalculateMA12m returns the 12-month simple moving average from monthly bars.
func CalculateMA12m(monthlyBars []model.OHLCV) (decimal.Decimal, error) {
	return CalculateSMA(extractCloses(monthlyBars), 12)
}

func extractCloses(bars []model.OHLCV) []decimal.Decimal {
	closes := make([]decimal.Decimal, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
