package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"TickerSentinel/internal/model"
)

// CalculateRange scans the most recent lookback bars and returns the high and low.
func CalculateRange(bars []model.OHLCV, lookback int) (high, low decimal.Decimal, err error) {
	if len(bars) == 0 {
		return decimal.Zero, decimal.Zero, errors.New("no bars provided")
	}
	n := len(bars)
	start := n - lookback
	if start < 0 || lookback <= 0 {
		start = 0
	}
	high, low = bars[start].High, bars[start].Low
	for i := start + 1; i < n; i++ {
		if bars[i].High.GreaterThan(high) {
			high = bars[i].High
		}
		if bars[i].Low.LessThan(low) {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// CalculatePosition returns where the current price sits within the range (0.0~1.0).
func CalculatePosition(current, high, low decimal.Decimal) (decimal.Decimal, error) {
	if high.Equal(low) {
		return decimal.NewFromFloat(0.5), nil
	}
	if high.LessThan(low) {
		return decimal.Zero, errors.New("high must be >= low")
	}
	pos := current.Sub(low).Div(high.Sub(low))
	if pos.IsNegative() {
		pos = decimal.Zero
	}
	if pos.GreaterThan(decimal.NewFromInt(1)) {
		pos = decimal.NewFromInt(1)
	}
	return pos, nil
}
