package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"TickerSentinel/internal/model"
)

var hundred = decimal.NewFromInt(100)

// CalculateRSI computes the Wilder-smoothed RSI over the given period.
// Requires at least period+1 bars. Returns 50 if data is insufficient.
func CalculateRSI(bars []model.OHLCV, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return decimal.NewFromInt(50), nil
	}

	closes := extractCloses(bars)
	p := decimal.NewFromInt(int64(period))
	pMinus1 := decimal.NewFromInt(int64(period - 1))

	avgGain, avgLoss := decimal.Zero, decimal.Zero
	for i := 1; i <= period; i++ {
		change := closes[i].Sub(closes[i-1])
		if change.IsPositive() {
			avgGain = avgGain.Add(change)
		} else {
			avgLoss = avgLoss.Sub(change)
		}
	}
	avgGain = avgGain.Div(p)
	avgLoss = avgLoss.Div(p)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i].Sub(closes[i-1])
		gain, loss := decimal.Zero, decimal.Zero
		if change.IsPositive() {
			gain = change
		} else {
			loss = change.Neg()
		}
		avgGain = avgGain.Mul(pMinus1).Add(gain).Div(p)
		avgLoss = avgLoss.Mul(pMinus1).Add(loss).Div(p)
	}

	if avgLoss.IsZero() {
		return hundred, nil
	}
	rs := avgGain.Div(avgLoss)
	return hundred.Sub(hundred.Div(rs.Add(decimal.NewFromInt(1)))), nil
}
