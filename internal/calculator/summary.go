package calculator

import (
	"github.com/rs/zerolog/log"

	"TickerSentinel/internal/model"
)

// Summarize computes report statistics over monthly bars sorted oldest first.
// Indicators that lack data fall back to the last close.
func Summarize(monthlyBars []model.OHLCV) model.SeriesStats {
	stats := model.SeriesStats{Months: len(monthlyBars)}
	if len(monthlyBars) == 0 {
		return stats
	}
	stats.LastClose = monthlyBars[len(monthlyBars)-1].Close

	if ma, err := CalculateMA12m(monthlyBars); err != nil {
		log.Debug().Err(err).Msg("MA12m unavailable, using last close")
		stats.MA12m = stats.LastClose
	} else {
		stats.MA12m = ma
	}

	stats.RSI14, _ = CalculateRSI(monthlyBars, 14)

	// error only on empty input, excluded above
	stats.High12m, stats.Low12m, _ = CalculateRange(monthlyBars, 12)

	if pos, err := CalculatePosition(stats.LastClose, stats.High12m, stats.Low12m); err != nil {
		log.Warn().Err(err).Msg("12-month position calculation failed")
	} else {
		stats.Position12m = pos
	}
	return stats
}
