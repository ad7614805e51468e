package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TickerSentinel/internal/collector"
	"TickerSentinel/internal/model"
	"TickerSentinel/internal/recorder"
)

// FormatTicker formats the result of a ticker lookup.
func FormatTicker(searchText, ticker string) string {
	return fmt.Sprintf("🔎 <b>%s</b> → <code>%s</code>", html.EscapeString(searchText), html.EscapeString(ticker))
}

// FormatMonthlySeries formats a monthly series summary.
func FormatMonthlySeries(resp *model.TimeSeriesResponse, bars []model.OHLCV, stats model.SeriesStats) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📅 <b>%s monthly</b> | last refreshed %s\n\n",
		html.EscapeString(resp.MetaData.Symbol), html.EscapeString(resp.MetaData.LastRefreshed)))
	b.WriteString(fmt.Sprintf("Last close: %s\n", stats.LastClose.StringFixed(2)))
	b.WriteString(fmt.Sprintf("MA12m: %s (%s)\n", stats.MA12m.StringFixed(2), deviation(stats.LastClose, stats.MA12m)))
	b.WriteString(fmt.Sprintf("12m range: %s – %s (position %s%%)\n",
		stats.Low12m.StringFixed(2), stats.High12m.StringFixed(2), stats.Position12m.Mul(decimal.NewFromInt(100)).StringFixed(0)))
	b.WriteString(fmt.Sprintf("RSI14 (monthly): %s\n", stats.RSI14.StringFixed(1)))
	b.WriteString(fmt.Sprintf("Months of data: %d\n", stats.Months))

	if n := len(bars); n > 0 {
		b.WriteString("\n<b>Recent months:</b>\n")
		start := n - 6
		if start < 0 {
			start = 0
		}
		for i := n - 1; i >= start; i-- {
			bar := bars[i]
			b.WriteString(fmt.Sprintf("  %s  O %s  H %s  L %s  C %s\n", bar.Time.Format("2006-01"),
				bar.Open.StringFixed(2), bar.High.StringFixed(2), bar.Low.StringFixed(2), bar.Close.StringFixed(2)))
		}
	}
	return b.String()
}

// FormatDailyBars formats last-week daily bars.
func FormatDailyBars(searchText string, bars []model.OHLCV) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | last 7 days\n\n", html.EscapeString(searchText)))
	if len(bars) == 0 {
		b.WriteString("No trading days in the last week.")
		return b.String()
	}
	for i := len(bars) - 1; i >= 0; i-- {
		bar := bars[i]
		b.WriteString(fmt.Sprintf("  %s  C %s  V %s\n", bar.Time.Format("2006-01-02"), bar.Close.StringFixed(2), bar.Volume.String()))
	}
	return b.String()
}

// FormatJobSummary formats the outcome of a retrieval run.
func FormatJobSummary(job *recorder.JobExecution, failures map[string]error) string {
	var b strings.Builder
	icon := "✅"
	switch job.Status {
	case recorder.JobPartial:
		icon = "⚠️"
	case recorder.JobFailed:
		icon = "❌"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n\n", icon, html.EscapeString(job.JobName), job.Status))
	b.WriteString(fmt.Sprintf("Processed: %d | Failed: %d | Took: %s\n", job.Processed, job.Failed, job.Duration().Round(time.Millisecond)))
	for name, err := range failures {
		b.WriteString(fmt.Sprintf("  • %s: %s\n", html.EscapeString(name), html.EscapeString(describe(err))))
	}
	return b.String()
}

// FormatError formats a lookup failure for the user.
func FormatError(searchText string, err error) string {
	return fmt.Sprintf("❌ %s: %s", html.EscapeString(searchText), html.EscapeString(describe(err)))
}

// describe keeps "no ticker" distinct from downstream failures.
func describe(err error) string {
	switch {
	case collector.IsResolutionError(err):
		return "no ticker found"
	case collector.IsRetrievalError(err):
		return "data retrieval failed, try again later"
	default:
		return err.Error()
	}
}

func deviation(value, base decimal.Decimal) string {
	if base.IsZero() {
		return "n/a"
	}
	pct := value.Sub(base).Div(base).Mul(decimal.NewFromInt(100))
	sign := ""
	if !pct.IsNegative() {
		sign = "+"
	}
	return sign + pct.StringFixed(1) + "%"
}
