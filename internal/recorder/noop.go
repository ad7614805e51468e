package recorder

import (
	"github.com/shopspring/decimal"

	"TickerSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBars(_ string, _ model.Granularity, _ []model.OHLCV) error { return nil }
func (n *NoopRecorder) LastClose(_ string, _ model.Granularity) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}
func (n *NoopRecorder) RecordJobExecution(_ *JobExecution) error { return nil }
func (n *NoopRecorder) Close() error                            { return nil }
