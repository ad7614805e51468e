package recorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"TickerSentinel/internal/model"
)

// JobStatus is the outcome of a retrieval job run.
type JobStatus string

const (
	JobCompleted JobStatus = "COMPLETED"
	JobPartial   JobStatus = "PARTIAL"
	JobFailed    JobStatus = "FAILED"
)

// JobExecution records one run of a scheduled job.
type JobExecution struct {
	ID         uuid.UUID
	JobName    string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     JobStatus
	Processed  int
	Failed     int
	Message    string
}

// NewJobExecution starts a record for jobName.
func NewJobExecution(jobName string) *JobExecution {
	return &JobExecution{ID: uuid.New(), JobName: jobName, StartedAt: time.Now()}
}

// Finish sets the end time and derives the status from the counters.
func (j *JobExecution) Finish() {
	j.FinishedAt = time.Now()
	switch {
	case j.Failed == 0:
		j.Status = JobCompleted
	case j.Processed == 0:
		j.Status = JobFailed
	default:
		j.Status = JobPartial
	}
}

// Duration returns how long the run took.
func (j *JobExecution) Duration() time.Duration {
	return j.FinishedAt.Sub(j.StartedAt)
}

// Recorder persists retrieved prices and job history.
type Recorder interface {
	RecordBars(symbol string, granularity model.Granularity, bars []model.OHLCV) error
	LastClose(symbol string, granularity model.Granularity) (decimal.Decimal, bool, error)
	RecordJobExecution(job *JobExecution) error
	Close() error
}
