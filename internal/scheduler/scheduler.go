package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"TickerSentinel/internal/calculator"
	"TickerSentinel/internal/collector"
	"TickerSentinel/internal/model"
	"TickerSentinel/internal/notifier"
	"TickerSentinel/internal/publisher"
	"TickerSentinel/internal/recorder"
)

const retrievalJobName = "alphavantage-retrieval"

// Notifier delivers messages to the operator.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Scheduler manages the retrieval job and answers commands.
type Scheduler struct {
	Cron        *cron.Cron
	Fetcher     *collector.SeriesFetcher
	Recorder    recorder.Recorder
	Publisher   publisher.Publisher
	Notifier    Notifier
	Instruments []string
	Ctx         context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, f *collector.SeriesFetcher, rec recorder.Recorder, pub publisher.Publisher, n Notifier, instruments []string) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Fetcher:     f,
		Recorder:    rec,
		Publisher:   pub,
		Notifier:    n,
		Instruments: instruments,
		Ctx:         ctx,
	}
}

// RegisterAll registers the retrieval task.
func (s *Scheduler) RegisterAll(retrievalCron string) error {
	if _, err := s.Cron.AddFunc(retrievalCron, func() { s.retrievalTask() }); err != nil {
		return fmt.Errorf("register retrieval task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("instruments", len(s.Instruments)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunRetrievalNow executes the retrieval task immediately.
func (s *Scheduler) RunRetrievalNow() *recorder.JobExecution {
	job, _ := s.retrievalTask()
	return job
}

// retrievalTask reports whether the job summary was sent to the operator.
func (s *Scheduler) retrievalTask() (*recorder.JobExecution, bool) {
	log.Info().Int("instruments", len(s.Instruments)).Msg("running retrieval task")
	job := recorder.NewJobExecution(retrievalJobName)
	failures := make(map[string]error)

	for _, instrument := range s.Instruments {
		if err := s.retrieveInstrument(instrument); err != nil {
			log.Error().Err(err).Str("instrument", instrument).Msg("retrieval failed")
			failures[instrument] = err
			job.Failed++
			continue
		}
		job.Processed++
	}

	job.Finish()
	job.Message = fmt.Sprintf("processed %d of %d instruments", job.Processed, len(s.Instruments))
	if err := s.Recorder.RecordJobExecution(job); err != nil {
		log.Error().Err(err).Msg("record job execution")
	}
	log.Info().
		Str("job_id", job.ID.String()).
		Str("status", string(job.Status)).
		Int("processed", job.Processed).
		Int("failed", job.Failed).
		Dur("took", job.Duration()).
		Msg("retrieval task completed")

	if job.Failed == 0 {
		return job, false
	}
	s.trySend(notifier.FormatJobSummary(job, failures))
	return job, true
}

func (s *Scheduler) retrieveInstrument(instrument string) error {
	bars, err := s.Fetcher.FetchDailySeriesForLastWeek(s.Ctx, instrument)
	if err != nil {
		return err
	}
	if err := s.Recorder.RecordBars(instrument, model.GranularityDaily, bars); err != nil {
		return fmt.Errorf("record bars: %w", err)
	}
	if err := s.Publisher.PublishBars(s.Ctx, instrument, model.GranularityDaily, bars); err != nil {
		log.Warn().Err(err).Str("instrument", instrument).Msg("publish bars failed")
	}

	if price, ok, err := s.Recorder.LastClose(instrument, model.GranularityDaily); err != nil {
		log.Warn().Err(err).Str("instrument", instrument).Msg("read last close failed")
	} else if ok {
		log.Info().Str("instrument", instrument).Str("current_price", price.String()).Int("bars", len(bars)).Msg("instrument updated")
	}
	return nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	name, arg, _ := strings.Cut(strings.TrimSpace(command), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/ticker":
		if arg == "" {
			return "Usage: /ticker &lt;search&gt;"
		}
		ticker, ok, err := s.Fetcher.Resolver().Resolve(ctx, arg)
		if err != nil {
			return notifier.FormatError(arg, err)
		}
		if !ok {
			return notifier.FormatError(arg, &collector.ResolutionError{SearchText: arg})
		}
		return notifier.FormatTicker(arg, ticker)
	case "/monthly":
		if arg == "" {
			return "Usage: /monthly &lt;search&gt;"
		}
		report, err := s.MonthlyReport(ctx, arg)
		if err != nil {
			return notifier.FormatError(arg, err)
		}
		return report
	case "/daily":
		if arg == "" {
			return "Usage: /daily &lt;search&gt;"
		}
		bars, err := s.Fetcher.FetchDailySeriesForLastWeek(ctx, arg)
		if err != nil {
			return notifier.FormatError(arg, err)
		}
		return notifier.FormatDailyBars(arg, bars)
	case "/run":
		job, notified := s.retrievalTask()
		if notified {
			return ""
		}
		return notifier.FormatJobSummary(job, nil)
	default:
		return "Available commands:\n• /ticker &lt;search&gt;\n• /monthly &lt;search&gt;\n• /daily &lt;search&gt;\n• /run"
	}
}

// MonthlyReport fetches the monthly series for searchText, stores it and formats a summary.
func (s *Scheduler) MonthlyReport(ctx context.Context, searchText string) (string, error) {
	resp, err := s.Fetcher.FetchMonthlySeries(ctx, searchText)
	if err != nil {
		return "", err
	}
	bars, err := resp.MonthEndBars()
	if err != nil {
		return "", fmt.Errorf("monthly bars: %w", err)
	}
	symbol := resp.MetaData.Symbol
	if symbol == "" {
		symbol = searchText
	}
	if err := s.Recorder.RecordBars(symbol, model.GranularityMonthly, bars); err != nil {
		log.Error().Err(err).Str("ticker", symbol).Msg("record monthly bars")
	}
	return notifier.FormatMonthlySeries(resp, bars, calculator.Summarize(bars)), nil
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
