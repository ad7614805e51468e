package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TickerSentinel/internal/notifier"
	"TickerSentinel/internal/publisher"
	"TickerSentinel/internal/recorder"
	"TickerSentinel/internal/scheduler"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the retrieval scheduler and the Telegram bot",
	Long: `Run the retrieval scheduler and the Telegram bot until SIGINT or SIGTERM.

Set RUN_ON_START=true or pass --run-on-start to run the retrieval job once at startup.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "run the retrieval job immediately")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log.Info().Str("version", version).Msg("TickerSentinel starting")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Init publisher
	var pub publisher.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub = publisher.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka publisher enabled")
	} else {
		pub = publisher.NewNoopPublisher()
	}
	defer pub.Close()

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, cfg.Telegram.Retries)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, fetcher, rec, pub, tn, cfg.Instruments)
	if err := sched.RegisterAll(cfg.Schedule.RetrievalCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)

	if runOnStart {
		log.Info().Msg("run-on-start enabled, executing retrieval task now")
		go sched.RunRetrievalNow()
	}

	log.Info().Str("cron", cfg.Schedule.RetrievalCron).Strs("instruments", cfg.Instruments).Msg("TickerSentinel is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	return nil
}
