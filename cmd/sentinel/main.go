package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TickerSentinel/internal/alphavantage"
	"TickerSentinel/internal/collector"
	"TickerSentinel/internal/config"
	"TickerSentinel/internal/logger"
)

const serviceName = "ticker-sentinel"

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string

	cfg     *config.Config
	fetcher *collector.SeriesFetcher
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Alpha Vantage ticker lookup and time-series retrieval",
	Long: `TickerSentinel resolves free-text instrument names to tickers and
retrieves their time series from Alpha Vantage.

Commands:
    ticker   <search>   resolve a search text to a ticker
    monthly  <search>   fetch the monthly time series
    daily    <search>   fetch the daily bars of the last week
    serve               run the scheduler and the Telegram bot
`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or configs/config.yaml)")

	rootCmd.AddCommand(tickerCmd)
	rootCmd.AddCommand(monthlyCmd)
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// setup loads config, initializes logging and builds the fetcher shared by all commands.
func setup(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:         cfg.Log.Level,
		Format:        cfg.Log.Format,
		FilePath:      cfg.Log.FilePath,
		RotationSize:  cfg.Log.RotationSize,
		RetentionDays: cfg.Log.RetentionDays,
		ServiceName:   serviceName,
		Version:       version,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	client := alphavantage.New(alphavantage.Options{
		BaseURL: cfg.AlphaVantage.BaseURL,
		APIKeys: cfg.AlphaVantage.APIKeys,
		Timeout: cfg.AlphaVantage.Timeout,
		Proxy:   cfg.Proxy,
	})
	fetcher = collector.NewSeriesFetcher(client, cfg.Retry)

	log.Debug().
		Str("config", path).
		Str("data_source", client.Name()).
		Int("api_keys", len(cfg.AlphaVantage.APIKeys)).
		Int("max_attempts", cfg.Retry.MaxAttempts).
		Dur("retry_delay", cfg.Retry.Delay).
		Msg("setup complete")
	return nil
}
