package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"TickerSentinel/internal/calculator"
	"TickerSentinel/internal/collector"
)

var monthlySummary bool

var tickerCmd = &cobra.Command{
	Use:   "ticker <search>",
	Short: "Resolve a search text to a ticker",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		ticker, ok, err := fetcher.Resolver().Resolve(cmd.Context(), text)
		if err != nil {
			return err
		}
		if !ok {
			return &collector.ResolutionError{SearchText: text}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ticker)
		return nil
	},
}

var monthlyCmd = &cobra.Command{
	Use:   "monthly <search>",
	Short: "Fetch the monthly time series of an instrument",
	Long: `Fetch the monthly time series of an instrument.

The payload is printed as received; use --summary for the derived indicators.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		resp, err := fetcher.FetchMonthlySeries(cmd.Context(), text)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !monthlySummary {
			_, err := out.Write(append(resp.Raw, '\n'))
			return err
		}

		bars, err := resp.MonthEndBars()
		if err != nil {
			return fmt.Errorf("monthly bars: %w", err)
		}
		stats := calculator.Summarize(bars)
		fmt.Fprintf(out, "%s monthly (last refreshed %s)\n", resp.MetaData.Symbol, resp.MetaData.LastRefreshed)
		fmt.Fprintf(out, "  last close  %s\n", stats.LastClose.StringFixed(2))
		fmt.Fprintf(out, "  MA12m       %s\n", stats.MA12m.StringFixed(2))
		fmt.Fprintf(out, "  12m range   %s - %s\n", stats.Low12m.StringFixed(2), stats.High12m.StringFixed(2))
		fmt.Fprintf(out, "  RSI14       %s\n", stats.RSI14.StringFixed(1))
		fmt.Fprintf(out, "  months      %d\n", stats.Months)
		return nil
	},
}

var dailyCmd = &cobra.Command{
	Use:   "daily <search>",
	Short: "Fetch the daily bars of the last week",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bars, err := fetcher.FetchDailySeriesForLastWeek(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, b := range bars {
			fmt.Fprintf(out, "%s  O %s  H %s  L %s  C %s  V %s\n", b.Time.Format("2006-01-02"),
				b.Open.StringFixed(2), b.High.StringFixed(2), b.Low.StringFixed(2), b.Close.StringFixed(2), b.Volume.String())
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	// No config needed.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", serviceName, version)
	},
}

func init() {
	monthlyCmd.Flags().BoolVar(&monthlySummary, "summary", false, "print derived indicators instead of the raw payload")
}
