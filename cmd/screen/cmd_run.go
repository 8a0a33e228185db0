package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"CanSlim/internal/di"
	"CanSlim/internal/usecase"
	"CanSlim/pkg/config"
	"CanSlim/pkg/util"
)

var (
	runFrom    string
	runTo      string
	runTickers []string
	runPersist bool
	runPublish bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen a date window and print the run summary",
	Example: `  # Trailing window from canslim.lookback_days, config defaults for storage
  screen run

  # Explicit window and universe, no side effects
  screen run --from 2024-01-02 --to 2024-03-28 --tickers AAPL,MSFT --persist=false --publish=false`,
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runFrom, "from", "", "first day of the window (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runTo, "to", "", "last day of the window (YYYY-MM-DD)")
	runCmd.Flags().StringSliceVar(&runTickers, "tickers", nil, "candidate tickers, default from config")
	runCmd.Flags().BoolVar(&runPersist, "persist", true, "write signals and the run to ClickHouse")
	runCmd.Flags().BoolVar(&runPublish, "publish", true, "publish CANSLI_all hits to Kafka")
}

func runScreen(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return err
	}

	s, err := di.InitializeScreener(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	p := usecase.RunParams{Tickers: runTickers, Reason: "cli"}
	if runFrom == "" && runTo == "" {
		p.From, p.To = s.LatestWindow(cfg.CanSlim.LookbackDays)
	} else if p.From, p.To, err = util.ParseDateRange(runFrom, runTo); err != nil {
		return err
	}
	if cmd.Flags().Changed("persist") {
		p.Persist = &runPersist
	}
	if cmd.Flags().Changed("publish") {
		p.Publish = &runPublish
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.CanSlim.RunTimeout)
	defer cancel()

	summary, err := s.Run(ctx, p)
	if err != nil {
		return fmt.Errorf("screening %s..%s: %w", p.From.Format(time.DateOnly), p.To.Format(time.DateOnly), err)
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
