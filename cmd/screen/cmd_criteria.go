package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"CanSlim/internal/domain/models"
	"CanSlim/internal/services/canslim"
	"CanSlim/internal/usecase"
	"CanSlim/pkg/config"
)

var criteriaOverrides struct {
	c, a, s, l float64
	n          int
}

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Print the effective criteria and their manifest",
	Long: `criteria prints the configured CANSLIM criteria with the pipeline defaults
filled in. It reads only the config file and needs no running services.`,
	Example: `  screen criteria --n 126 --s 2`,
	RunE:    runCriteria,
}

func init() {
	rootCmd.AddCommand(criteriaCmd)
	f := criteriaCmd.Flags()
	f.Float64Var(&criteriaOverrides.c, "c", 0, "quarterly EPS growth threshold")
	f.Float64Var(&criteriaOverrides.a, "a", 0, "annual EPS growth threshold")
	f.IntVar(&criteriaOverrides.n, "n", 0, "new-high lookback in trading days")
	f.Float64Var(&criteriaOverrides.s, "s", 0, "volume factor over the 50-day average")
	f.Float64Var(&criteriaOverrides.l, "l", 0, "return difference threshold against the market")
}

func runCriteria(cmd *cobra.Command, _ []string) error {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(b)
	if err != nil {
		return err
	}

	var req models.CriteriaRequest
	flags := cmd.Flags()
	if flags.Changed("c") {
		req.C = &criteriaOverrides.c
	}
	if flags.Changed("a") {
		req.A = &criteriaOverrides.a
	}
	if flags.Changed("n") {
		req.N = &criteriaOverrides.n
	}
	if flags.Changed("s") {
		req.S = &criteriaOverrides.s
	}
	if flags.Changed("l") {
		req.L = &criteriaOverrides.l
	}

	cr := req.Apply(cfg.CanSlim.Criteria)
	eff, err := canslim.EffectiveCriteria(&cr)
	if err != nil {
		return err
	}
	if err := canslim.NewCalculator(nil).Validate(eff); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), usecase.CriteriaView{Criteria: eff, Manifest: canslim.BuildManifest(eff)})
}
