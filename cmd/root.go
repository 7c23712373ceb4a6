package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vendor-kpi/internal/config"
	"github.com/sells-group/vendor-kpi/internal/scorer"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vendor-kpi",
	Short: "Vendor KPI aggregation and scoring",
	Long: `Reads a procurement workbook (PO, GR, Invoices and Returns sheets), computes
seven per-vendor KPIs, min-max normalizes them into a composite 0-1 score
and exports the scored table as CSV, text, JSON, YAML or PNG charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadConfig reads and validates the configuration, including the scoring
// settings.
func loadConfig() (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := scorer.ValidateConfig(c.Scoring); err != nil {
		return nil, err
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading or processing data: %v\n", err)
		os.Exit(1)
	}
}
