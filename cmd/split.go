package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/edulog/internal/adapters/csvio"
	"github.com/okian/edulog/internal/domain/split"
	"github.com/okian/edulog/pkg/logger"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Assign students to train, validation and test partitions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, cfg, err := loadService(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("seed") {
			cfg.Seed, _ = flags.GetUint64("seed")
		}

		r := split.Ratios{Train: cfg.TrainPct, Val: cfg.ValPct, Test: cfg.TestPct}
		a, err := svc.Split(r, cfg.Seed)
		if err != nil {
			return err
		}
		logger.Get().Info(cmd.Context(), "students split",
			logger.Int(split.Train, len(a.Train)), logger.Int(split.Val, len(a.Val)), logger.Int(split.Test, len(a.Test)))

		out, _ := flags.GetString("output")
		w := csvio.NewWriter()
		if out == "" || out == "-" {
			return w.Split(cmd.OutOrStdout(), a.Rows())
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := w.Split(f, a.Rows()); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	},
}

func init() {
	splitCmd.Flags().StringP("output", "o", "", "assignment path, - for stdout")
	splitCmd.Flags().Uint64("seed", 0, "shuffle seed (overrides EDULOG_SEED)")
}
