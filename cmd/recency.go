package main

import (
	"github.com/spf13/cobra"
)

var recencyCmd = &cobra.Command{
	Use:   "recency",
	Short: "Compute the defect recency report",
	Long:  "Load the inputs, compute the last encountered column for every (submission, defect) pair and write the report to --output or stdout.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, cfg, err := loadService(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if _, err := svc.Compute(ctx); err != nil {
			return err
		}

		out := cfg.OutputPath
		if cmd.Flags().Changed("output") {
			out, _ = cmd.Flags().GetString("output")
		}
		if out == "" || out == "-" {
			return svc.Export(ctx, cmd.OutOrStdout())
		}
		return svc.ExportFile(ctx, out)
	},
}

func init() {
	recencyCmd.Flags().StringP("output", "o", "", "report path, - for stdout (overrides EDULOG_OUTPUT_PATH)")
}
