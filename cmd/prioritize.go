package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/edulog/internal/domain/prioritize"
)

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize SUBMISSION_ID...",
	Short: "Rank the defects of submissions by severity, student or task context",
	Long: "Rank the defects found in each submission. --by picks the primary heuristic and --then breaks ties.\n" +
		"Heuristics: severity, frequency, characteristic, encountered, task.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		by, _ := flags.GetString("by")
		then, _ := flags.GetString("then")
		primary, err := prioritize.ParseHeuristic(by)
		if err != nil {
			return err
		}
		secondary, err := prioritize.ParseHeuristic(then)
		if err != nil {
			return err
		}

		svc, _, err := loadService(cmd)
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		w := cmd.OutOrStdout()
		for _, id := range args {
			ranked, err := svc.Prioritize(cmd.Context(), id, primary, secondary)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s  by %s, then %s\n", cyan(id), primary, secondary)
			if len(ranked) == 0 {
				fmt.Fprintln(w, "  no defects")
				continue
			}
			for _, d := range ranked {
				fmt.Fprintf(w, "  %d. %-24s %8.3f %8.3f\n", d.Rank, d.Name, d.Primary, d.Secondary)
			}
		}
		return nil
	},
}

func init() {
	prioritizeCmd.Flags().String("by", string(prioritize.Encountered), "primary heuristic")
	prioritizeCmd.Flags().String("then", string(prioritize.Severity), "tie-breaking heuristic")
}
