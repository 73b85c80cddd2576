package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	service "github.com/okian/edulog/internal/app"
	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/recency"
)

var levelNames = map[int]string{
	recency.LevelNever:    "first",
	recency.LevelDistant:  ">= 10",
	recency.LevelModerate: "5-9",
	recency.LevelRecent:   "2-4",
	recency.LevelLast:     "1",
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show descriptive statistics of the loaded dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, _, err := loadService(cmd)
		if err != nil {
			return err
		}
		if _, err := svc.Compute(cmd.Context()); err != nil {
			return err
		}
		top, _ := cmd.Flags().GetInt("top")
		sum, err := svc.Summarize(top)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), sum)
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("top", 10, "number of defects to rank, 0 for all")
}

func printSummary(w io.Writer, sum *service.Summary) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(w, "%s\n", cyan("Dataset"))
	fmt.Fprintf(w, "  students     %d\n", sum.Students)
	fmt.Fprintf(w, "  submissions  %d (%d correct)\n", sum.Submissions, sum.Correct)
	fmt.Fprintf(w, "  defects      %d\n", sum.Defects)
	fmt.Fprintf(w, "  gini         defects %s  students %s\n",
		giniColor(sum.DefectGini).Sprintf("%.3f", sum.DefectGini),
		giniColor(sum.StudentGini).Sprintf("%.3f", sum.StudentGini))

	fmt.Fprintf(w, "\n%s\n", cyan("Severity"))
	peak := 0
	for s := model.MinSeverity; s <= model.MaxSeverity; s++ {
		peak = max(peak, sum.Severity[s])
	}
	for s := model.MinSeverity; s <= model.MaxSeverity; s++ {
		fmt.Fprintf(w, "  %d  %-20s %d\n", s, bar(sum.Severity[s], peak, 20), sum.Severity[s])
	}

	fmt.Fprintf(w, "\n%s\n", cyan("Recency"))
	peak = 0
	for _, n := range sum.Levels {
		peak = max(peak, n)
	}
	for l := recency.LevelNever; l <= recency.LevelLast; l++ {
		fmt.Fprintf(w, "  %-9s %-20s %d\n", levelNames[l], bar(sum.Levels[l], peak, 20), sum.Levels[l])
	}

	fmt.Fprintf(w, "\n%s\n", cyan("Top defects"))
	if len(sum.Top) == 0 {
		fmt.Fprintf(w, "  %s\n", yellow("no defects recorded"))
		return
	}
	for _, d := range sum.Top {
		fmt.Fprintf(w, "  %3d. %-24s sev %d  %s\n", d.Rank, d.Name, d.Severity, yellow(strconv.Itoa(d.Count)))
	}
}

func giniColor(g float64) *color.Color {
	switch {
	case g >= 0.6:
		return color.New(color.FgRed, color.Bold)
	case g >= 0.3:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func bar(n, peak, width int) string {
	if peak == 0 {
		return ""
	}
	return strings.Repeat("#", n*width/peak)
}
