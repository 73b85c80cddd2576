package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/edulog/internal/synth"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic submission log, defect matrix and catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		gen := synth.DefaultConfig()
		gen.Students, _ = flags.GetInt("students")
		gen.Submissions, _ = flags.GetInt("per-student")
		gen.Items, _ = flags.GetInt("items")
		gen.DefectRate, _ = flags.GetFloat64("defect-rate")
		gen.Seed, _ = flags.GetUint64("seed")
		gen.Workers = cfg.WorkerCount

		log, err := synth.Generate(cmd.Context(), gen)
		if err != nil {
			return err
		}
		dir, _ := flags.GetString("dir")
		paths, err := log.WriteFiles(dir, cfg.SeparatorRune())
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	def := synth.DefaultConfig()
	f := generateCmd.Flags()
	f.String("dir", ".", "output directory")
	f.Int("students", def.Students, "number of students")
	f.Int("per-student", def.Submissions, "submissions per student")
	f.Int("items", def.Items, "number of distinct tasks")
	f.Float64("defect-rate", def.DefectRate, "probability of each defect per submission")
	f.Uint64("seed", def.Seed, "generator seed")
}
