// Command edulog computes defect recency reports over student submission logs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/okian/edulog/internal/app"
	"github.com/okian/edulog/internal/config"
	"github.com/okian/edulog/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "edulog",
	Short:         "Defect recency calculator for student submission logs",
	Long:          "edulog annotates every (submission, defect) pair with the number of submissions since the student last made the same mistake.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("submissions", "", "submission log path (overrides EDULOG_SUBMISSIONS_PATH)")
	f.String("defects", "", "defect presence matrix path (overrides EDULOG_DEFECTS_PATH)")
	f.String("catalog", "", "defect catalog path (overrides EDULOG_CATALOG_PATH)")
	f.String("log-level", "", "log level: debug, info, warn, error")
	f.Int("workers", 0, "number of recency workers")

	rootCmd.AddCommand(recencyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(prioritizeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := logger.Init(); err != nil {
		// logger isn't available yet
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Get().Error(ctx, "command failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// loadConfig layers command line flags over config.Load and applies the
// resulting log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := []struct {
		name string
		dst  *string
	}{
		{"submissions", &cfg.SubmissionsPath},
		{"defects", &cfg.DefectsPath},
		{"catalog", &cfg.CatalogPath},
		{"log-level", &cfg.LogLevel},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			v, _ := flags.GetString(o.name)
			*o.dst = v
		}
	}
	if flags.Changed("workers") {
		cfg.WorkerCount, _ = flags.GetInt("workers")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// newService builds a Service from cfg.
func newService(cfg *config.Config) *service.Service {
	return service.New(
		service.WithLogger(logger.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithSeparator(cfg.SeparatorRune()),
		service.WithEncodedAnswers(cfg.EncodedAnswers),
		service.WithSentinel(cfg.SentinelLabel),
		service.WithLegacyFallback(cfg.LegacyFallback),
	)
}

func sources(cfg *config.Config) (service.Sources, error) {
	src := service.Sources{
		Submissions: cfg.SubmissionsPath,
		Defects:     cfg.DefectsPath,
		Catalog:     cfg.CatalogPath,
	}
	if src.Submissions == "" || src.Defects == "" || src.Catalog == "" {
		return src, fmt.Errorf("%w: --submissions, --defects and --catalog are required", config.ErrInvalidConfig)
	}
	return src, nil
}

// loadService loads the configured inputs into a new Service.
func loadService(cmd *cobra.Command) (*service.Service, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	src, err := sources(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := newService(cfg)
	if _, err := svc.Load(cmd.Context(), src); err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}
