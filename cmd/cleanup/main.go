package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"budget_backend/internal/app/maintenance"
	authadapters "budget_backend/internal/feature/auth/adapters"
	"budget_backend/internal/platform/config"
	infradb "budget_backend/internal/platform/db"
)

// cleanup removes expired one-time codes and revocation rows.
// Run it once from an external scheduler (e.g. Cloud Scheduler), or use
// "cleanup schedule" to keep it running on a cron spec.
func main() {
	config.LoadDotEnv(".env")

	rootCmd := &cobra.Command{
		Use:          "cleanup",
		Short:        "delete expired one-time codes and revocations",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := newJob()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			return job.Run(ctx)
		},
	}

	var spec string
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "run cleanup repeatedly on a cron spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := newJob()
			if err != nil {
				return err
			}
			s := maintenance.NewCronScheduler()
			if err := s.AddJob(job, spec); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			s.Run(ctx)
			slog.Info("scheduler stopped")
			return nil
		},
	}
	scheduleCmd.Flags().StringVar(&spec, "cron", envOr("CLEANUP_SCHEDULE", "@hourly"), "cron spec or descriptor")
	rootCmd.AddCommand(scheduleCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("cleanup failed", "error", err)
		os.Exit(1)
	}
}

func newJob() (*maintenance.CleanupJob, error) {
	window, err := config.VerifiedWindowFromEnv()
	if err != nil {
		return nil, err
	}
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		return nil, err
	}
	return maintenance.NewCleanupJob(authadapters.NewOTPGorm(db), authadapters.NewRevocationGorm(db), window), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
