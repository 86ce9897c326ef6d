package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ResearchDigest/internal/app"
	"ResearchDigest/internal/config"
	"ResearchDigest/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		lookbackDays int
		topic        string
		deliver      bool
	)

	root := &cobra.Command{
		Use:           "researchdigest",
		Short:         "Daily AI news and research paper digest pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the digest pipeline once and print the document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			return application.RunOnce(cmd.Context(), lookbackDays, topic, deliver)
		},
	}
	runCmd.Flags().IntVar(&lookbackDays, "lookback-days", 0, "how many days back to search (0 = configured default)")
	runCmd.Flags().StringVar(&topic, "topic", "", "optional research topic filter")
	runCmd.Flags().BoolVar(&deliver, "deliver", false, "deliver the digest to the configured webhook")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for on-demand digests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := withSignals(cmd.Context())
			defer stop()

			return application.Serve(ctx)
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the daily digest on the configured schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := withSignals(cmd.Context())
			defer stop()

			return application.Schedule(ctx)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			out, err := application.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	root.AddCommand(runCmd, serveCmd, scheduleCmd, statsCmd)
	return root
}

func buildApp() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.ForConfig(cfg.Logging.Level, cfg.Logging.Format)
	return app.New(cfg, logger)
}

func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
