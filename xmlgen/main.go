package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeafMist/list-digest/internal/config"
	"github.com/DeafMist/list-digest/internal/elasticsearch"
	"github.com/DeafMist/list-digest/internal/feed"
	"github.com/DeafMist/list-digest/internal/logger"
	"github.com/DeafMist/list-digest/internal/pipeline"
	"github.com/DeafMist/list-digest/internal/retry"
	"github.com/DeafMist/list-digest/internal/summary"
)

func main() {
	log := logger.New("xmlgen")
	if err := newCommand(log).Execute(); err != nil {
		log.Error("xml generation failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func newCommand(log *slog.Logger) *cobra.Command {
	var (
		staticDir string
		sources   []string
		limit     int
	)
	cmd := &cobra.Command{
		Use:           "xmlgen",
		Short:         "Write a summarized Atom file for every indexed post",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadXML()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("static-dir") {
				cfg.StaticDir = staticDir
			}
			if cmd.Flags().Changed("source") {
				cfg.Sources = sources
			}
			if cmd.Flags().Changed("per-month") {
				cfg.PerMonthLimit = limit
			}
			return run(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "output root (overrides STATIC_DIR)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "mailing-list archive URL, repeatable (overrides SOURCES)")
	cmd.Flags().IntVar(&limit, "per-month", 0, "posts considered per month (overrides XML_PER_MONTH_LIMIT)")
	return cmd
}

func run(parent context.Context, cfg *config.XML, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.New(cfg.Common, log)
	if err != nil {
		return fmt.Errorf("init elasticsearch: %w", err)
	}
	esRetry := retry.Policy{MaxRetries: cfg.Retry.MaxRetries, Delay: cfg.Retry.Delay, Log: log}
	if err := esRetry.Do(ctx, "ping elasticsearch", esClient.Ping); err != nil {
		return err
	}
	log.Info("connected to elasticsearch")

	sum, err := summary.NewFromConfig(ctx, cfg.LLM, cfg.Summary, cfg.Retry, log)
	if err != nil {
		return fmt.Errorf("init summarizer: %w", err)
	}
	store, err := feed.NewStore(cfg.StaticDir)
	if err != nil {
		return err
	}

	job := &pipeline.XMLJob{
		Source:        esClient,
		Sum:           sum,
		Store:         store,
		Log:           log,
		Fetch:         esRetry,
		Sources:       cfg.Sources,
		PerMonthLimit: cfg.PerMonthLimit,
	}
	written, err := job.Run(ctx)
	if err != nil {
		return err
	}
	log.Info("xml generation finished", slog.Int("written", written))
	return nil
}
