package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeafMist/list-digest/internal/config"
	"github.com/DeafMist/list-digest/internal/elasticsearch"
	"github.com/DeafMist/list-digest/internal/feed"
	"github.com/DeafMist/list-digest/internal/logger"
	"github.com/DeafMist/list-digest/internal/notify"
	"github.com/DeafMist/list-digest/internal/pipeline"
	"github.com/DeafMist/list-digest/internal/retry"
	"github.com/DeafMist/list-digest/internal/summary"
)

func main() {
	log := logger.New("newsletter")
	if err := newCommand(log).Execute(); err != nil {
		log.Error("newsletter generation failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func newCommand(log *slog.Logger) *cobra.Command {
	var (
		staticDir string
		sources   []string
		window    time.Duration
	)
	cmd := &cobra.Command{
		Use:           "newsletter",
		Short:         "Regenerate newsletter.json from last week's threads",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadNewsletter()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("static-dir") {
				cfg.StaticDir = staticDir
			}
			if cmd.Flags().Changed("source") {
				cfg.Sources = sources
			}
			if cmd.Flags().Changed("window") {
				cfg.Window = window
			}
			return run(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "output root (overrides STATIC_DIR)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "mailing-list archive URL, repeatable (overrides SOURCES)")
	cmd.Flags().DurationVar(&window, "window", 0, "look-back window (overrides FEED_WINDOW)")
	return cmd
}

func run(parent context.Context, cfg *config.Feed, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.New(cfg.Common, log)
	if err != nil {
		return fmt.Errorf("init elasticsearch: %w", err)
	}
	connect := retry.Policy{MaxRetries: cfg.Retry.MaxRetries, Delay: cfg.Retry.Delay, Log: log}
	if err := connect.Do(ctx, "ping elasticsearch", esClient.Ping); err != nil {
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
	pub := notify.New(cfg.Notify, log)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn("close publisher", slog.Any("err", err))
		}
	}()

	job := &pipeline.NewsletterJob{FeedJob: pipeline.NewFeedJob(cfg, esClient, sum, store, pub, log)}
	return job.Run(ctx)
}
