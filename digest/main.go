package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeafMist/list-digest/internal/archive"
	"github.com/DeafMist/list-digest/internal/config"
	"github.com/DeafMist/list-digest/internal/digest"
	"github.com/DeafMist/list-digest/internal/feed"
	"github.com/DeafMist/list-digest/internal/logger"
	"github.com/DeafMist/list-digest/internal/retry"
	"github.com/DeafMist/list-digest/internal/summary"
	"github.com/DeafMist/list-digest/internal/tokenizer"
)

func main() {
	log := logger.New("digest")
	if err := newCommand(log).Execute(); err != nil {
		log.Error("digest failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func newCommand(log *slog.Logger) *cobra.Command {
	var (
		archiveURL string
		outputDir  string
		title      string
	)
	cmd := &cobra.Command{
		Use:           "digest",
		Short:         "Summarize the past week of a pipermail archive into a newsletter",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDigest()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("archive-url") {
				cfg.ArchiveURL = archiveURL
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			return run(cmd.Context(), cfg, title, log)
		},
	}
	cmd.Flags().StringVar(&archiveURL, "archive-url", "", "pipermail list root (overrides DIGEST_ARCHIVE_URL)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "where CSV and HTML files go (overrides DIGEST_OUTPUT_DIR)")
	cmd.Flags().StringVar(&title, "title", "Weekly mailing-list digest", "newsletter heading")
	return cmd
}

func run(parent context.Context, cfg *config.Digest, title string, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	now := time.Now().UTC()
	stamp := strconv.FormatInt(now.Unix(), 10)

	tok, err := tokenizer.New(cfg.Summary.Encoding)
	if err != nil {
		return err
	}
	sum, err := summary.NewFromConfig(ctx, cfg.LLM, cfg.Summary, cfg.Retry, log)
	if err != nil {
		return fmt.Errorf("init summarizer: %w", err)
	}
	store, err := feed.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}

	scraper := archive.New(&http.Client{Timeout: 30 * time.Second}, retry.Policy{
		MaxRetries: cfg.Retry.MaxRetries,
		Delay:      cfg.Retry.Delay,
		Log:        log,
	}, log)

	urls, err := scraper.CollectURLs(ctx, cfg.ArchiveURL, now)
	if err != nil {
		return err
	}
	emails, err := scraper.ScrapeAll(ctx, urls)
	if err != nil {
		return err
	}
	week := archive.PastWeek(emails, now, cfg.Window, tok)
	log.Info("emails in window", slog.Int("scraped", len(emails)), slog.Int("kept", len(week)))
	if len(week) == 0 {
		log.Warn("no emails found for the past week, nothing to write")
		return nil
	}

	var buf bytes.Buffer
	if err := digest.WriteEmailsCSV(&buf, week); err != nil {
		return fmt.Errorf("render emails csv: %w", err)
	}
	if err := save(ctx, store, "df_week_"+stamp+".csv", buf.Bytes(), log); err != nil {
		return err
	}

	threads, err := digest.NewBuilder(sum, log).Build(ctx, week)
	if err != nil {
		return err
	}

	buf.Reset()
	if err := digest.WriteThreadsCSV(&buf, threads); err != nil {
		return fmt.Errorf("render threads csv: %w", err)
	}
	if err := save(ctx, store, "df_week_generated_"+stamp+".csv", buf.Bytes(), log); err != nil {
		return err
	}

	buf.Reset()
	if err := digest.WriteHTML(&buf, title, threads); err != nil {
		return fmt.Errorf("render newsletter: %w", err)
	}
	return save(ctx, store, "newsletter_"+stamp+".html", buf.Bytes(), log)
}

func save(ctx context.Context, store *feed.Store, name string, data []byte, log *slog.Logger) error {
	if err := store.Write(ctx, name, data); err != nil {
		return err
	}
	log.Info("saved file", slog.String("path", store.URL(name)))
	return nil
}
