package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/DeafMist/list-digest/internal/config"
	"github.com/DeafMist/list-digest/internal/elasticsearch"
	"github.com/DeafMist/list-digest/internal/feed"
	"github.com/DeafMist/list-digest/internal/logger"
)

func main() {
	log := logger.New("api")
	if err := newCommand(log).Execute(); err != nil {
		log.Error("api failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func newCommand(log *slog.Logger) *cobra.Command {
	var (
		addr      string
		staticDir string
	)
	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Serve the generated feeds and Atom files over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAPI()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("addr") {
				cfg.BindAddr = addr
			}
			if cmd.Flags().Changed("static-dir") {
				cfg.StaticDir = staticDir
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides API_BIND_ADDR)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "generated files root (overrides STATIC_DIR)")
	return cmd
}

func serve(parent context.Context, cfg *config.API, log *slog.Logger) error {
	esClient, err := elasticsearch.New(cfg.Common, log)
	if err != nil {
		return fmt.Errorf("init elasticsearch: %w", err)
	}
	store, err := feed.NewStore(cfg.StaticDir)
	if err != nil {
		return err
	}

	srv := &server{log: log, es: esClient, store: store}
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr), slog.String("static", store.Root()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

type healthChecker interface {
	Health(ctx context.Context) error
}

type server struct {
	log   *slog.Logger
	es    healthChecker
	store *feed.Store
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/feeds/homepage", s.handleFile(feed.HomepageFile))
	r.Get("/feeds/newsletter", s.handleFile(feed.NewsletterFile))
	r.Get("/"+feed.PublicPrefix+"/*", s.handleStatic)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleFile(rel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveFile(w, r, rel)
	}
}

func (s *server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	cleaned := path.Clean("/" + rel)
	if rel == "" || strings.Contains(rel, "..") || cleaned == "/" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid path"})
		return
	}
	s.serveFile(w, r, strings.TrimPrefix(cleaned, "/"))
}

func (s *server) serveFile(w http.ResponseWriter, r *http.Request, rel string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ok, err := s.store.Exists(ctx, rel)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	data, err := s.store.Read(ctx, rel)
	if err != nil {
		s.log.Error("read generated file", slog.String("path", rel), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", contentType(rel))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentType(rel string) string {
	switch path.Ext(rel) {
	case ".xml":
		return "application/atom+xml; charset=utf-8"
	case ".json":
		return "application/json"
	case ".html":
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
