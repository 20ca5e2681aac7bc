package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fetchbox/fetchbox/internal/api"
	"github.com/fetchbox/fetchbox/internal/config"
	"github.com/fetchbox/fetchbox/internal/engine"
	"github.com/fetchbox/fetchbox/internal/job"
	"github.com/fetchbox/fetchbox/internal/media"
	"github.com/fetchbox/fetchbox/internal/queue"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		slog.Error("create download dir", "dir", cfg.DownloadDir, "error", err)
		os.Exit(1)
	}

	store := job.NewStore()
	eng := engine.New(cfg.YtDlpPath)
	q := queue.New(cfg, store, eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	sweeper := &media.Sweeper{Dir: cfg.DownloadDir, Retention: cfg.RetentionWindow}
	sweeper.Start(ctx, cfg.SweepInterval)

	mux := http.NewServeMux()
	h := api.NewHandler(store, q, cfg)
	h.RegisterRoutes(mux)

	handler := api.Chain(mux,
		api.CORS(cfg.CORSOrigins),
		api.RequestID,
		api.Logging,
		api.RateLimit(cfg.RateLimit),
	)

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: SSE streams and artifact downloads are long-lived.
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("fetchbox listening", "addr", cfg.ListenAddr, "download_dir", cfg.DownloadDir)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
