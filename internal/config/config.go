package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings, loaded from FETCHBOX_* environment
// variables.
type Config struct {
	ListenAddr  string
	YtDlpPath   string
	DownloadDir string
	Concurrency int
	QueueSize   int

	// RetentionWindow is the maximum age an artifact may reach before the
	// sweeper deletes it; SweepInterval is how often the sweeper re-runs.
	RetentionWindow time.Duration
	SweepInterval   time.Duration

	// AllowedDomains restricts submitted URLs to the listed host suffixes.
	// Empty (the default) accepts any URL; the policy is deliberately off
	// unless configured.
	AllowedDomains []string

	// RateLimit is submissions/second per client IP. 0 (the default)
	// disables rate limiting entirely.
	RateLimit int

	CORSOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("FETCHBOX_LISTEN_ADDR", ":8080"),
		YtDlpPath:   getEnv("FETCHBOX_YTDLP_PATH", "yt-dlp"),
		DownloadDir: getEnv("FETCHBOX_DOWNLOAD_DIR", "downloads"),
	}

	var err error
	cfg.Concurrency, err = getEnvInt("FETCHBOX_CONCURRENCY", 3)
	if err != nil {
		return nil, fmt.Errorf("FETCHBOX_CONCURRENCY: %w", err)
	}
	if cfg.Concurrency < 1 {
		return nil, errors.New("FETCHBOX_CONCURRENCY must be > 0")
	}

	cfg.QueueSize, err = getEnvInt("FETCHBOX_QUEUE_SIZE", 100)
	if err != nil {
		return nil, fmt.Errorf("FETCHBOX_QUEUE_SIZE: %w", err)
	}
	if cfg.QueueSize < 1 {
		return nil, errors.New("FETCHBOX_QUEUE_SIZE must be > 0")
	}

	cfg.RetentionWindow, err = getEnvDuration("FETCHBOX_RETENTION_WINDOW", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FETCHBOX_RETENTION_WINDOW: %w", err)
	}

	cfg.SweepInterval, err = getEnvDuration("FETCHBOX_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FETCHBOX_SWEEP_INTERVAL: %w", err)
	}

	cfg.RateLimit, err = getEnvInt("FETCHBOX_RATE_LIMIT", 0)
	if err != nil {
		return nil, fmt.Errorf("FETCHBOX_RATE_LIMIT: %w", err)
	}

	cfg.AllowedDomains = splitList(os.Getenv("FETCHBOX_ALLOWED_DOMAINS"))
	cfg.CORSOrigins = splitList(os.Getenv("FETCHBOX_CORS_ORIGINS"))

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", v)
	}
	return d, nil
}
