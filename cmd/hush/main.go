// Package main provides the hush binary entry point. It loads configuration
// from environment variables, wires the selected storage backend, and starts
// the HTTP server together with the expiry janitor and, when enabled, the
// ingestion queue consumer.
//
// The application flow:
//  1. Load defaults and apply environment variables.
//  2. Validate configuration.
//  3. Open the configured store (memory, sqlite, or redis).
//  4. Start the janitor and the ingest consumer.
//  5. Serve HTTP until SIGINT/SIGTERM, then drain gracefully.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"database/sql"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/config"
	"github.com/hushd/hush/internal/httpx"
	"github.com/hushd/hush/internal/ingest"
	"github.com/hushd/hush/internal/janitor"
	"github.com/hushd/hush/internal/store/memory"
	"github.com/hushd/hush/internal/store/redis"
	"github.com/hushd/hush/internal/store/sqlite"
)

// realClock implements app.Clock using time.Now.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(2)
	}
	return cfg
}

func ensureDataDir(dir string) string {
	if st, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
				slog.Error("failed to create data directory", "dir", dir, "err", mkErr)
				os.Exit(3)
			}
		} else {
			slog.Error("stat data directory", "dir", dir, "err", err)
			os.Exit(3)
		}
	} else if !st.IsDir() {
		slog.Error("data path not directory", "dir", dir)
		os.Exit(3)
	}
	return dir
}

func openSQLiteStore(cfg *config.Config, clock app.Clock) app.SecretStore {
	dataDir := ensureDataDir(cfg.DataDir)
	dbPath := filepath.Join(dataDir, "hush.db")
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		slog.Error("open sqlite driver", "err", err)
		os.Exit(4)
	}
	st, err := sqlite.New(db, clock)
	if err != nil {
		slog.Error("init sqlite schema", "err", err)
		os.Exit(4)
	}
	return st
}

func newRedisOptions(cfg *config.Config) *goredis.Options {
	return &goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func openStore(cfg *config.Config, clock app.Clock) app.SecretStore {
	switch cfg.Store {
	case "memory":
		return memory.New(clock)
	case "sqlite":
		return openSQLiteStore(cfg, clock)
	case "redis":
		st, err := redis.New(newRedisOptions(cfg), clock)
		if err != nil {
			slog.Error("connect redis", "addr", cfg.RedisAddr, "err", err)
			os.Exit(4)
		}
		return st
	default:
		slog.Error("unknown store backend", "store", cfg.Store)
		os.Exit(2)
		return nil
	}
}

func buildService(st app.SecretStore, cfg *config.Config, clock app.Clock) *app.Service {
	return &app.Service{Store: st, Clock: clock, DefaultTTL: cfg.DefaultTTL, MaxTTL: cfg.MaxTTL}
}

// openQueue returns the ingestion queue for the configured backend: a Redis
// list when a Redis address is in play, otherwise an in-process queue so the
// memory deployment still exposes the async path.
func openQueue(cfg *config.Config) ingest.Queue {
	if !cfg.IngestEnabled {
		return nil
	}
	if cfg.Store == "memory" && cfg.RedisAddr == "" {
		return ingest.NewMemQueue(1024)
	}
	client := goredis.NewClient(newRedisOptions(cfg))
	return ingest.NewRedisQueue(client, cfg.IngestQueue)
}

func buildHandler(svc *app.Service, st app.SecretStore, queue ingest.Queue) http.Handler {
	readiness := func(ctx context.Context) error { return st.Ping(ctx) }
	h := httpx.New(svc, maxRequestBody, readiness)
	if enq, ok := queue.(httpx.Enqueuer); ok {
		h.Queue = enq
	}
	return h.Router()
}

// maxRequestBody bounds request bodies well above the secret text cap so
// prompt, answer, and JSON framing fit without inviting abuse.
const maxRequestBody = 1 << 20

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func run() error {
	cfg := loadConfig()
	clock := realClock{}
	st := openStore(cfg, clock)
	defer st.Close()

	svc := buildService(st, cfg, clock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jan := janitor.New(st, janitor.Config{Interval: cfg.SweepInterval})
	jan.Start(ctx)
	defer jan.Stop()

	queue := openQueue(cfg)
	if queue != nil {
		consumer := ingest.New(queue, svc, slog.Default())
		consumer.Start(ctx)
		defer consumer.Stop()
	}

	srv := newServer(cfg, buildHandler(svc, st, queue))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Addr, "store", cfg.Store, "pid", os.Getpid())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
