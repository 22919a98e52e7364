package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/contactimport/internal/config"
	"github.com/JonMunkholm/contactimport/internal/core"
	"github.com/JonMunkholm/contactimport/internal/events"
	"github.com/JonMunkholm/contactimport/internal/logging"
	"github.com/JonMunkholm/contactimport/internal/reportstore"
	"github.com/JonMunkholm/contactimport/internal/store/postgres"
	"github.com/JonMunkholm/contactimport/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	pool, err := postgres.Open(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if cfg.Database.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
	}

	var reports web.ReportStore
	if cfg.Redis.URL != "" {
		client, err := reportstore.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		reports = reportstore.NewRedis(client, cfg.Redis.ReportTTL)
		slog.Info("import reports stored in redis", "ttl", cfg.Redis.ReportTTL)
	} else {
		reports = reportstore.NewMemory(cfg.Redis.ReportTTL)
		slog.Warn("REDIS_URL not set, import reports kept in memory")
	}

	var publisher web.EventPublisher
	if cfg.Events.AMQPURL != "" {
		rabbit, err := events.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			slog.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbit.Close()
		publisher = rabbit
		slog.Info("publishing import events", "exchange", cfg.Events.Exchange)
	}

	store := postgres.NewStore(pool)
	service := core.NewService(store, store, core.ServiceOptions{
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		Timeout:       cfg.Import.Timeout,
	})

	slog.Info("import service ready",
		"xlsx", core.CurrentCapabilities().Spreadsheet,
		"max_concurrent", cfg.Import.MaxConcurrent,
		"default_mode", cfg.Import.DefaultMode,
	)

	server := web.NewServer(service, reports, publisher, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
