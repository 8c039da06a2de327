// Command server starts the History AI Wiki HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/cache/rediscache"
	kafkaevents "github.com/fairyhunter13/history-ai-wiki/internal/adapter/events/kafka"
	httpserver "github.com/fairyhunter13/history-ai-wiki/internal/adapter/httpserver"
	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/observability"
	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/repo/postgres"
	tikaext "github.com/fairyhunter13/history-ai-wiki/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/history-ai-wiki/internal/app"
	"github.com/fairyhunter13/history-ai-wiki/internal/config"
	"github.com/fairyhunter13/history-ai-wiki/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process.
	observability.InitMetrics()

	// Tracing (no-op when OTLP_ENDPOINT is unset)
	shutdownTracing, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("tracing setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(ctx)
		}()
	}

	// Infra: DB pool
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Repositories
	cardRepo := postgres.NewCardRepo(pool)

	// Model gateway (Gemini)
	gateway := gemini.New(cfg)

	// External text extractor (Apache Tika)
	ext := tikaext.New(cfg.TikaURL)

	// Usecases
	aiSvc := usecase.NewAIService(gateway)
	cardSvc := usecase.NewCardService(cardRepo, aiSvc, ext, cfg.CardListDefaultLimit)
	if cfg.RedisAddr != "" {
		cardSvc.Cache = rediscache.New(cfg.RedisAddr, cfg.CardCacheTTL)
		slog.Info("card read cache enabled", slog.String("addr", cfg.RedisAddr))
	}
	if cfg.KafkaBrokers != "" {
		pub, err := kafkaevents.NewPublisher(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaCardsTopic)
		if err != nil {
			slog.Error("kafka publisher setup failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pub.Close()
		cardSvc.Events = pub
	}

	// Readiness checks
	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }
	tikaCheck := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.TikaURL+"/tika", nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("tika status %d", resp.StatusCode)
		}
		return nil
	}

	// HTTP server
	srv := httpserver.NewServer(cfg, cardSvc, aiSvc, dbCheck, tikaCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
