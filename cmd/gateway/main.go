package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/bookstore-api/internal/config"
	"github.com/joao-fontenele/bookstore-api/internal/gateway"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
	"github.com/joao-fontenele/bookstore-api/internal/ratelimit"
	"github.com/joao-fontenele/bookstore-api/internal/telemetry"
)

const serviceName = "gateway"

func main() {
	cfg, err := config.Load("8080")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(serviceName)

	if err := cfg.Require("UPSTREAM_URL"); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	ctx := context.Background()
	providers, err := telemetry.Setup(ctx, serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = providers.Shutdown(context.Background()) }()

	var limiter gateway.Limiter
	if cfg.RedisAddr != "" && cfg.RateLimit > 0 {
		client, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Error("failed to create redis client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()

		fixed, err := ratelimit.NewFixedWindow(client, "bookstore:gateway", cfg.RateLimit, cfg.RateWindow)
		if err != nil {
			logger.Error("failed to create rate limiter", "error", err)
			os.Exit(1)
		}
		limiter = fixed
		logger.Info("rate limiting enabled", "limit", cfg.RateLimit, "window", cfg.RateWindow.String())
	} else {
		logger.Warn("REDIS_ADDR not set, rate limiting disabled")
	}

	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	h := gateway.NewHandler(gateway.NewServiceProxy(cfg.UpstreamURL, httpClient), limiter, logger)

	mux := http.NewServeMux()
	h.Register(mux, telemetry.WithHTTPRoute)
	mux.Handle("GET /metrics", providers.Metrics)

	var handler http.Handler = mux
	handler = h.RateLimit(handler)
	handler = httpx.WithRequestLog(serviceName, handler)
	handler = httpx.WithRequestID(logger, handler)
	handler = httpx.WithCORS(cfg.CORSOrigin, handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(handler, serviceName, otelhttp.WithSpanNameFormatter(telemetry.SpanName)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		logger.Info("starting gateway", "port", cfg.Port, "upstream", cfg.UpstreamURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
