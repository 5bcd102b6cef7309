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

	"github.com/joao-fontenele/bookstore-api/internal/config"
	"github.com/joao-fontenele/bookstore-api/internal/email"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

const serviceName = "email"

func main() {
	cfg, err := config.Load("8084")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(serviceName)

	mux := http.NewServeMux()
	email.NewHandler(logger).Register(mux, func(fn http.HandlerFunc) http.HandlerFunc { return fn })

	var handler http.Handler = mux
	handler = httpx.WithRequestLog(serviceName, handler)
	handler = httpx.WithRequestID(logger, handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting email service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
