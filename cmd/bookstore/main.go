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

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/bookstore-api/internal/admin"
	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/cart"
	"github.com/joao-fontenele/bookstore-api/internal/catalog"
	"github.com/joao-fontenele/bookstore-api/internal/config"
	"github.com/joao-fontenele/bookstore-api/internal/health"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
	"github.com/joao-fontenele/bookstore-api/internal/messaging"
	"github.com/joao-fontenele/bookstore-api/internal/orders"
	"github.com/joao-fontenele/bookstore-api/internal/reviews"
	"github.com/joao-fontenele/bookstore-api/internal/telemetry"
)

const serviceName = "bookstore"

func main() {
	cfg, err := config.Load("5000")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(serviceName)
	slog.SetDefault(logger)

	if err := cfg.Require("POSTGRES_URL", "JWT_SECRET"); err != nil {
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

	instruments, err := telemetry.NewInstruments()
	if err != nil {
		logger.Error("failed to register instruments", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to create token manager", "error", err)
		os.Exit(1)
	}

	var publisher orders.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrdersTopic)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events will not be published")
	}

	books := catalog.NewBookRepository(db)
	categories := catalog.NewCategoryRepository(db)
	users := auth.NewUserRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	authService := auth.NewService(users, tokens)
	middleware := auth.NewMiddleware(authService)
	orderService := orders.NewService(orderRepo, publisher, instruments)
	reviewService := reviews.NewService(reviews.NewRepository(db), books, instruments)
	cartService := cart.NewService(cart.NewRepository(db), books)

	wrap := telemetry.WithHTTPRoute
	mux := http.NewServeMux()
	health.NewHandler(db, cfg.ServiceVersion).Register(mux, wrap)
	catalog.NewHandler(books, categories).Register(mux, wrap)
	auth.NewHandler(authService, middleware).Register(mux, wrap)
	cart.NewHandler(cartService).Register(mux, wrap, middleware)
	orders.NewHandler(orderService).Register(mux, wrap, middleware)
	reviews.NewHandler(reviewService).Register(mux, wrap, middleware)
	admin.NewHandler(admin.Deps{
		Books:      books,
		Categories: categories,
		Users:      users,
		Orders:     orderService,
		Ledger:     orderRepo,
		Reviews:    reviewService,
	}).Register(mux, wrap, middleware)
	mux.Handle("GET /metrics", providers.Metrics)

	var handler http.Handler = mux
	handler = httpx.WithRequestLog(serviceName, handler)
	handler = httpx.WithRequestID(logger, handler)
	handler = httpx.WithCORS(cfg.CORSOrigin, handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(handler, serviceName, otelhttp.WithSpanNameFormatter(telemetry.SpanName)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting bookstore api", "port", cfg.Port)
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
