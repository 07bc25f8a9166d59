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

	"github.com/anneth/shop/internal/cache"
	"github.com/anneth/shop/internal/config"
	h "github.com/anneth/shop/internal/http"
	"github.com/anneth/shop/internal/inventory"
	"github.com/anneth/shop/internal/logger"
	"github.com/anneth/shop/internal/metrics"
	"github.com/anneth/shop/internal/notification"
	"github.com/anneth/shop/internal/payment"
	"github.com/anneth/shop/internal/repository"
	s "github.com/anneth/shop/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	if err := cfg.ValidateAPI(); err != nil {
		fatal("invalid configuration", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Set up MongoDB connection
	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		fatal("failed to connect to MongoDB", err)
	}
	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		fatal("failed to create indexes", err)
	}
	slog.Info("connected to MongoDB", "database", cfg.MongoDatabase)

	cartRepo := repository.NewCartRepository(mongoDB)
	productRepo := repository.NewProductRepository(mongoDB)
	orderRepo := repository.NewOrderRepository(mongoDB)
	addressRepo := repository.NewAddressRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal("redis connection failed", err)
	}
	slog.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:  cfg.StripeSecretKey,
		Currency:   cfg.Currency,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	})

	publisher := notification.NewPublisher(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(registry, "api")

	cartService := s.NewCartService(cartRepo, cache.NewRedisCache(redisClient, cfg.CartCacheTTL), productRepo)
	checkoutService := s.NewCheckoutService(s.CheckoutDeps{
		Carts:          cartService,
		Payments:       s.NewPaymentHandler(gateway, cfg.PaymentTimeout),
		Addresses:      s.NewAddressHandler(addressRepo, cfg.StoreTimeout),
		Orders:         s.NewOrderHandler(orderRepo, cfg.StoreTimeout),
		Stock:          s.NewStockHandler(inventory.NewLedger(productRepo), cfg.StoreTimeout),
		Events:         publisher,
		Recorder:       serverMetrics,
		PublishTimeout: cfg.PublishTimeout,
	})

	router := h.NewRouter(h.RouterConfig{
		Carts:              h.NewCartHandler(cartService, cfg.RequestTimeout),
		Checkout:           h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		Orders:             h.NewOrderHandler(s.NewOrderService(orderRepo), cfg.RequestTimeout),
		Addresses:          h.NewAddressHandler(s.NewAddressService(addressRepo), cfg.RequestTimeout),
		Webhooks:           h.NewWebhookHandler(payment.NewWebhookVerifier(cfg.StripeWebhookSecret)),
		JWTSecret:          []byte(cfg.JWTSecret),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Metrics:            serverMetrics,
		MetricsHandler:     metrics.Handler(registry),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("shop api starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		slog.Error("failed to disconnect from MongoDB", "error", err)
	}

	slog.Info("server exited")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
