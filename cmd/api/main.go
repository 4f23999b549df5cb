package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/clickbazaar/api/internal/di"
	"github.com/clickbazaar/api/internal/handlers"
	"github.com/clickbazaar/api/internal/payments"
	"github.com/clickbazaar/api/internal/platform/auth"
	"github.com/clickbazaar/api/internal/platform/config"
	"github.com/clickbazaar/api/internal/platform/database"
	"github.com/clickbazaar/api/internal/platform/idempotency"
	"github.com/clickbazaar/api/internal/platform/observability"
	"github.com/clickbazaar/api/internal/repositories/gormrepo"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.Open(ctx, cfg.Database, logger.Named("database"))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	registry, err := gormrepo.NewRegistry(db)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	idempotencyStore, redisClient := newIdempotencyStore(ctx, logger, cfg.Redis)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
	}
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	authenticator, err := auth.NewAuthenticator(auth.AuthenticatorConfig{Secret: cfg.Security.JWTSecret})
	if err != nil {
		logger.Fatal("failed to initialise authenticator", zap.Error(err))
	}

	gateways, err := newPaymentManager(cfg.Payments, logger.Named("gateways"))
	if err != nil {
		logger.Fatal("failed to initialise payment gateways", zap.Error(err))
	}
	if gateways == nil {
		logger.Warn("no payment gateways configured; card and bkash payments will be rejected")
	}

	container, err := di.NewContainer(di.Deps{
		Config:     cfg,
		Registry:   registry,
		UnitOfWork: registry,
		Gateways:   gateways,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to assemble services", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	svc := container.Services
	catalogHandlers := handlers.NewCatalogHandlers(svc.Catalog)
	checkoutHandlers := handlers.NewCheckoutHandlers(svc.Orders)
	orderHandlers := handlers.NewOrderHandlers(svc.Orders, svc.Payments)
	meHandlers := handlers.NewMeHandlers(svc.Rewards, svc.Support)
	adminHandlers := handlers.NewAdminHandlers(svc.Categories, svc.Support)
	healthHandlers := handlers.NewHealthHandlers(svc.System)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithCheckoutMiddlewares(authenticator.OptionalAuth(), idempotencyMiddleware),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithOrderMiddlewares(authenticator.RequireAuth(), idempotencyMiddleware),
		handlers.WithMeRoutes(meHandlers.Routes),
		handlers.WithMeMiddlewares(authenticator.RequireAuth()),
		handlers.WithAdminRoutes(adminHandlers.Routes),
		handlers.WithAdminMiddlewares(authenticator.RequireAdmin()),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("clickbazaar api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newIdempotencyStore prefers Redis so replays survive restarts and work
// across instances, falling back to the in-process store when Redis is not
// configured.
func newIdempotencyStore(ctx context.Context, logger *zap.Logger, cfg config.RedisConfig) (idempotency.Store, *redis.Client) {
	if strings.TrimSpace(cfg.Addr) == "" {
		logger.Info("redis not configured; using in-memory idempotency store")
		return idempotency.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("failed to reach redis", zap.Error(err))
	}

	store, err := idempotency.NewRedisStore(client)
	if err != nil {
		logger.Fatal("failed to initialise redis idempotency store", zap.Error(err))
	}
	return store, client
}

func newPaymentManager(cfg config.PaymentsConfig, logger *zap.Logger) (*payments.Manager, error) {
	providers := map[string]payments.Provider{}

	if strings.TrimSpace(cfg.StripeAPIKey) != "" {
		stripeProvider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
			APIKey: cfg.StripeAPIKey,
			Logger: observability.EventLogger(logger.Named("stripe")),
		})
		if err != nil {
			return nil, fmt.Errorf("stripe provider: %w", err)
		}
		providers["stripe"] = stripeProvider
	}

	if strings.TrimSpace(cfg.BkashBaseURL) != "" {
		bkashProvider, err := payments.NewBkashProvider(payments.BkashProviderConfig{
			BaseURL:   cfg.BkashBaseURL,
			AppKey:    cfg.BkashAppKey,
			AppSecret: cfg.BkashAppSecret,
			Logger:    observability.EventLogger(logger.Named("bkash")),
		})
		if err != nil {
			return nil, fmt.Errorf("bkash provider: %w", err)
		}
		providers["bkash"] = bkashProvider
	}

	if len(providers) == 0 {
		return nil, nil
	}
	return payments.NewManager(providers)
}
