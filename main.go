package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appcart "github.com/Zhima-Mochi/minishop-cartmanager/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-cartmanager/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/config"
	domcart "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	cartworker "github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/cart/worker"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/catalogfile"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/outbox"
	redisstore "github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-cartmanager/internal/presentation/http"
)

type cartStore interface {
	domcart.Repository
	httppresentation.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	if err := run(cfg, baseLogger, systemLogger); err != nil {
		systemLogger.Error("service_exit", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, baseLogger, systemLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	logger := zaplogger.Wrap(baseLogger)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tel := infraobs.NewWithRegistry(oteltrace.New(cfg.ServiceName), logger, prometrics.New(reg, "", ""))

	products, err := catalogfile.Load(cfg.ProductsFile)
	if err != nil {
		return err
	}
	catalog, err := memory.NewCatalogRepository(products)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	systemLogger.Info("catalog_loaded",
		zap.String("file", cfg.ProductsFile),
		zap.Int("products", len(products)),
	)

	store, closeStore, err := newCartStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	bus := outbox.NewBus(logger, outbox.Options{})
	cartworker.New(bus, tel).Start()
	bus.Start(ctx)

	handler := httppresentation.NewHandler(httppresentation.Dependencies{
		Carts:    appcart.NewService(store, catalog, id.NewUUIDGenerator(), cfg.PublicBaseURL, tel),
		Checkout: appcart.NewCheckoutUseCase(store, catalog, bus, cfg.CheckoutMinItems, tel),
		Order:    appcart.NewOrderUseCase(store, bus, tel),
		Products: appcatalog.NewService(catalog, cfg.ProductListCap, tel),
		Store:    store,
		BaseURL:  cfg.PublicBaseURL,
	}, logger, tel)

	router := handler.Router()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		systemLogger.Info("http_server_start", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		} else {
			systemLogger.Info("http_server_stopped")
		}
		if err := bus.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("event bus stop: %w", err))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

func newCartStore(ctx context.Context, cfg config.Config, logger observability.Logger) (cartStore, func(), error) {
	keys := domcart.KeyScheme{Prefix: cfg.CartKeyPrefix}

	if cfg.CartStore == config.StoreMemory {
		logger.Warn("cart_store_in_memory", observability.F("reason", "CART_STORE=memory"))
		return memory.NewCartRepository(keys), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := redisstore.NewCartStore(client, redisstore.Options{Keys: keys, TTL: cfg.CartTTL})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("cart store: %w", err)
	}
	logger.Info("cart_store_connected",
		observability.F("addr", cfg.RedisAddr),
		observability.F("db", cfg.RedisDB),
	)
	return store, func() { _ = client.Close() }, nil
}
