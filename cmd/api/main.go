package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/sweettreats-backend/api/controllers"
	"github.com/angelmondragon/sweettreats-backend/api/routes"
	"github.com/angelmondragon/sweettreats-backend/internal/cart"
	"github.com/angelmondragon/sweettreats-backend/internal/orders"
	"github.com/angelmondragon/sweettreats-backend/internal/storage"
	"github.com/angelmondragon/sweettreats-backend/pkg/config"
	"github.com/angelmondragon/sweettreats-backend/pkg/db"
	"github.com/angelmondragon/sweettreats-backend/pkg/instance"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
	"github.com/angelmondragon/sweettreats-backend/pkg/metrics"
	"github.com/angelmondragon/sweettreats-backend/pkg/migrate"
	"github.com/angelmondragon/sweettreats-backend/pkg/pubsub"
	"github.com/angelmondragon/sweettreats-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Closed in reverse order on shutdown.
	var closers []io.Closer
	pingers := map[string]controllers.Pinger{}
	fail := func(msg string, err error) {
		logg.Error(ctx, msg, err)
		if cerr := closeAll(closers); cerr != nil {
			logg.Error(ctx, "error releasing resources", cerr)
		}
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			fail("failed to bootstrap redis", err)
		}
		closers = append(closers, redisClient)
		pingers["redis"] = redisClient
	}

	kv, err := openStorage(ctx, cfg, logg, redisClient, &closers)
	if err != nil {
		fail("failed to open cart storage", err)
	}

	shipping, err := cfg.Cart.Shipping()
	if err != nil {
		fail("invalid shipping configuration", err)
	}

	registerer := prometheus.NewRegistry()
	registerer.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(registerer)

	registry, err := cart.NewRegistry(kv, cart.Params{
		Key:              cfg.Cart.StorageKey,
		Logger:           logg,
		PlaceholderImage: cfg.Cart.PlaceholderImg,
		Shipping:         shipping,
		Observers:        []cart.Observer{cart.MetricsObserver(cartMetrics)},
	}, cart.WithMaxStores(cfg.Cart.MaxOpenScopes), cart.WithIdleTTL(cfg.Cart.ScopeIdleTTL))
	if err != nil {
		fail("failed to create cart registry", err)
	}
	closers = append(closers, registry)

	history, err := orders.NewHistory(kv, logg)
	if err != nil {
		fail("failed to create order history", err)
	}

	var publisher orders.Publisher = orders.NoopPublisher{}
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			fail("failed to bootstrap pubsub", err)
		}
		closers = append(closers, psClient)
		pingers["pubsub"] = psClient

		ordersPublisher, err := orders.NewPubSubPublisher(psClient.OrdersPublisher())
		if err != nil {
			fail("failed to create order publisher", err)
		}
		closers = append(closers, closerFunc(func() error {
			ordersPublisher.Stop()
			return nil
		}))
		publisher = ordersPublisher
	}

	ordersService, err := orders.NewService(history, publisher, cartMetrics, logg)
	if err != nil {
		fail("failed to create orders service", err)
	}

	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Carts:    registry,
		Orders:   ordersService,
		Gatherer: registerer,
		Pingers:  pingers,
	}
	if redisClient != nil {
		deps.Idempotency = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"storage_driver": cfg.Storage.Driver,
		"instance":       instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			fail("api server stopped unexpectedly", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = multierr.Append(server.Shutdown(shutdownCtx), closeAll(closers))
	if err != nil {
		logg.Error(serverCtx, "error during shutdown", err)
		os.Exit(1)
	}
	logg.Info(serverCtx, "api server stopped")
}

// openStorage builds the cart key-value backend selected by the storage driver.
func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, closers *[]io.Closer) (storage.KV, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case config.StorageDriverRedis:
		if redisClient == nil {
			return nil, errors.New("redis storage driver selected without redis configuration")
		}
		kv, err := storage.NewRedis(redisClient, cfg.Redis.ChangeChannel, logg)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, kv)
		return kv, nil

	case config.StorageDriverSQL:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, dbClient)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return nil, err
		}
		kv, err := storage.NewSQL(dbClient.DB())
		if err != nil {
			return nil, err
		}
		return kv, nil

	default:
		logg.Warn(ctx, "using in-memory cart storage; carts are lost on restart")
		return storage.NewMemory(), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func closeAll(closers []io.Closer) error {
	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i].Close())
	}
	return err
}
