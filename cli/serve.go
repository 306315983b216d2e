package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pledg/config"
	httpLayer "pledg/http"
	"pledg/logger"
	"pledg/metrics"
	"pledg/repository"
	"pledg/service"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the price poller",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	cache, closeCache := openCache(ctx, cfg.Cache)
	defer closeCache()

	store, err := openWaitlistStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.close()

	bounds := boundsFromConfig(cfg.Calculator)
	prices := service.NewPriceService(
		repository.NewHTTPPriceFeed(cfg.PriceFeed.URL, cfg.PriceFeed.Timeout),
		cache,
		recorder,
		service.PriceServiceOptions{
			Interval:      cfg.PriceFeed.Interval,
			FetchTimeout:  cfg.PriceFeed.Timeout,
			FallbackPrice: cfg.PriceFeed.FallbackPrice,
			CacheTTL:      cfg.Cache.PriceTTL,
		},
	)

	hub := httpLayer.NewHub(cfg.HTTP.AllowedOrigins)
	prices.Subscribe(hub.PublishPrice)

	calculator := service.NewCalculatorService(service.NewValidator(bounds), prices, recorder)
	terms := service.NewTermComparisonService(bounds)
	simulations := service.NewSimulationService(prices)
	waitlist := service.NewWaitlistService(store.repo, recorder)

	limiter := httpLayer.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateWindow)
	defer limiter.Stop()

	router := httpLayer.NewRouter(httpLayer.Dependencies{
		Calculator:     httpLayer.NewCalculatorHandler(calculator, terms, simulations),
		Waitlist:       httpLayer.NewWaitlistHandler(waitlist),
		Price:          httpLayer.NewPriceHandler(prices, calculator, hub),
		RateLimiter:    limiter,
		Recorder:       recorder,
		Gatherer:       registry,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Ready:          store.ready,

		TrustProxyHeaders: cfg.HTTP.TrustProxy,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return prices.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		logger.Info("http server listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server exited")
	return nil
}

func boundsFromConfig(c config.CalculatorConfig) service.Bounds {
	return service.Bounds{
		MinLoanAmount:   c.MinLoanAmount,
		MaxLoanAmount:   c.MaxLoanAmount,
		MinInterestRate: c.MinInterestRate,
		MinTermMonths:   c.MinTermMonths,
		MaxTermMonths:   c.MaxTermMonths,
		MaxCapitalGains: c.MaxCapitalGains,
	}
}

// openCache connects to redis when configured. An unreachable redis only
// loses the last-known-good price across restarts, so it degrades to memory.
func openCache(ctx context.Context, cfg config.CacheConfig) (repository.CacheRepository, func()) {
	if cfg.RedisURL == "" {
		return repository.NewMemoryCache(), func() {}
	}
	client, err := repository.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory price cache", zap.Error(err))
		return repository.NewMemoryCache(), func() {}
	}
	return repository.NewRedisCache(client, cfg.KeyPrefix), func() { _ = client.Close() }
}

type waitlistStore struct {
	repo  repository.WaitlistRepository
	ready httpLayer.ReadinessCheck
	close func()
}

// openWaitlistStore creates the one storage client of the process.
func openWaitlistStore(ctx context.Context, cfg config.StorageConfig) (waitlistStore, error) {
	switch cfg.Driver {
	case "mongo":
		client, err := repository.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return waitlistStore{}, err
		}
		repo := repository.NewWaitlistRepositoryMongo(client, cfg.MongoDatabase, cfg.MongoCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return waitlistStore{}, err
		}
		return waitlistStore{
			repo: repo,
			ready: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case "postgres":
		db, err := repository.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PostgresMaxConn)
		if err != nil {
			return waitlistStore{}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return waitlistStore{}, fmt.Errorf("postgres handle: %w", err)
		}
		return waitlistStore{
			repo:  repository.NewWaitlistRepositoryPostgres(db),
			ready: sqlDB.PingContext,
			close: func() { _ = sqlDB.Close() },
		}, nil

	default:
		logger.Warn("using in-memory waitlist store, signups are lost on restart")
		return waitlistStore{
			repo:  repository.NewWaitlistRepositoryMemory(),
			close: func() {},
		}, nil
	}
}
