package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	pb "github.com/sbilibin2017/proto-exchange/exchange"
	"github.com/segmentio/kafka-go"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/config"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/facades"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/handlers"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/jwt"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/middlewares"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/repositories"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/scheduler"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/services"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-marketplace-settlement API
// @version 1.0.0
// @description Settlement core of a services marketplace: wallets, credits, orders and earnings
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild date: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// run connects the stores and providers, then serves HTTP and runs the
// maturity sweep schedule until a shutdown signal arrives.
func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)

	if err := repositories.Migrate(ctx, db.DB); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}
	defer rdb.Close()

	reader, closeReader, err := newRateReader(cfg)
	if err != nil {
		return err
	}
	defer closeReader()

	gateway, err := facades.NewSandboxGateway(cfg.GatewayPath)
	if err != nil {
		return fmt.Errorf("failed to open payment gateway: %w", err)
	}
	defer gateway.Close()

	notifier, closeNotifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	// Initialize repositories
	tx := repositories.NewTxManager(db)
	wallets := repositories.NewWalletRepository(db)
	earnings := repositories.NewEarningRepository(db)
	orders := repositories.NewOrderRepository(db)
	cancels := repositories.NewCancelOrderRepository(db)
	ops := repositories.NewOperationRepository(db)
	rateCache := repositories.NewExchangeRateCacheRepository(rdb)

	// Initialize services
	walletCfg := services.WalletConfig{Currency: cfg.BaseCurrency, Clearance: cfg.Clearance}
	rates := services.NewRateService(reader, rateCache, services.RateConfig{
		Base:          cfg.BaseCurrency,
		LatestTTL:     cfg.RatesLatestTTL,
		HistoricalTTL: cfg.RatesDatedTTL,
	})
	walletService := services.NewWalletService(tx, wallets, earnings, gateway, notifier, walletCfg)
	settlementService := services.NewSettlementService(
		tx, wallets, earnings, orders, cancels, ops,
		rates, gateway, notifier,
		services.NewCalculator(cfg.FeePercent, cfg.FixedFee),
		walletCfg,
	)
	sweeper := services.NewMaturitySweeper(tx, wallets, earnings, notifier, cfg.SweepBatchSize, cfg.SweepTimeout)

	sched := scheduler.New()
	if err := sched.Add("maturity_sweep", cfg.SweepSchedule, sweeper); err != nil {
		return err
	}

	tokens := jwt.New(jwt.WithSecretKey(cfg.JWTSecret))

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s/swagger/doc.json", cfg.AppAddr())),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.AuthMiddleware(tokens))
		handlers.RegisterRoutes(r, walletService, settlementService, rates, sweeper)
	})

	srv := &http.Server{
		Addr:              cfg.AppAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Infof("HTTP server listening on %s", cfg.AppAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sched.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		logger.Log.Info("HTTP server stopped gracefully")
		return nil
	})

	return g.Wait()
}

// newRateReader builds the configured exchange-rate provider.
func newRateReader(cfg *config.Config) (services.ExchangeRateReader, func(), error) {
	if cfg.RatesProvider == config.RatesHTTP {
		return facades.NewExchangeRatesHTTPFacade(cfg.RatesURL, cfg.RatesAccessKey, cfg.RatesTimeout, cfg.RatesRetries), func() {}, nil
	}

	conn, err := grpc.NewClient(cfg.ExchangerAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to gRPC service at %s: %w", cfg.ExchangerAddr(), err)
	}
	return facades.NewExchangeRatesGRPCFacade(pb.NewExchangeServiceClient(conn)), func() { conn.Close() }, nil
}

// newNotifier builds the configured event sinks. With no sink the returned
// notifier is nil and events are skipped.
func newNotifier(cfg *config.Config) (services.Notifier, func(), error) {
	var sinks facades.FanoutNotifier
	var closers []func() error

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Log.Errorw("failed to close event sink", "error", err)
			}
		}
	}

	for _, kind := range cfg.EventSinks {
		switch kind {
		case config.EventsKafka:
			w := &kafka.Writer{
				Addr:         kafka.TCP(cfg.KafkaBrokers...),
				Topic:        cfg.KafkaTopic,
				Balancer:     &kafka.Hash{},
				RequiredAcks: kafka.RequireAll,
			}
			sinks = append(sinks, facades.NewKafkaNotifier(w))
			closers = append(closers, w.Close)
		case config.EventsRabbitMQ:
			n, err := facades.DialRabbitMQNotifier(cfg.RabbitMQURL, cfg.RabbitMQTopic)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("RabbitMQ connection error: %w", err)
			}
			sinks = append(sinks, n)
			closers = append(closers, n.Close)
		}
	}

	if len(sinks) == 0 {
		return nil, func() {}, nil
	}
	return sinks, closeAll, nil
}
