package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"stream-market/internal/auth"
	"stream-market/internal/blockchain"
	"stream-market/internal/config"
	"stream-market/internal/database"
	"stream-market/internal/escrow"
	"stream-market/internal/events"
	"stream-market/internal/handlers"
	"stream-market/internal/jobs"
	"stream-market/internal/lock"
	"stream-market/internal/logging"
	"stream-market/internal/metrics"
	"stream-market/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logging.NewLogger("main")
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.NewLoggerWithLevel("main", logging.ParseLevel(cfg.App.LogLevel))

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.Database.Driver, cfg.GetDSN(), log); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(database.GetDB()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	programID, err := solana.PublicKeyFromBase58(cfg.Solana.ProgramID)
	if err != nil {
		log.Fatal().Err(err).Str("program_id", cfg.Solana.ProgramID).Msg("invalid SOLANA_PROGRAM_ID")
	}
	ledger := escrow.NewLedger(programID, cfg.Solana.EscrowController)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	opts := []services.Option{
		services.WithMetrics(m),
		services.WithLogger(logging.NewLoggerWithLevel("market", log.GetLevel())),
	}

	// Distributed stream lock when Redis is configured
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
		}
		cancel()
		opts = append(opts, services.WithLocker(lock.NewRedisLocker(rdb, 30*time.Second, 10*time.Second)))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis stream lock")
	}

	// Event publishing when NATS is configured
	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL, nats.Name("stream-market"))
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("failed to connect to nats")
		}
		js, err := jetstream.New(nc)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create jetstream context")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := events.EnsureStream(ctx, js); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to ensure event stream")
		}
		cancel()
		opts = append(opts, services.WithPublisher(events.NewNATSPublisher(js)))
		log.Info().Str("url", cfg.NATS.URL).Msg("publishing events to nats")
	}

	// Initialize services
	marketService := services.NewMarketService(database.GetDB(), ledger, opts...)
	walletService := services.NewWalletService(database.GetDB(), cfg.App.AllowAirdrop, logging.NewLoggerWithLevel("wallet", log.GetLevel()))

	// Start expiry watcher
	expiryWatcher := jobs.NewExpiryWatcher(marketService, m, logging.NewLoggerWithLevel("expiry", log.GetLevel()), cfg.App.ExpiryScanInterval)
	go expiryWatcher.Start()

	// Set up Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logging.NewLoggerWithLevel("http", log.GetLevel())))

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000", // Local development
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	var chain handlers.ChainReader
	if cfg.Solana.RPCURL != "" {
		chain = blockchain.NewSolanaClient(cfg.Solana.RPCURL, programID)
		log.Info().Str("rpc_url", cfg.Solana.RPCURL).Msg("reading vaults from solana rpc")
	}

	handlerLog := logging.NewLoggerWithLevel("api", log.GetLevel())
	handlers.RegisterRoutes(router, handlers.Handlers{
		Auth:   handlers.NewAuthHandler(walletService, marketService, handlerLog),
		Stream: handlers.NewStreamHandler(marketService, ledger, handlerLog),
		Event:  handlers.NewEventHandler(marketService, chain, handlerLog),
		Wallet: handlers.NewWalletHandler(walletService, handlerLog),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Bool("airdrop", cfg.App.AllowAirdrop).
			Msg("server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	expiryWatcher.Stop()
	if nc != nil {
		if err := nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("nats drain failed")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := database.GetDB().DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("server exited")
}

// requestLogger logs one line per request at info, or warn for 5xx.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
