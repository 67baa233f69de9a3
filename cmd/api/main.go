package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tmnkosi/bankgate/internal/auth"
	"github.com/tmnkosi/bankgate/internal/background"
	"github.com/tmnkosi/bankgate/internal/config"
	"github.com/tmnkosi/bankgate/internal/database"
	"github.com/tmnkosi/bankgate/internal/handlers"
	"github.com/tmnkosi/bankgate/internal/ledger"
	middlewareCustom "github.com/tmnkosi/bankgate/internal/middleware"
	"github.com/tmnkosi/bankgate/internal/repositories"
	"github.com/tmnkosi/bankgate/internal/routes"
	"github.com/tmnkosi/bankgate/internal/services"
	pkghttp "github.com/tmnkosi/bankgate/pkg/http"
	pkglogger "github.com/tmnkosi/bankgate/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	if err := database.Migrate(&cfg.Database, logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Attempt ledger stores: Redis when configured, per-guard in-memory
	// maps otherwise. Each guard gets its own counters.
	var (
		loginStore    ledger.Store
		registerStore ledger.Store
		sweepers      []ledger.Sweeper
		redisHealth   func(context.Context) error
	)
	if cfg.Throttle.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.Throttle.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()

		loginStore = ledger.NewRedisStore(redisClient, "login")
		registerStore = ledger.NewRedisStore(redisClient, "register")
		redisHealth = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		logger.Info("attempt ledger backed by redis")
	} else {
		loginMem := ledger.NewMemoryStore()
		registerMem := ledger.NewMemoryStore()
		loginStore = loginMem
		registerStore = registerMem
		sweepers = append(sweepers, loginMem, registerMem)
		logger.Info("attempt ledger in memory, single-instance only")
	}

	loginLedger := ledger.New(loginStore, ledger.Config{
		FreeRetries: cfg.Throttle.Login.FreeRetries,
		MinWait:     cfg.Throttle.Login.MinWait,
		MaxWait:     cfg.Throttle.Login.MaxWait,
		Lifetime:    cfg.Throttle.Login.Lifetime,
		FailOpen:    cfg.Throttle.FailOpen,
		OpTimeout:   cfg.Throttle.OpTimeout,
	}, logger)

	registerLedger := ledger.New(registerStore, ledger.Config{
		FreeRetries: cfg.Throttle.Register.FreeRetries,
		MinWait:     cfg.Throttle.Register.MinWait,
		MaxWait:     cfg.Throttle.Register.MaxWait,
		Lifetime:    cfg.Throttle.Register.Lifetime,
		FailOpen:    cfg.Throttle.FailOpen,
		OpTimeout:   cfg.Throttle.OpTimeout,
	}, logger)

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	// Security services
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := &pkghttp.IPConfig{}

	loginGuard := middlewareCustom.NewThrottleGuard("login", loginLedger, ipConfig, auditLogger, logger)
	registerGuard := middlewareCustom.NewThrottleGuard("register", registerLedger, ipConfig, auditLogger, logger)

	// Cleanup manager sweeps aged-out attempt records from in-memory stores
	cleanupManager := background.NewCleanupManager(logger, cfg.Throttle.CleanupInterval, sweepers...)

	// Initialize services
	authService := services.NewAuthService(accountRepo, tokenManager, logger, auditLogger)
	accountService := services.NewAccountService(accountRepo, logger)
	paymentService := services.NewPaymentService(paymentRepo, accountRepo, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, accountHandler, paymentHandler, tokenManager, loginGuard, registerGuard)

	// Health check with backing stores
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")

		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		if redisHealth != nil {
			if err := redisHealth(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy","ledger":"down"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
