package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-checkin/internal/auth"
	"ms-checkin/internal/checkin/checkin_api"
	checkin_db "ms-checkin/internal/checkin/db"
	"ms-checkin/internal/checkin/ledger"
	checkin "ms-checkin/internal/checkin/service"
	"ms-checkin/internal/config"
	"ms-checkin/internal/database/migrations"
	"ms-checkin/internal/kafka"
	"ms-checkin/internal/logger"
	"ms-checkin/internal/sse"
	"ms-checkin/internal/stats"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("REDIS", fmt.Sprintf("Redis unavailable, stats cache disabled: %v", err))
			redisClient = nil
		} else {
			logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
		}
	}

	return bunDB, redisClient
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(ww.Status()), time.Since(start).String())
		})
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Check-in Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Database.MigrationsDir,
			AutoMigrate:   true,
		})
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		logger.LogDatabase("MIGRATE", "tickets,scan_events", "schema migrations applied")
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.ScanAccepted}); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ScanAccepted, logger)
		defer producer.Close()
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		logger.Warn("KAFKA", "Kafka disabled, accepted scans will not be streamed")
	}

	ticketStore := &checkin_db.DB{Bun: bunDB}
	scanLedger := &ledger.Ledger{Bun: bunDB}
	scanFeed := sse.NewScanFeed()

	admissionService := checkin.NewAdmissionService(ticketStore, scanLedger, logger)
	admissionService.MaxRetries = cfg.Admission.MaxRetries
	admissionService.Feed = scanFeed
	if producer != nil {
		admissionService.Publisher = producer
	}

	membershipClient := stats.NewHTTPMembershipClient(cfg.Membership.BaseURL, &http.Client{
		Timeout: cfg.Membership.Timeout,
	})

	statsService := stats.NewService(ticketStore, scanLedger, logger)
	statsService.Redis = redisClient
	statsService.CacheTTL = cfg.Redis.StatsTTL
	statsService.Membership = membershipClient

	handler := &checkin_api.Handler{
		Admission:     admissionService,
		Stats:         statsService,
		Logger:        logger,
		ActivityLimit: cfg.Admission.ActivityLimit,
	}
	sseHandler := checkin_api.NewSSEHandler(logger, scanFeed)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	r.Route("/api/checkin", func(r chi.Router) {
		// --- Public routes: dashboards poll these without credentials ---
		r.Get("/stats", handler.GetStats)
		r.Get("/activity", handler.GetActivity)
		r.Get("/feed", sseHandler.HandleScanFeed)
		r.Get("/presence/{eventID}", handler.GetPresence)

		// --- Protected routes: gates, sale terminals, provisioning ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth.OIDCIssuer, cfg.Auth.Skip))

			r.Post("/scan", handler.Scan)
			r.Post("/sell", handler.Sell)
			r.Post("/ticket", handler.CreateTicket)
			r.Get("/ticket/{number}", handler.ViewTicket)
			r.Get("/ticket/{number}/qr", handler.TicketQR)
		})
	})
	if cfg.Auth.Skip {
		logger.Warn("AUTH", "Token verification disabled (CHECKIN_SKIP_AUTH)")
	} else {
		logger.Info("AUTH", "OIDC middleware applied to gate routes")
	}
	logger.Info("ROUTER", "Check-in routes registered under /api/checkin")

	// No WriteTimeout: the SSE feed holds its response open indefinitely.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Check-in Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Check-in Service shutdown complete")
	}
}
