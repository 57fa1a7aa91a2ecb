package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-ticketing-api/internal/config"
	"event-ticketing-api/internal/database"
	"event-ticketing-api/internal/handlers"
	"event-ticketing-api/internal/metrics"
	"event-ticketing-api/internal/middleware"
	"event-ticketing-api/internal/repositories"
	"event-ticketing-api/internal/server"
	"event-ticketing-api/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.NewConnection(database.Config{
		Driver:   cfg.Database.Driver,
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("database connection established", "driver", db.Driver)

	applied, err := db.RunMigrations(ctx, logger)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("migrations complete", "applied", applied)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, db.Driver),
	)
	m := metrics.New(registry)

	eventRepo := repositories.NewEventRepository(db.DB)
	ticketRepo := repositories.NewTicketRepository(db.DB)

	checks := map[string]handlers.CheckFunc{"database": db.HealthCheck}

	var ledger services.CapacityLedger = eventRepo
	switch cfg.Ticketing.LedgerBackend {
	case "redis":
		client, err := database.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()

		ledger = repositories.NewRedisCapacityLedger(client, eventRepo)
		checks["redis"] = func(ctx context.Context) error {
			return database.RedisHealthCheck(ctx, client)
		}
		logger.Info("using redis capacity ledger")
	case "", "sql":
		logger.Info("using sql capacity ledger")
	default:
		return fmt.Errorf("unknown ledger backend %q", cfg.Ticketing.LedgerBackend)
	}

	ids := services.RandomIdentityGenerator{}
	clock := services.SystemClock{}
	audit := services.NewAuditService(repositories.NewAuditLogRepository(db.DB), ids, clock, logger)
	payments := services.NewSimulatedPaymentProcessor(cfg.Ticketing.PaymentDeclineAbove, ids, clock, logger)

	ticketService := services.NewTicketService(services.TicketServiceDeps{
		Events:   eventRepo,
		Tickets:  ticketRepo,
		Ledger:   ledger,
		Payments: payments,
		IDs:      ids,
		Clock:    clock,
		Metrics:  m,
		Audit:    audit,
		Logger:   logger,
	}, services.TicketServiceConfig{
		CancellationWindow: cfg.Ticketing.CancellationWindow,
		ExpiryAfterStart:   cfg.Ticketing.ExpiryAfterStart,
		Location:           cfg.Ticketing.Location(),
	})
	eventService := services.NewEventService(eventRepo, ledger, ids, clock, m, audit, logger)

	limiter := middleware.NewAttemptLimiter(cfg.Ticketing.CheckInAttempts, cfg.Ticketing.CheckInWindow)
	go limiter.Cleanup(ctx, time.Minute)

	tokens := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	router := server.NewRouter(server.Handlers{
		Tickets: handlers.NewTicketHandler(ticketService, logger),
		Events:  handlers.NewEventHandler(eventService, logger),
		Health:  handlers.NewHealthHandler(checks),
	}, server.RouterConfig{
		Auth:           middleware.NewAuthMiddleware(tokens, logger),
		CORS:           middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins),
		CheckInLimiter: limiter,
		Gatherer:       registry,
		Logger:         logger,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	return server.New(addr, router, logger).Run(ctx)
}
