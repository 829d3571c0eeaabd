package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/hotel_booking/internal/adapter/cache/redis"
	"github.com/srgjo27/hotel_booking/internal/adapter/codegen"
	"github.com/srgjo27/hotel_booking/internal/adapter/gateway"
	"github.com/srgjo27/hotel_booking/internal/adapter/handler"
	"github.com/srgjo27/hotel_booking/internal/adapter/repository/memory"
	"github.com/srgjo27/hotel_booking/internal/adapter/repository/postgres"
	"github.com/srgjo27/hotel_booking/internal/config"
	"github.com/srgjo27/hotel_booking/internal/core/ports"
	"github.com/srgjo27/hotel_booking/internal/core/services"
	"github.com/srgjo27/hotel_booking/internal/platform/database"
	"github.com/srgjo27/hotel_booking/internal/platform/logger"
	"github.com/srgjo27/hotel_booking/internal/platform/metrics"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	}).Info("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uow, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	log.Infof("Connecting to Redis at %s...", cfg.Redis.Address)
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Info("Redis connected")

	hotelCache := redis.NewHotelCache(redisClient, cfg.Redis.HotelTTL)
	scheduler := redis.NewTimeoutScheduler(redisClient)

	payGateway, err := newGateway(cfg.Payment)
	if err != nil {
		log.Fatalf("Failed to set up payment gateway: %v", err)
	}
	log.WithField("provider", payGateway.Provider()).Info("payment gateway ready")

	metrics.Register()

	ledger := services.NewInventoryLedger(log)
	codes := codegen.NewGenerator()

	bookingService := services.NewBookingService(uow, ledger, codes, payGateway, scheduler, hotelCache,
		services.BookingConfig{PaymentTimeout: cfg.Payment.Timeout, Currency: cfg.Payment.Currency}, log)
	paymentService := services.NewPaymentService(uow, ledger, codes, payGateway, hotelCache, log)
	reviewService := services.NewReviewService(uow, hotelCache, log)
	hotelService := services.NewHotelService(uow, hotelCache, cfg.Payment.Currency, log)

	worker := services.NewTimeoutWorker(paymentService, scheduler, uow.Bookings(), services.TimeoutWorkerConfig{
		PollInterval:  cfg.Payment.TimeoutPollInterval,
		SweepInterval: cfg.Payment.SweepInterval,
	}, log)
	go worker.Run(ctx)

	limiter := handler.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.RunCleanup(ctx, time.Minute, 10*time.Minute)

	validate := validator.New()
	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthenticator(cfg.Auth.JWTSecret, log),
		Limiter:        limiter,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Hotels:         handler.NewHotelHandler(hotelService, validate, log),
		Bookings:       handler.NewBookingHandler(bookingService, validate, log),
		Payments:       handler.NewPaymentHandler(paymentService, validate, log),
		Reviews:        handler.NewReviewHandler(reviewService, validate, log),
	}, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	var metricsServer *http.Server
	if cfg.Monitoring.PrometheusEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go serve(metricsServer, "metrics", log)
	}

	go serve(server, "api", log)

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Metrics server forced to shutdown")
		}
	}

	log.Info("Server exiting")
}

func serve(server *http.Server, name string, log logrus.FieldLogger) {
	log.Infof("%s server listening on %s", name, server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("%s server failed: %v", name, err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (ports.UnitOfWork, func()) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using the in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}
	}

	pg := cfg.Database.Postgres
	db, err := database.NewPostgresDB(ctx, database.Config{
		DSN:            pg.DSN(),
		MaxConnections: pg.MaxConnections,
	}, log)
	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}

	if pg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Info("schema applied")
	}

	return postgres.NewUnitOfWork(db), func() { db.Close() }
}

func newGateway(cfg config.PaymentConfig) (ports.PaymentGateway, error) {
	switch cfg.Provider {
	case "stripe":
		return gateway.NewStripeGateway(gateway.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.WebhookSecret,
		})
	default:
		return gateway.NewMockGateway(cfg.WebhookSecret, "")
	}
}
