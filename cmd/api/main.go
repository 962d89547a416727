package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "github.com/frontandrew/triplog/internal/delivery/http"
	"github.com/frontandrew/triplog/internal/pkg/config"
	"github.com/frontandrew/triplog/internal/pkg/database"
	"github.com/frontandrew/triplog/internal/pkg/jwt"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/pkg/redis"
	"github.com/frontandrew/triplog/internal/repository"
	"github.com/frontandrew/triplog/internal/repository/cached"
	"github.com/frontandrew/triplog/internal/repository/postgres"
	"github.com/frontandrew/triplog/internal/usecase/auth"
	"github.com/frontandrew/triplog/internal/usecase/ledger"
	"github.com/frontandrew/triplog/internal/usecase/stats"
	"github.com/frontandrew/triplog/internal/usecase/trip"
	"github.com/frontandrew/triplog/internal/usecase/vehicle"
)

func main() {
	// =========================================================================
	// Загрузка конфигурации
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Инициализация logger
	// =========================================================================

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)
	log.Info("Starting triplog API server")

	// Без секретов сервер не стартует: иначе вход и удаление молча недоступны
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{
			"error": err,
		})
	}

	// =========================================================================
	// Подключение к PostgreSQL и миграции
	// =========================================================================

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		version, err := database.Migrate(&cfg.Database)
		if err != nil {
			log.Fatal("Failed to apply migrations", map[string]interface{}{
				"error": err,
			})
		}
		log.Info("Database schema is up to date", map[string]interface{}{
			"version": version,
		})
	}

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err,
		})
	}
	defer database.Close(db)

	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// =========================================================================
	// Создание repositories
	// =========================================================================

	var vehicleRepo repository.VehicleRepository = postgres.NewVehicleRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	statsRepo := postgres.NewStatsRepository(db)
	uow := postgres.NewUnitOfWork(db)

	// Кэш справочника автомобилей не обязателен: без Redis читаем напрямую из БД
	if cfg.Redis.Enabled {
		cache, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.Redis.Address(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("Redis is not available, vehicle cache disabled", map[string]interface{}{
				"error": err,
				"addr":  cfg.Redis.Address(),
			})
		} else {
			defer func() { _ = cache.Close() }()
			vehicleRepo = cached.NewVehicleRepository(vehicleRepo, cache, log)
			log.Info("Vehicle cache enabled", map[string]interface{}{
				"addr": cfg.Redis.Address(),
			})
		}
	}

	log.Info("Repositories initialized")

	// =========================================================================
	// Создание session service
	// =========================================================================

	sessionService := jwt.NewSessionService(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)

	// =========================================================================
	// Создание use case services
	// =========================================================================

	authService, err := auth.NewService(auth.Secrets{
		AdminPassword:  cfg.Auth.AdminPassword,
		DeletePassword: cfg.Auth.DeletePassword,
	}, sessionService, log)
	if err != nil {
		log.Fatal("Failed to initialize auth service", map[string]interface{}{
			"error": err,
		})
	}

	vehicleService := vehicle.NewService(vehicleRepo, driverRepo, log)
	tripService := trip.NewService(uow, tripRepo, vehicleRepo, driverRepo, authService, log)
	ledgerService := ledger.NewService(uow, vehicleRepo, log)
	statsService := stats.NewService(vehicleRepo, statsRepo, tripRepo, stats.Options{
		StaleDays:   cfg.Stats.StaleDays,
		RecentLimit: cfg.Stats.RecentLimit,
	}, log)

	log.Info("Use case services initialized")

	// =========================================================================
	// Создание HTTP handlers и router
	// =========================================================================

	router := deliveryHTTP.NewRouter(
		deliveryHTTP.NewAuthHandler(authService, cfg.Auth.CookieSecure, log),
		deliveryHTTP.NewTripHandler(tripService, log),
		deliveryHTTP.NewVehicleHandler(vehicleService, log),
		deliveryHTTP.NewAdminHandler(statsService, ledgerService, log),
		authService,
		cfg,
		log,
	)

	handler := router.Setup()

	log.Info("HTTP router configured")

	// =========================================================================
	// Создание HTTP сервера
	// =========================================================================

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("API server listening", map[string]interface{}{
			"address": srv.Addr,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("Server error", map[string]interface{}{
			"error": err,
		})

	case sig := <-shutdown:
		log.Info("Shutdown signal received", map[string]interface{}{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed", map[string]interface{}{
				"error": err,
			})

			if err := srv.Close(); err != nil {
				log.Fatal("Failed to close server", map[string]interface{}{
					"error": err,
				})
			}
		}

		log.Info("Server stopped gracefully")
	}
}
