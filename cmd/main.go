package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dairy-order-service/internal/api"
	"dairy-order-service/internal/config"
	"dairy-order-service/internal/consumer"
	"dairy-order-service/internal/repository"
	"dairy-order-service/internal/service"
	"dairy-order-service/internal/sharding"
	"dairy-order-service/migrations"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func connectDBEnv(db config.DatabaseConfig) (*sql.DB, error) {
	var conn *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		conn, err = sql.Open("mysql", db.DSN())
		if err == nil {
			err = conn.Ping()
			if err == nil {
				log.Info().Msgf("Connected to DB %s", db.Database)
				return conn, nil
			}
			conn.Close()
		}
		log.Warn().Err(err).Msgf("Retry %d: Failed to connect to DB %s (%s:%s)", i+1, db.Database, db.Host, db.Port)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", db.Database, db.Host, db.Port, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbShards := make([]*sql.DB, 0, len(cfg.Shards))
	for _, shard := range cfg.Shards {
		db, err := connectDBEnv(shard)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		dbShards = append(dbShards, db)
	}
	primary := dbShards[0]

	if err := migrations.AutoMigrateOrders(ctx, 3, dbShards...); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate order tables")
	}
	if err := migrations.AutoMigrateCatalog(ctx, 3, primary); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate catalog tables")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	orderWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
	defer orderWriter.Close()
	productWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.ProductTopic)
	defer productWriter.Close()

	router := sharding.NewShardRouter(len(dbShards))

	orderRepo := repository.NewOrderRepository(dbShards, router)
	productRepo := repository.NewProductRepository(primary)
	customerRepo := repository.NewCustomerRepository(primary)
	feedLogRepo := repository.NewFeedLogRepository(primary)

	productService := service.NewProductService(productRepo, rdb, productWriter, cfg.ProductCacheTTL)
	snapshotResolver := service.NewSnapshotResolver(customerRepo)
	orderService := service.NewOrderService(orderRepo, productService, snapshotResolver, orderWriter, rdb, cfg.IdempotencyTTL)
	customerService := service.NewCustomerService(customerRepo, orderRepo)
	feedLogService := service.NewFeedLogService(feedLogRepo)

	// consumer
	productReader := config.NewKafkaReader(cfg.KafkaBrokers, cfg.ProductTopic, cfg.KafkaGroupID)
	defer productReader.Close()
	go consumer.NewConsumer(productService).StartKafkaConsumer(ctx, productReader)

	e := echo.New()
	e.HideBanner = true

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	api.RegisterRoutes(e, api.Handlers{
		Orders:    api.NewOrderHandler(orderService),
		Products:  api.NewProductHandler(productService),
		Customers: api.NewCustomerHandler(customerService),
		FeedLogs:  api.NewFeedLogHandler(feedLogService),
	}, cfg.JWTSecret)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
}
