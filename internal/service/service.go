package service

import (
	"context"
	"os"
	"time"

	"dairy-order-service/internal/entity"
	"dairy-order-service/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// OrderStore is the order persistence used by the services.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*entity.Order, error)
	CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
	UpdateOrder(ctx context.Context, id string, changes repository.OrderChanges) error
	DeleteOrder(ctx context.Context, id string) (bool, error)
	GetOrdersByCustomerID(ctx context.Context, customerID string) ([]*entity.Order, error)
	GetOrdersStartingOnOrBefore(ctx context.Context, date string, statuses []entity.OrderStatus) ([]*entity.Order, error)
}

type ProductStore interface {
	GetProductByID(ctx context.Context, id string) (*entity.Product, error)
	GetProducts(ctx context.Context) ([]*entity.Product, error)
	UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal, updatedAt time.Time) error
}

type CustomerStore interface {
	GetCustomerByID(ctx context.Context, id string) (*entity.Customer, error)
	GetCustomers(ctx context.Context) ([]*entity.Customer, error)
}

type FeedLogStore interface {
	ReplaceDailyFeedLogs(ctx context.Context, cowID, date string, logs []entity.FeedLog) error
	DeleteFeedLogsForDay(ctx context.Context, cowID, date string) (bool, error)
	GetFeedLogsByCowAndDate(ctx context.Context, cowID, date string) ([]entity.FeedLog, error)
}

// Cache is the subset of *redis.Client used for the product cache and idempotency keys.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// EventWriter is satisfied by *kafka.Writer.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}
