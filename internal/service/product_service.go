package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dairy-order-service/internal/entity"
	"dairy-order-service/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// ProductService is the product catalog lookup, read through a redis cache.
type ProductService struct {
	productRepo ProductStore
	rdb         Cache
	kafkaWriter EventWriter
	cacheTTL    time.Duration
	now         func() time.Time
}

func NewProductService(productRepo ProductStore, rdb Cache, kafkaWriter EventWriter, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		rdb:         rdb,
		kafkaWriter: kafkaWriter,
		cacheTTL:    cacheTTL,
		now:         time.Now,
	}
}

func productCacheKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

// GetProductByID reports found=false for a product that does not exist. Only store failures are errors.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (entity.Product, bool, error) {
	key := productCacheKey(id)

	cached, err := s.rdb.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn().Err(err).Msgf("Error reading product %s from cache", id)
	}
	if err == nil && cached != "" {
		var product entity.Product
		decodeErr := product.UnmarshalBinary([]byte(cached))
		if decodeErr == nil {
			return product, true, nil
		}
		logger.Warn().Err(decodeErr).Msgf("Discarding unreadable cache entry for product %s", id)
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return entity.Product{}, false, nil
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting product %s", id)
		return entity.Product{}, false, fmt.Errorf("get product %s: %w", id, err)
	}

	if err := s.rdb.Set(ctx, key, product, s.cacheTTL).Err(); err != nil {
		logger.Warn().Err(err).Msgf("Error caching product %s", id)
	}

	return *product, true, nil
}

func (s *ProductService) GetProducts(ctx context.Context) ([]*entity.Product, error) {
	products, err := s.productRepo.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return nil, err
	}
	return products, nil
}

// PreWarmCache loads every product into the cache and returns how many were cached.
func (s *ProductService) PreWarmCache(ctx context.Context) (int, error) {
	products, err := s.productRepo.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return 0, err
	}

	cached := 0
	for _, product := range products {
		if err := s.rdb.Set(ctx, productCacheKey(product.ID), product, s.cacheTTL).Err(); err != nil {
			logger.Error().Err(err).Msgf("Error caching product %s", product.ID)
			continue
		}
		cached++
	}

	return cached, nil
}

// UpdateProductPrice stores the new price, evicts the cached product and announces the change.
// Existing orders pick the price up the next time they are saved.
func (s *ProductService) UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal) (*entity.Product, error) {
	if price.IsNegative() {
		return nil, &ValidationError{Fields: map[string]string{"price_per_unit": "Price must not be negative."}}
	}

	if err := s.productRepo.UpdateProductPrice(ctx, id, price, s.now()); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Msgf("Error updating price of product %s", id)
		}
		return nil, fmt.Errorf("update price of product %s: %w", id, err)
	}

	if err := s.EvictProduct(ctx, id); err != nil {
		logger.Warn().Err(err).Msgf("Error evicting product %s from cache", id)
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting product %s", id)
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	s.publishProductEvent(ctx, product, "updated")

	return product, nil
}

// EvictProduct drops the cached copy of a product.
func (s *ProductService) EvictProduct(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, productCacheKey(id)).Err()
}

func (s *ProductService) publishProductEvent(ctx context.Context, product *entity.Product, key string) {
	if s.kafkaWriter == nil {
		return
	}

	productJSON, err := json.Marshal(product)
	if err != nil {
		logger.Error().Err(err).Msgf("Error encoding product %s event", product.ID)
		return
	}

	// product-updated-<id>
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("product-%s-%s", key, product.ID)),
		Value: productJSON,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Msgf("Error publishing product %s event", product.ID)
	}
}
