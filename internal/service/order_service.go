package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dairy-order-service/internal/entity"
	"dairy-order-service/internal/pricing"
	"dairy-order-service/internal/repository"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ProductLookup is the tagged product lookup orders are priced against.
type ProductLookup interface {
	GetProductByID(ctx context.Context, id string) (entity.Product, bool, error)
}

// OrderService creates and edits orders, keeping totals and customer snapshots consistent.
type OrderService struct {
	orderRepo      OrderStore
	products       ProductLookup
	snapshots      *SnapshotResolver
	kafkaWriter    EventWriter
	rdb            Cache
	idempotencyTTL time.Duration
	now            func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo OrderStore, products ProductLookup, snapshots *SnapshotResolver, kafkaWriter EventWriter, rdb Cache, idempotencyTTL time.Duration) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		products:       products,
		snapshots:      snapshots,
		kafkaWriter:    kafkaWriter,
		rdb:            rdb,
		idempotencyTTL: idempotencyTTL,
		now:            time.Now,
	}
}

// CreateOrder validates the draft, rejects products the customer already ordered on the same date,
// then prices it against the current catalog, snapshots the customer and stores the order.
func (s *OrderService) CreateOrder(ctx context.Context, draft *entity.OrderDraft) (*entity.Order, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}

	if err := s.claimIdempotentKey(ctx, draft.IdempotentKey); err != nil {
		return nil, err
	}

	if err := s.CheckDuplicateItems(ctx, draft); err != nil {
		s.releaseIdempotentKey(ctx, draft.IdempotentKey)
		return nil, err
	}

	order, err := s.buildOrder(ctx, draft)
	if err != nil {
		s.releaseIdempotentKey(ctx, draft.IdempotentKey)
		return nil, err
	}

	createdOrder, err := s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		s.releaseIdempotentKey(ctx, draft.IdempotentKey)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publishOrderEvent(ctx, createdOrder, "created")

	return createdOrder, nil
}

func (s *OrderService) buildOrder(ctx context.Context, draft *entity.OrderDraft) (*entity.Order, error) {
	snapshot, err := s.snapshots.Resolve(ctx, draft.CustomerID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.catalogFor(ctx, draft.Items)
	if err != nil {
		return nil, err
	}
	totals := pricing.Price(draft.DeliveryStart, draft.DeliveryEnd, draft.Items, draft.DeliveryCharge, draft.Discount, catalog)

	now := s.now()
	order := &entity.Order{
		ID:               uuid.NewString(),
		OrderNumber:      fmt.Sprintf("ORD-%d", now.UnixMilli()),
		CustomerID:       draft.CustomerID,
		CustomerSnapshot: snapshot,
		OrderDate:        draft.OrderDate,
		DeliveryStart:    draft.DeliveryStart,
		DeliveryEnd:      draft.DeliveryEnd,
		Items:            totals.Items,
		DeliveryCharge:   draft.DeliveryCharge,
		Discount:         draft.Discount,
		SubTotal:         totals.SubTotal,
		GrandTotal:       totals.GrandTotal,
		Status:           draft.Status,
		PaymentStatus:    draft.PaymentStatus,
		Notes:            draft.Notes,
		DateAdded:        now,
		LastUpdated:      now,
	}
	if order.Status == "" {
		order.Status = entity.StatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = entity.PaymentPending
	}
	if order.Status == entity.StatusDelivered {
		today := now.Format(entity.DateLayout)
		order.DeliveryActualDate = &today
	}

	return order, nil
}

// UpdateOrder merges the patch over the stored order and re-prices it against the current catalog,
// including when the patch leaves the items untouched.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, patch *entity.OrderPatch) (*entity.Order, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}

	existing, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Msgf("Error getting order by ID %s", id)
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	changes := repository.OrderChanges{
		CustomerID:     patch.CustomerID,
		OrderDate:      patch.OrderDate,
		DeliveryStart:  patch.DeliveryStart,
		DeliveryEnd:    patch.DeliveryEnd,
		DeliveryCharge: patch.DeliveryCharge,
		Discount:       patch.Discount,
		Status:         patch.Status,
		PaymentStatus:  patch.PaymentStatus,
		Notes:          patch.Notes,
		LastUpdated:    s.now(),
	}

	start := valueOr(patch.DeliveryStart, existing.DeliveryStart)
	end := valueOr(patch.DeliveryEnd, existing.DeliveryEnd)
	if end < start {
		return nil, &ValidationError{Fields: map[string]string{
			"delivery_end": "Scheduled delivery end date must be on or after the start date.",
		}}
	}

	// Re-price
	items := patch.Items
	if items == nil {
		items = existing.ItemInputs()
	}
	catalog, err := s.catalogFor(ctx, items)
	if err != nil {
		return nil, err
	}
	deliveryCharge := existing.DeliveryCharge
	if patch.DeliveryCharge != nil {
		deliveryCharge = *patch.DeliveryCharge
	}
	discount := existing.Discount
	if patch.Discount != nil {
		discount = *patch.Discount
	}
	totals := pricing.Price(start, end, items, deliveryCharge, discount, catalog)
	changes.Items = totals.Items
	changes.SubTotal = &totals.SubTotal
	changes.GrandTotal = &totals.GrandTotal

	// Snapshot
	if customerID, stale := snapshotStale(existing, patch.CustomerID); stale {
		snapshot, err := s.snapshots.Resolve(ctx, customerID)
		if err != nil {
			return nil, err
		}
		changes.Snapshot = &snapshot
	}

	// Delivered side effect
	if patch.Status != nil {
		switch {
		case *patch.Status == entity.StatusDelivered && existing.Status != entity.StatusDelivered:
			today := changes.LastUpdated.Format(entity.DateLayout)
			changes.DeliveryActualDate = &today
		case *patch.Status != entity.StatusDelivered && existing.Status == entity.StatusDelivered:
			changes.ClearDeliveryActualDate = true
		}
	}

	if err := s.orderRepo.UpdateOrder(ctx, id, changes); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Msgf("Error updating order %s", id)
		}
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}

	updatedOrder, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting order by ID %s", id)
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	s.publishOrderEvent(ctx, updatedOrder, "updated")

	return updatedOrder, nil
}

// UpdateDeliveryStatus changes only the status, with the same side effects as UpdateOrder.
func (s *OrderService) UpdateDeliveryStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error) {
	return s.UpdateOrder(ctx, id, &entity.OrderPatch{Status: &status})
}

// DeleteOrder reports false when no order had the id.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) (bool, error) {
	deleted, err := s.orderRepo.DeleteOrder(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting order %s", id)
		return false, fmt.Errorf("delete order %s: %w", id, err)
	}

	if deleted {
		s.publishOrderEvent(ctx, &entity.Order{ID: id}, "deleted")
	}
	return deleted, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Msgf("Error getting order by ID %s", id)
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// GetOrdersForCustomer returns the customer's orders, newest order date first.
func (s *OrderService) GetOrdersForCustomer(ctx context.Context, customerID string) ([]*entity.Order, error) {
	orders, err := s.orderRepo.GetOrdersByCustomerID(ctx, customerID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting orders of customer %s", customerID)
		return nil, fmt.Errorf("get orders of customer %s: %w", customerID, err)
	}
	if orders == nil {
		orders = []*entity.Order{}
	}
	return orders, nil
}

// CheckDuplicateItems rejects draft products the customer already has in an order on the same order date.
// Delivery windows are not compared.
func (s *OrderService) CheckDuplicateItems(ctx context.Context, draft *entity.OrderDraft) error {
	orders, err := s.orderRepo.GetOrdersByCustomerID(ctx, draft.CustomerID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting orders of customer %s", draft.CustomerID)
		return fmt.Errorf("get orders of customer %s: %w", draft.CustomerID, err)
	}

	ordered := map[string]bool{}
	for _, order := range orders {
		if order.OrderDate != draft.OrderDate {
			continue
		}
		for _, item := range order.Items {
			ordered[item.ProductID] = true
		}
	}

	for _, item := range draft.Items {
		if !ordered[item.ProductID] {
			continue
		}

		name := fmt.Sprintf("Product ID %s", item.ProductID)
		if product, found, err := s.products.GetProductByID(ctx, item.ProductID); err == nil && found {
			name = product.Name
		}
		return &DuplicateItemError{ProductID: item.ProductID, ProductName: name, OrderDate: draft.OrderDate}
	}

	return nil
}

// catalogFor looks up every distinct product of items concurrently and returns the products found.
func (s *OrderService) catalogFor(ctx context.Context, items []entity.ItemInput) (pricing.StaticCatalog, error) {
	var productIDs []string
	seen := map[string]bool{}
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}

	lookupCh := make(chan struct {
		ProductID string
		Product   entity.Product
		Found     bool
		Error     error
	}, len(productIDs))

	for _, productID := range productIDs {
		go func(productID string) {
			product, found, err := s.products.GetProductByID(ctx, productID)
			lookupCh <- struct {
				ProductID string
				Product   entity.Product
				Found     bool
				Error     error
			}{
				ProductID: productID,
				Product:   product,
				Found:     found,
				Error:     err,
			}
		}(productID)
	}

	catalog := pricing.StaticCatalog{}
	var lookupErr error
	for range productIDs {
		result := <-lookupCh
		if result.Error != nil {
			logger.Error().Err(result.Error).Msgf("Error getting product %s", result.ProductID)
			if lookupErr == nil {
				lookupErr = result.Error
			}
			continue
		}
		if result.Found {
			catalog[result.ProductID] = result.Product
		}
	}
	if lookupErr != nil {
		return nil, lookupErr
	}

	return catalog, nil
}

func (s *OrderService) publishOrderEvent(ctx context.Context, order *entity.Order, key string) {
	if s.kafkaWriter == nil {
		return
	}

	orderJSON, err := json.Marshal(order)
	if err != nil {
		logger.Error().Err(err).Msgf("Error encoding order %s event", order.ID)
		return
	}

	// order-created-<id> or order-updated-<id>
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%s-%s", key, order.ID)),
		Value: orderJSON,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Msgf("Error publishing order %s event", order.ID)
	}
}

func idempotentRedisKey(key string) string {
	return fmt.Sprintf("idempotent-key:%s", key)
}

// claimIdempotentKey fails with ErrDuplicateRequest when the key was already used within the TTL.
func (s *OrderService) claimIdempotentKey(ctx context.Context, key string) error {
	if key == "" || s.rdb == nil {
		return nil
	}

	claimed, err := s.rdb.SetNX(ctx, idempotentRedisKey(key), "exists", s.idempotencyTTL).Result()
	if err != nil {
		logger.Error().Err(err).Msgf("Error claiming idempotent key %s", key)
		return fmt.Errorf("claim idempotent key: %w", err)
	}
	if !claimed {
		return ErrDuplicateRequest
	}
	return nil
}

func (s *OrderService) releaseIdempotentKey(ctx context.Context, key string) {
	if key == "" || s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, idempotentRedisKey(key)).Err(); err != nil {
		logger.Warn().Err(err).Msgf("Error releasing idempotent key %s", key)
	}
}

func valueOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}
