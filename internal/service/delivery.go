package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dairy-order-service/internal/entity"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// GetOrdersForDeliveryDate returns the active orders whose delivery window covers date,
// sorted by customer name. Delivered and cancelled orders are never included.
func (s *OrderService) GetOrdersForDeliveryDate(ctx context.Context, date string) ([]*entity.Order, error) {
	target, err := time.Parse(entity.DateLayout, date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": "Date must use the yyyy-MM-dd format."}}
	}
	day := target.Format(entity.DateLayout)

	// The store bounds the window start; the end bound is applied here.
	candidates, err := s.orderRepo.GetOrdersStartingOnOrBefore(ctx, day, entity.ActiveDeliveryStatuses)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting delivery orders for %s", day)
		return nil, fmt.Errorf("get delivery orders for %s: %w", day, err)
	}

	orders := make([]*entity.Order, 0, len(candidates))
	for _, order := range candidates {
		if order.DeliveryEnd >= day && activeForDelivery(order.Status) {
			orders = append(orders, order)
		}
	}

	sortByCustomerName(orders)
	return orders, nil
}

func activeForDelivery(status entity.OrderStatus) bool {
	for _, active := range entity.ActiveDeliveryStatuses {
		if status == active {
			return true
		}
	}
	return false
}

func sortByCustomerName(orders []*entity.Order) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(orders, func(i, j int) bool {
		return c.CompareString(orders[i].CustomerName, orders[j].CustomerName) < 0
	})
}
