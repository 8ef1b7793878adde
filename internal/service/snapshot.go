package service

import (
	"context"
	"errors"
	"fmt"

	"dairy-order-service/internal/entity"
	"dairy-order-service/internal/repository"
)

// UnknownCustomerName is the snapshot name of an order whose customer no longer exists.
const UnknownCustomerName = "Unknown Customer"

// SnapshotResolver copies customer fields into orders.
type SnapshotResolver struct {
	customerRepo CustomerStore
}

func NewSnapshotResolver(customerRepo CustomerStore) *SnapshotResolver {
	return &SnapshotResolver{customerRepo: customerRepo}
}

// Resolve returns the customer's snapshot, or a snapshot named UnknownCustomerName
// with every other field empty when the customer does not exist.
func (r *SnapshotResolver) Resolve(ctx context.Context, customerID string) (entity.CustomerSnapshot, error) {
	unknown := entity.CustomerSnapshot{CustomerName: UnknownCustomerName}
	if customerID == "" {
		return unknown, nil
	}

	customer, err := r.customerRepo.GetCustomerByID(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return unknown, nil
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting customer %s", customerID)
		return entity.CustomerSnapshot{}, fmt.Errorf("get customer %s: %w", customerID, err)
	}

	return customer.Snapshot(), nil
}

// snapshotStale reports whether an update must re-resolve the order's snapshot, and for which customer.
// That is the case when the patch moves the order to another customer, or the stored
// order has a customer but no name.
func snapshotStale(existing *entity.Order, patchCustomerID *string) (string, bool) {
	if patchCustomerID != nil && *patchCustomerID != "" && *patchCustomerID != existing.CustomerID {
		return *patchCustomerID, true
	}
	if existing.CustomerID != "" && existing.CustomerName == "" {
		return existing.CustomerID, true
	}
	return "", false
}
