// Package pricing computes order line and order totals over a delivery window.
package pricing

import (
	"time"

	"dairy-order-service/internal/entity"

	"github.com/shopspring/decimal"
)

// UnknownProductName is used for lines whose product is no longer in the catalog.
const UnknownProductName = "Unknown Product"

// Catalog is the product state prices are read from.
type Catalog interface {
	Lookup(productID string) (entity.Product, bool)
}

// StaticCatalog is a catalog snapshot keyed by product id.
type StaticCatalog map[string]entity.Product

func (c StaticCatalog) Lookup(productID string) (entity.Product, bool) {
	product, ok := c[productID]
	return product, ok
}

// Totals is the result of pricing an order.
type Totals struct {
	NumberOfDays int
	Items        []entity.OrderItem
	SubTotal     decimal.Decimal
	GrandTotal   decimal.Decimal
}

// NumberOfDays counts the calendar days of the inclusive window [start, end].
// It is never below 1, including for inverted or unparsable dates.
func NumberOfDays(start, end string) int {
	startDate, err := time.Parse(entity.DateLayout, start)
	if err != nil {
		return 1
	}
	endDate, err := time.Parse(entity.DateLayout, end)
	if err != nil {
		return 1
	}

	// Both dates are UTC midnights. Not Sub: a Duration saturates at about 292 years.
	days := int((endDate.Unix()-startDate.Unix())/86400) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Price prices every item against the catalog for the delivery window and
// derives the order totals. Missing products price at zero under UnknownProductName.
func Price(start, end string, items []entity.ItemInput, deliveryCharge, discount decimal.Decimal, catalog Catalog) Totals {
	// Step 1: Number of billed days
	days := NumberOfDays(start, end)
	daysDec := decimal.NewFromInt(int64(days))

	// Step 2: Price each line against the current catalog
	priced := make([]entity.OrderItem, 0, len(items))
	subTotal := decimal.Zero
	for _, item := range items {
		name := UnknownProductName
		unitPrice := decimal.Zero
		if product, ok := catalog.Lookup(item.ProductID); ok {
			name = product.Name
			unitPrice = product.PricePerUnit
		}

		itemTotal := decimal.NewFromInt(int64(item.QuantityPerDay)).Mul(unitPrice).Mul(daysDec)
		subTotal = subTotal.Add(itemTotal)

		priced = append(priced, entity.OrderItem{
			ProductID:      item.ProductID,
			ProductName:    name,
			UnitPrice:      unitPrice,
			QuantityPerDay: item.QuantityPerDay,
			ItemTotal:      itemTotal,
		})
	}

	// Step 3: Flat per-order charge and discount, no floor at zero
	grandTotal := subTotal.Add(deliveryCharge).Sub(discount)

	return Totals{
		NumberOfDays: days,
		Items:        priced,
		SubTotal:     subTotal,
		GrandTotal:   grandTotal,
	}
}
