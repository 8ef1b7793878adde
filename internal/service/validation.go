package service

import (
	"strings"
	"time"

	"dairy-order-service/internal/entity"

	"github.com/shopspring/decimal"
)

const maxNotesLength = 500

// ValidateDraft checks a new order. CreateOrder runs it before the duplicate-item guard.
func ValidateDraft(d *entity.OrderDraft) error {
	v := &ValidationError{}

	if strings.TrimSpace(d.CustomerID) == "" {
		v.add("customer_id", "Customer selection is required.")
	}
	validateDate(v, "order_date", d.OrderDate, "Order date is required.")
	validateDate(v, "delivery_start", d.DeliveryStart, "Scheduled delivery start date is required.")
	validateDate(v, "delivery_end", d.DeliveryEnd, "Scheduled delivery end date is required.")
	validateWindow(v, d.DeliveryStart, d.DeliveryEnd)

	if len(d.Items) == 0 {
		v.add("items", "Order must contain at least one item.")
	}
	validateItems(v, d.Items)

	validateAmount(v, "delivery_charge", d.DeliveryCharge)
	validateAmount(v, "discount", d.Discount)

	if d.Status != "" && !d.Status.Valid() {
		v.add("status", "Unknown order status.")
	}
	if d.PaymentStatus != "" && !d.PaymentStatus.Valid() {
		v.add("payment_status", "Unknown payment status.")
	}
	if len(d.Notes) > maxNotesLength {
		v.add("notes", "Notes too long.")
	}

	return v.orNil()
}

// ValidatePatch checks the fields present in a partial update.
func ValidatePatch(p *entity.OrderPatch) error {
	v := &ValidationError{}

	if p.CustomerID != nil && strings.TrimSpace(*p.CustomerID) == "" {
		v.add("customer_id", "Customer selection is required.")
	}
	if p.OrderDate != nil {
		validateDate(v, "order_date", *p.OrderDate, "Order date is required.")
	}
	if p.DeliveryStart != nil {
		validateDate(v, "delivery_start", *p.DeliveryStart, "Scheduled delivery start date is required.")
	}
	if p.DeliveryEnd != nil {
		validateDate(v, "delivery_end", *p.DeliveryEnd, "Scheduled delivery end date is required.")
	}
	if p.Items != nil {
		if len(p.Items) == 0 {
			v.add("items", "Order must contain at least one item.")
		}
		validateItems(v, p.Items)
	}
	if p.DeliveryCharge != nil {
		validateAmount(v, "delivery_charge", *p.DeliveryCharge)
	}
	if p.Discount != nil {
		validateAmount(v, "discount", *p.Discount)
	}
	if p.Status != nil && !p.Status.Valid() {
		v.add("status", "Unknown order status.")
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		v.add("payment_status", "Unknown payment status.")
	}
	if p.Notes != nil && len(*p.Notes) > maxNotesLength {
		v.add("notes", "Notes too long.")
	}

	return v.orNil()
}

func validateDate(v *ValidationError, field, value, requiredMessage string) {
	if value == "" {
		v.add(field, requiredMessage)
		return
	}
	if _, err := time.Parse(entity.DateLayout, value); err != nil {
		v.add(field, "Date must use the yyyy-MM-dd format.")
	}
}

// validateWindow relies on yyyy-MM-dd strings ordering like the dates they encode.
func validateWindow(v *ValidationError, start, end string) {
	if _, ok := v.Fields["delivery_start"]; ok {
		return
	}
	if _, ok := v.Fields["delivery_end"]; ok {
		return
	}
	if end < start {
		v.add("delivery_end", "Scheduled delivery end date must be on or after the start date.")
	}
}

func validateItems(v *ValidationError, items []entity.ItemInput) {
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			v.add("items.product_id", "Product selection is required.")
		}
		if item.QuantityPerDay < 1 {
			v.add("items.quantity_per_day", "Quantity must be at least 1.")
		}
	}
}

func validateAmount(v *ValidationError, field string, amount decimal.Decimal) {
	if amount.IsNegative() {
		v.add(field, "Amount must not be negative.")
	}
}
