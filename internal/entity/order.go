package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar date format used for every order date.
const DateLayout = "2006-01-02"

type OrderStatus string

const (
	StatusPending           OrderStatus = "Pending"
	StatusConfirmed         OrderStatus = "Confirmed"
	StatusProcessing        OrderStatus = "Processing"
	StatusOutForDelivery    OrderStatus = "Out for Delivery"
	StatusDelivered         OrderStatus = "Delivered"
	StatusCancelled         OrderStatus = "Cancelled"
	StatusDeliveryAttempted OrderStatus = "Delivery Attempted"
)

var AllOrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
	StatusDeliveryAttempted,
}

// ActiveDeliveryStatuses are the statuses of orders still in flight for delivery.
var ActiveDeliveryStatuses = []OrderStatus{
	StatusConfirmed,
	StatusProcessing,
	StatusOutForDelivery,
}

func (s OrderStatus) Valid() bool {
	for _, status := range AllOrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// OrderItem is a priced order line. Quantity is per delivery day; ItemTotal covers the whole window.
type OrderItem struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	QuantityPerDay int             `json:"quantity_per_day"`
	ItemTotal      decimal.Decimal `json:"item_total"`
}

// ItemInput is the caller-supplied part of an order line.
type ItemInput struct {
	ProductID      string `json:"product_id"`
	QuantityPerDay int    `json:"quantity_per_day"`
}

// CustomerSnapshot is the copy of customer fields embedded in an order.
// Empty strings mean the field is absent.
type CustomerSnapshot struct {
	CustomerName              string `json:"customer_name,omitempty"`
	CustomerPhone             string `json:"customer_phone,omitempty"`
	CustomerAddressLine1      string `json:"customer_address_line1,omitempty"`
	CustomerAddressLine2      string `json:"customer_address_line2,omitempty"`
	CustomerCity              string `json:"customer_city,omitempty"`
	CustomerPostalCode        string `json:"customer_postal_code,omitempty"`
	CustomerGoogleMapsPinLink string `json:"customer_google_maps_pin_link,omitempty"`
}

type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	CustomerID  string `json:"customer_id"`
	CustomerSnapshot
	OrderDate          string          `json:"order_date"`
	DeliveryStart      string          `json:"delivery_start"`
	DeliveryEnd        string          `json:"delivery_end"`
	DeliveryActualDate *string         `json:"delivery_actual_date,omitempty"`
	Items              []OrderItem     `json:"items"`
	DeliveryCharge     decimal.Decimal `json:"delivery_charge"`
	Discount           decimal.Decimal `json:"discount"`
	SubTotal           decimal.Decimal `json:"sub_total"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	Status             OrderStatus     `json:"status"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	Notes              string          `json:"notes,omitempty"`
	DateAdded          time.Time       `json:"date_added"`
	LastUpdated        time.Time       `json:"last_updated"`
}

// ItemInputs strips pricing from the order lines, keeping product and quantity.
func (o *Order) ItemInputs() []ItemInput {
	inputs := make([]ItemInput, 0, len(o.Items))
	for _, item := range o.Items {
		inputs = append(inputs, ItemInput{ProductID: item.ProductID, QuantityPerDay: item.QuantityPerDay})
	}
	return inputs
}

// OrderDraft is the input for creating an order.
type OrderDraft struct {
	CustomerID     string          `json:"customer_id"`
	OrderDate      string          `json:"order_date"`
	DeliveryStart  string          `json:"delivery_start"`
	DeliveryEnd    string          `json:"delivery_end"`
	Items          []ItemInput     `json:"items"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Discount       decimal.Decimal `json:"discount"`
	Status         OrderStatus     `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Notes          string          `json:"notes"`
	IdempotentKey  string          `json:"-"`
}

// OrderPatch is a partial order update. Nil fields keep their stored value;
// a nil Items slice re-prices the stored items.
type OrderPatch struct {
	CustomerID     *string          `json:"customer_id"`
	OrderDate      *string          `json:"order_date"`
	DeliveryStart  *string          `json:"delivery_start"`
	DeliveryEnd    *string          `json:"delivery_end"`
	Items          []ItemInput      `json:"items"`
	DeliveryCharge *decimal.Decimal `json:"delivery_charge"`
	Discount       *decimal.Decimal `json:"discount"`
	Status         *OrderStatus     `json:"status"`
	PaymentStatus  *PaymentStatus   `json:"payment_status"`
	Notes          *string          `json:"notes"`
}

/*
MySQL tables (one copy per shard):

CREATE TABLE orders (
	id CHAR(36) PRIMARY KEY,
	order_number VARCHAR(32) NOT NULL,
	customer_id VARCHAR(64) NOT NULL,
	...
	delivery_start CHAR(10) NOT NULL,
	delivery_end CHAR(10) NOT NULL,
	status VARCHAR(32) NOT NULL
);

CREATE TABLE order_items (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_id CHAR(36) NOT NULL REFERENCES orders(id),
	line_no INT NOT NULL,
	product_id VARCHAR(64) NOT NULL,
	...
);
*/
