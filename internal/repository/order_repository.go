package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dairy-order-service/internal/entity"
	"dairy-order-service/internal/sharding"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const orderColumns = `id, order_number, customer_id, customer_name, customer_phone, customer_address_line1,
	customer_address_line2, customer_city, customer_postal_code, customer_maps_link, order_date,
	delivery_start, delivery_end, delivery_actual_date, delivery_charge, discount, sub_total, grand_total,
	status, payment_status, notes, date_added, last_updated`

type OrderRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewOrderRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *OrderRepository {
	return &OrderRepository{dbShards, router}
}

func (r *OrderRepository) shard(id string) *sql.DB {
	return r.dbShards[r.router.GetShard(id)]
}

// OrderChanges lists the order fields to write. Nil fields are left untouched in storage.
type OrderChanges struct {
	CustomerID              *string
	Snapshot                *entity.CustomerSnapshot
	OrderDate               *string
	DeliveryStart           *string
	DeliveryEnd             *string
	DeliveryActualDate      *string
	ClearDeliveryActualDate bool
	Items                   []entity.OrderItem // nil keeps stored items
	DeliveryCharge          *decimal.Decimal
	Discount                *decimal.Decimal
	SubTotal                *decimal.Decimal
	GrandTotal              *decimal.Decimal
	Status                  *entity.OrderStatus
	PaymentStatus           *entity.PaymentStatus
	Notes                   *string
	LastUpdated             time.Time
}

func (c OrderChanges) assignments() ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if c.CustomerID != nil {
		add("customer_id", *c.CustomerID)
	}
	if c.Snapshot != nil {
		add("customer_name", c.Snapshot.CustomerName)
		add("customer_phone", c.Snapshot.CustomerPhone)
		add("customer_address_line1", c.Snapshot.CustomerAddressLine1)
		add("customer_address_line2", c.Snapshot.CustomerAddressLine2)
		add("customer_city", c.Snapshot.CustomerCity)
		add("customer_postal_code", c.Snapshot.CustomerPostalCode)
		add("customer_maps_link", c.Snapshot.CustomerGoogleMapsPinLink)
	}
	if c.OrderDate != nil {
		add("order_date", *c.OrderDate)
	}
	if c.DeliveryStart != nil {
		add("delivery_start", *c.DeliveryStart)
	}
	if c.DeliveryEnd != nil {
		add("delivery_end", *c.DeliveryEnd)
	}
	if c.ClearDeliveryActualDate {
		add("delivery_actual_date", nil)
	} else if c.DeliveryActualDate != nil {
		add("delivery_actual_date", *c.DeliveryActualDate)
	}
	if c.DeliveryCharge != nil {
		add("delivery_charge", *c.DeliveryCharge)
	}
	if c.Discount != nil {
		add("discount", *c.Discount)
	}
	if c.SubTotal != nil {
		add("sub_total", *c.SubTotal)
	}
	if c.GrandTotal != nil {
		add("grand_total", *c.GrandTotal)
	}
	if c.Status != nil {
		add("status", string(*c.Status))
	}
	if c.PaymentStatus != nil {
		add("payment_status", string(*c.PaymentStatus))
	}
	if c.Notes != nil {
		add("notes", *c.Notes)
	}
	add("last_updated", c.LastUpdated)

	return sets, args
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*entity.Order, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	db := r.shard(id)

	order, err := scanOrder(db.QueryRowContext(ctx, orderQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := loadItems(ctx, db, []*entity.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	db := r.shard(order.ID)

	// Start a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	// Insert order
	orderQuery := `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID, order.OrderNumber, order.CustomerID,
		order.CustomerName, order.CustomerPhone, order.CustomerAddressLine1, order.CustomerAddressLine2,
		order.CustomerCity, order.CustomerPostalCode, order.CustomerGoogleMapsPinLink,
		order.OrderDate, order.DeliveryStart, order.DeliveryEnd, nullableString(order.DeliveryActualDate),
		order.DeliveryCharge, order.Discount, order.SubTotal, order.GrandTotal,
		string(order.Status), string(order.PaymentStatus), order.Notes, order.DateAdded, order.LastUpdated)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := insertItems(ctx, tx, order.ID, order.Items); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Commit the transaction
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateOrder writes the given changes and returns ErrNotFound when the order is gone. When changes.Items
// is set the stored lines are replaced in the same transaction. Concurrent updates to one order are last-write-wins.
func (r *OrderRepository) UpdateOrder(ctx context.Context, id string, changes OrderChanges) error {
	db := r.shard(id)

	// Start a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Lock the row so a concurrent delete cannot leave items without their order.
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ? FOR UPDATE`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		return ErrNotFound
	}
	if err != nil {
		tx.Rollback()
		return err
	}

	sets, args := changes.assignments()
	orderQuery := `UPDATE orders SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)
	if _, err := tx.ExecContext(ctx, orderQuery, args...); err != nil {
		tx.Rollback()
		return err
	}

	if changes.Items != nil {
		// Delete existing items
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
			tx.Rollback()
			return err
		}

		if err := insertItems(ctx, tx, id, changes.Items); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// DeleteOrder removes the order and its items. It reports false when no order matched.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) (bool, error) {
	db := r.shard(id)

	// Start a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
		tx.Rollback()
		return false, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return affected > 0, nil
}

// GetOrdersByCustomerID returns the customer's orders from every shard, newest order date first.
func (r *OrderRepository) GetOrdersByCustomerID(ctx context.Context, customerID string) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = ? ORDER BY order_date DESC`
	orders, err := r.queryAllShards(ctx, query, customerID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate > orders[j].OrderDate
	})
	return orders, nil
}

// GetOrdersStartingOnOrBefore returns orders with delivery_start <= date in one of the statuses.
// The delivery_end bound is left to the caller.
func (r *OrderRepository) GetOrdersStartingOnOrBefore(ctx context.Context, date string, statuses []entity.OrderStatus) ([]*entity.Order, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	query := `SELECT ` + orderColumns + ` FROM orders WHERE delivery_start <= ? AND status IN (` + placeholders + `)`

	args := []interface{}{date}
	for _, status := range statuses {
		args = append(args, string(status))
	}

	return r.queryAllShards(ctx, query, args...)
}

// queryAllShards runs the query on every shard concurrently and concatenates results in shard order.
func (r *OrderRepository) queryAllShards(ctx context.Context, query string, args ...interface{}) ([]*entity.Order, error) {
	results := make([][]*entity.Order, len(r.dbShards))

	g, gctx := errgroup.WithContext(ctx)
	for i, db := range r.dbShards {
		i, db := i, db
		g.Go(func() error {
			orders, err := queryOrders(gctx, db, query, args...)
			if err != nil {
				return fmt.Errorf("shard %d: %w", i, err)
			}
			results[i] = orders
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var orders []*entity.Order
	for _, shardOrders := range results {
		orders = append(orders, shardOrders...)
	}
	return orders, nil
}

func queryOrders(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]*entity.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadItems(ctx, db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills the items of the given orders, all stored on db, with one query.
func loadItems(ctx context.Context, db *sql.DB, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*entity.Order, len(orders))
	args := make([]interface{}, 0, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
		order.Items = []entity.OrderItem{}
		args = append(args, order.ID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(orders)), ", ")
	itemQuery := `SELECT order_id, product_id, product_name, unit_price, quantity_per_day, item_total
		FROM order_items WHERE order_id IN (` + placeholders + `) ORDER BY order_id, line_no`

	rows, err := db.QueryContext(ctx, itemQuery, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		item := entity.OrderItem{}
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.QuantityPerDay, &item.ItemTotal); err != nil {
			return err
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	return rows.Err()
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID string, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	// Insert items with batch
	itemQuery := `INSERT INTO order_items (order_id, line_no, product_id, product_name, unit_price, quantity_per_day, item_total) VALUES `

	var values []interface{}
	for i, item := range items {
		itemQuery += "(?, ?, ?, ?, ?, ?, ?),"
		values = append(values, orderID, i, item.ProductID, item.ProductName, item.UnitPrice, item.QuantityPerDay, item.ItemTotal)
	}

	// Remove the trailing comma
	itemQuery = itemQuery[:len(itemQuery)-1]

	_, err := tx.ExecContext(ctx, itemQuery, values...)
	return err
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	order := &entity.Order{}
	var actual sql.NullString
	var status, paymentStatus string

	err := row.Scan(&order.ID, &order.OrderNumber, &order.CustomerID,
		&order.CustomerName, &order.CustomerPhone, &order.CustomerAddressLine1, &order.CustomerAddressLine2,
		&order.CustomerCity, &order.CustomerPostalCode, &order.CustomerGoogleMapsPinLink,
		&order.OrderDate, &order.DeliveryStart, &order.DeliveryEnd, &actual,
		&order.DeliveryCharge, &order.Discount, &order.SubTotal, &order.GrandTotal,
		&status, &paymentStatus, &order.Notes, &order.DateAdded, &order.LastUpdated)
	if err != nil {
		return nil, err
	}

	if actual.Valid {
		order.DeliveryActualDate = &actual.String
	}
	order.Status = entity.OrderStatus(status)
	order.PaymentStatus = entity.PaymentStatus(paymentStatus)
	return order, nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
