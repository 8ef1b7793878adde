package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Dates are stored as yyyy-MM-dd strings so they scan into string fields under parseTime.
var orderTables = []string{`
		CREATE TABLE IF NOT EXISTS orders (
			id CHAR(36) PRIMARY KEY,
			order_number VARCHAR(32) NOT NULL,
			customer_id VARCHAR(64) NOT NULL,
			customer_name VARCHAR(255) NOT NULL DEFAULT '',
			customer_phone VARCHAR(32) NOT NULL DEFAULT '',
			customer_address_line1 VARCHAR(255) NOT NULL DEFAULT '',
			customer_address_line2 VARCHAR(255) NOT NULL DEFAULT '',
			customer_city VARCHAR(100) NOT NULL DEFAULT '',
			customer_postal_code VARCHAR(20) NOT NULL DEFAULT '',
			customer_maps_link VARCHAR(512) NOT NULL DEFAULT '',
			order_date CHAR(10) NOT NULL,
			delivery_start CHAR(10) NOT NULL,
			delivery_end CHAR(10) NOT NULL,
			delivery_actual_date CHAR(10) NULL,
			delivery_charge DECIMAL(12,2) NOT NULL,
			discount DECIMAL(12,2) NOT NULL,
			sub_total DECIMAL(12,2) NOT NULL,
			grand_total DECIMAL(12,2) NOT NULL,
			status VARCHAR(32) NOT NULL,
			payment_status VARCHAR(16) NOT NULL,
			notes VARCHAR(500) NOT NULL DEFAULT '',
			date_added DATETIME NOT NULL,
			last_updated DATETIME NOT NULL,
			INDEX idx_orders_customer (customer_id, order_date),
			INDEX idx_orders_delivery (status, delivery_start)
		);
	`, `
		CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id CHAR(36) NOT NULL,
			line_no INT NOT NULL,
			product_id VARCHAR(64) NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			unit_price DECIMAL(12,2) NOT NULL,
			quantity_per_day INT NOT NULL,
			item_total DECIMAL(14,2) NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		);
	`}

var catalogTables = []string{`
		CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			price_per_unit DECIMAL(12,2) NOT NULL,
			unit VARCHAR(10) NOT NULL,
			date_added DATETIME NOT NULL,
			last_updated DATETIME NOT NULL
		);
	`, `
		CREATE TABLE IF NOT EXISTS customers (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			phone VARCHAR(32) NOT NULL,
			address_line1 VARCHAR(255) NOT NULL,
			address_line2 VARCHAR(255) NOT NULL DEFAULT '',
			city VARCHAR(100) NOT NULL,
			state_or_province VARCHAR(100) NOT NULL DEFAULT '',
			postal_code VARCHAR(20) NOT NULL,
			google_maps_pin_link VARCHAR(512) NOT NULL DEFAULT '',
			join_date CHAR(10) NOT NULL,
			date_added DATETIME NOT NULL,
			last_updated DATETIME NOT NULL
		);
	`, `
		CREATE TABLE IF NOT EXISTS feed_logs (
			id CHAR(36) PRIMARY KEY,
			cow_id VARCHAR(64) NOT NULL,
			log_date CHAR(10) NOT NULL,
			food_name VARCHAR(64) NOT NULL,
			quantity_kg DECIMAL(8,2) NOT NULL,
			notes VARCHAR(500) NOT NULL DEFAULT '',
			date_added DATETIME NOT NULL,
			last_updated DATETIME NOT NULL,
			INDEX idx_feed_logs_day (cow_id, log_date)
		);
	`}

// AutoMigrateOrders creates the orders and order_items tables on every shard.
func AutoMigrateOrders(ctx context.Context, retries int, dbs ...*sql.DB) error {
	for i, db := range dbs {
		for _, query := range orderTables {
			if err := execWithRetry(ctx, db, query, retries); err != nil {
				return fmt.Errorf("shard %d: %w", i, err)
			}
		}
	}
	return nil
}

// AutoMigrateCatalog creates the products, customers and feed_logs tables on the primary shard.
func AutoMigrateCatalog(ctx context.Context, retries int, db *sql.DB) error {
	for _, query := range catalogTables {
		if err := execWithRetry(ctx, db, query, retries); err != nil {
			return err
		}
	}
	return nil
}

func execWithRetry(ctx context.Context, db *sql.DB, query string, retries int) error {
	_, err := db.ExecContext(ctx, query)
	// Retry creating the table
	for i := 0; err != nil && i < retries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
		_, err = db.ExecContext(ctx, query)
	}
	return err
}
