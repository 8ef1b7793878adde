package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dairy-order-service/internal/entity"

	"github.com/shopspring/decimal"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (*entity.Product, error) {
	product := &entity.Product{}
	var unit string

	query := `SELECT id, name, description, price_per_unit, unit, date_added, last_updated FROM products WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.Name, &product.Description, &product.PricePerUnit, &unit, &product.DateAdded, &product.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	product.Unit = entity.ProductUnit(unit)
	return product, nil
}

func (r *ProductRepository) GetProducts(ctx context.Context) ([]*entity.Product, error) {
	var products []*entity.Product

	query := `SELECT id, name, description, price_per_unit, unit, date_added, last_updated FROM products ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var product entity.Product
		var unit string
		err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.PricePerUnit, &unit, &product.DateAdded, &product.LastUpdated)
		if err != nil {
			return nil, err
		}
		product.Unit = entity.ProductUnit(unit)
		products = append(products, &product)
	}

	return products, rows.Err()
}

// UpdateProductPrice changes the live unit price. Orders pick it up the next time they are saved.
func (r *ProductRepository) UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE products SET price_per_unit = ?, last_updated = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, price, updatedAt, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
