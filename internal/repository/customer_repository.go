package repository

import (
	"context"
	"database/sql"
	"errors"

	"dairy-order-service/internal/entity"
)

const customerColumns = `id, name, email, phone, address_line1, address_line2, city, state_or_province,
	postal_code, google_maps_pin_link, join_date, date_added, last_updated`

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db}
}

func (r *CustomerRepository) GetCustomerByID(ctx context.Context, id string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (r *CustomerRepository) GetCustomers(ctx context.Context) ([]*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*entity.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}

	return customers, rows.Err()
}

func scanCustomer(row rowScanner) (*entity.Customer, error) {
	customer := &entity.Customer{}
	err := row.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Phone,
		&customer.AddressLine1, &customer.AddressLine2, &customer.City, &customer.StateOrProvince,
		&customer.PostalCode, &customer.GoogleMapsPinLink, &customer.JoinDate,
		&customer.DateAdded, &customer.LastUpdated)
	if err != nil {
		return nil, err
	}
	return customer, nil
}
