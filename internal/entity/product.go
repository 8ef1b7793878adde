package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ProductUnit string

const (
	UnitLiter ProductUnit = "liter"
	UnitKg    ProductUnit = "kg"
	UnitItem  ProductUnit = "item"
)

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Unit         ProductUnit     `json:"unit"`
	DateAdded    time.Time       `json:"date_added"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// MarshalBinary lets the product be stored directly as a redis value.
func (p *Product) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

func (p *Product) UnmarshalBinary(data []byte) error {
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal product: %w", err)
	}
	return nil
}

/*
Schema MySQL for product table:
CREATE TABLE `products` (
  `id` varchar(64) NOT NULL,
  `name` varchar(255) NOT NULL,
  `description` text NOT NULL,
  `price_per_unit` decimal(12,2) NOT NULL,
  `unit` varchar(10) NOT NULL,
  PRIMARY KEY (`id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
