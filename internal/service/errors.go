package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dairy-order-service/internal/entity"
	"dairy-order-service/internal/repository"
)

// ErrNotFound is returned when the order or customer being addressed does not exist.
var ErrNotFound = repository.ErrNotFound

// ErrDuplicateRequest is returned when an idempotency key has already been used.
var ErrDuplicateRequest = errors.New("idempotent key already exists")

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// DuplicateItemError rejects a product already ordered by the customer on the same order date.
type DuplicateItemError struct {
	ProductID   string
	ProductName string
	OrderDate   string
}

func (e *DuplicateItemError) Error() string {
	date := e.OrderDate
	if parsed, err := time.Parse(entity.DateLayout, e.OrderDate); err == nil {
		date = parsed.Format("January 2, 2006")
	}
	return fmt.Sprintf("item %q is already included in an order for this customer on %s", e.ProductName, date)
}
