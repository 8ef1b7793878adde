package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"dairy-order-service/internal/entity"
)

const minPhoneDigits = 10

// CustomerService finds a customer's orders from their phone number.
type CustomerService struct {
	customerRepo CustomerStore
	orderRepo    OrderStore
}

func NewCustomerService(customerRepo CustomerStore, orderRepo OrderStore) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, orderRepo: orderRepo}
}

// FindByPhone matches phone numbers on their digits only, so formatting differences are ignored.
func (s *CustomerService) FindByPhone(ctx context.Context, phone string) (*entity.Customer, []*entity.Order, error) {
	digits := digitsOnly(phone)
	if len(digits) < minPhoneDigits {
		return nil, nil, &ValidationError{Fields: map[string]string{
			"phone": "Please enter a valid phone number (at least 10 digits).",
		}}
	}

	customers, err := s.customerRepo.GetCustomers(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting customers")
		return nil, nil, fmt.Errorf("get customers: %w", err)
	}

	var customer *entity.Customer
	for _, c := range customers {
		if digitsOnly(c.Phone) == digits {
			customer = c
			break
		}
	}
	if customer == nil {
		return nil, nil, fmt.Errorf("customer with phone %s: %w", digits, ErrNotFound)
	}

	orders, err := s.orderRepo.GetOrdersByCustomerID(ctx, customer.ID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting orders of customer %s", customer.ID)
		return nil, nil, fmt.Errorf("get orders of customer %s: %w", customer.ID, err)
	}
	if orders == nil {
		orders = []*entity.Order{}
	}

	return customer, orders, nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
