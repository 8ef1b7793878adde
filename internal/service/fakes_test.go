package service

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"dairy-order-service/internal/entity"
	"dairy-order-service/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, time.January, 2, 9, 30, 0, 0, time.UTC)

type fakeOrderStore struct {
	mu          sync.Mutex
	orders      map[string]*entity.Order
	lastChanges *repository.OrderChanges
	err         error
}

func newFakeOrderStore(orders ...*entity.Order) *fakeOrderStore {
	store := &fakeOrderStore{orders: map[string]*entity.Order{}}
	for _, order := range orders {
		store.orders[order.ID] = order
	}
	return store
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	if o.DeliveryActualDate != nil {
		d := *o.DeliveryActualDate
		c.DeliveryActualDate = &d
	}
	return &c
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id string) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *entity.Order) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.orders[order.ID] = cloneOrder(order)
	return order, nil
}

func (f *fakeOrderStore) UpdateOrder(_ context.Context, id string, changes repository.OrderChanges) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	order, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.lastChanges = &changes

	if changes.CustomerID != nil {
		order.CustomerID = *changes.CustomerID
	}
	if changes.Snapshot != nil {
		order.CustomerSnapshot = *changes.Snapshot
	}
	if changes.OrderDate != nil {
		order.OrderDate = *changes.OrderDate
	}
	if changes.DeliveryStart != nil {
		order.DeliveryStart = *changes.DeliveryStart
	}
	if changes.DeliveryEnd != nil {
		order.DeliveryEnd = *changes.DeliveryEnd
	}
	if changes.ClearDeliveryActualDate {
		order.DeliveryActualDate = nil
	} else if changes.DeliveryActualDate != nil {
		d := *changes.DeliveryActualDate
		order.DeliveryActualDate = &d
	}
	if changes.Items != nil {
		order.Items = append([]entity.OrderItem(nil), changes.Items...)
	}
	if changes.DeliveryCharge != nil {
		order.DeliveryCharge = *changes.DeliveryCharge
	}
	if changes.Discount != nil {
		order.Discount = *changes.Discount
	}
	if changes.SubTotal != nil {
		order.SubTotal = *changes.SubTotal
	}
	if changes.GrandTotal != nil {
		order.GrandTotal = *changes.GrandTotal
	}
	if changes.Status != nil {
		order.Status = *changes.Status
	}
	if changes.PaymentStatus != nil {
		order.PaymentStatus = *changes.PaymentStatus
	}
	if changes.Notes != nil {
		order.Notes = *changes.Notes
	}
	order.LastUpdated = changes.LastUpdated
	return nil
}

func (f *fakeOrderStore) DeleteOrder(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.orders[id]
	delete(f.orders, id)
	return ok, nil
}

func (f *fakeOrderStore) GetOrdersByCustomerID(_ context.Context, customerID string) ([]*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var orders []*entity.Order
	for _, order := range f.orders {
		if order.CustomerID == customerID {
			orders = append(orders, cloneOrder(order))
		}
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].OrderDate > orders[j].OrderDate })
	return orders, nil
}

func (f *fakeOrderStore) GetOrdersStartingOnOrBefore(_ context.Context, date string, statuses []entity.OrderStatus) ([]*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var orders []*entity.Order
	for _, order := range f.orders {
		if order.DeliveryStart > date {
			continue
		}
		for _, status := range statuses {
			if order.Status == status {
				orders = append(orders, cloneOrder(order))
				break
			}
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[string]*entity.Product
	reads    int
	err      error
}

func newFakeProductStore(products ...entity.Product) *fakeProductStore {
	store := &fakeProductStore{products: map[string]*entity.Product{}}
	for i := range products {
		p := products[i]
		store.products[p.ID] = &p
	}
	return store
}

func (f *fakeProductStore) GetProductByID(_ context.Context, id string) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	product, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := *product
	return &p, nil
}

func (f *fakeProductStore) GetProducts(_ context.Context) ([]*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	products := []*entity.Product{}
	for _, product := range f.products {
		p := *product
		products = append(products, &p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (f *fakeProductStore) UpdateProductPrice(_ context.Context, id string, price decimal.Decimal, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	product.PricePerUnit = price
	product.LastUpdated = updatedAt
	return nil
}

func (f *fakeProductStore) setPrice(id, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id].PricePerUnit = decimal.RequireFromString(price)
}

type fakeCustomerStore struct {
	customers map[string]*entity.Customer
	err       error
}

func newFakeCustomerStore(customers ...entity.Customer) *fakeCustomerStore {
	store := &fakeCustomerStore{customers: map[string]*entity.Customer{}}
	for i := range customers {
		c := customers[i]
		store.customers[c.ID] = &c
	}
	return store
}

func (f *fakeCustomerStore) GetCustomerByID(_ context.Context, id string) (*entity.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	customer, ok := f.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *customer
	return &c, nil
}

func (f *fakeCustomerStore) GetCustomers(_ context.Context) ([]*entity.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	customers := []*entity.Customer{}
	for _, customer := range f.customers {
		c := *customer
		customers = append(customers, &c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

// fakeCache is an in-memory stand-in for the redis client. Expirations are ignored.
type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	encoded, err := encodeCacheValue(value)
	if err != nil {
		return redis.NewStatusResult("", err)
	}
	f.values[key] = encoded
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCache) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, exists := f.values[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	encoded, err := encodeCacheValue(value)
	if err != nil {
		return redis.NewBoolResult(false, err)
	}
	f.values[key] = encoded
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[key]
	return ok
}

func encodeCacheValue(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case encoding.BinaryMarshaler:
		data, err := v.MarshalBinary()
		return string(data), err
	}
	return "", fmt.Errorf("unsupported cache value %T", value)
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.messages))
	for _, msg := range f.messages {
		keys = append(keys, string(msg.Key))
	}
	return keys
}

type fakeFeedLogStore struct {
	logs map[string][]entity.FeedLog
	err  error
}

func newFakeFeedLogStore() *fakeFeedLogStore {
	return &fakeFeedLogStore{logs: map[string][]entity.FeedLog{}}
}

func (f *fakeFeedLogStore) ReplaceDailyFeedLogs(_ context.Context, cowID, date string, logs []entity.FeedLog) error {
	if f.err != nil {
		return f.err
	}
	f.logs[cowID+"/"+date] = logs
	return nil
}

func (f *fakeFeedLogStore) DeleteFeedLogsForDay(_ context.Context, cowID, date string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	logs, ok := f.logs[cowID+"/"+date]
	delete(f.logs, cowID+"/"+date)
	return ok && len(logs) > 0, nil
}

func (f *fakeFeedLogStore) GetFeedLogsByCowAndDate(_ context.Context, cowID, date string) ([]entity.FeedLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.logs[cowID+"/"+date], nil
}

var errStoreDown = errors.New("store unavailable")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
