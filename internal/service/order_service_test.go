package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dairy-order-service/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc       *OrderService
	orders    *fakeOrderStore
	products  *fakeProductStore
	customers *fakeCustomerStore
	cache     *fakeCache
	writer    *fakeWriter
}

func newOrderFixture(orders ...*entity.Order) *orderFixture {
	f := &orderFixture{
		orders: newFakeOrderStore(orders...),
		products: newFakeProductStore(
			entity.Product{ID: "milk", Name: "Pure GIR Cow A2 Milk", PricePerUnit: dec("8"), Unit: entity.UnitLiter},
			entity.Product{ID: "ghee", Name: "A2 Bilona Ghee", PricePerUnit: dec("25.50"), Unit: entity.UnitKg},
		),
		customers: newFakeCustomerStore(entity.Customer{
			ID: "cust-1", Name: "Arjun Patel", Phone: "123-456-7890",
			AddressLine1: "12 Vedic Lane", City: "Ayodhya", PostalCode: "12345",
		}),
		cache:  newFakeCache(),
		writer: &fakeWriter{},
	}

	products := NewProductService(f.products, f.cache, nil, time.Hour)
	f.svc = NewOrderService(f.orders, products, NewSnapshotResolver(f.customers), f.writer, f.cache, 24*time.Hour)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func newDraft() *entity.OrderDraft {
	return &entity.OrderDraft{
		CustomerID:     "cust-1",
		OrderDate:      "2024-01-01",
		DeliveryStart:  "2024-01-01",
		DeliveryEnd:    "2024-01-03",
		Items:          []entity.ItemInput{{ProductID: "milk", QuantityPerDay: 2}},
		DeliveryCharge: dec("5"),
		Discount:       dec("2"),
	}
}

func strPtr(s string) *string {
	return &s
}

func TestCreateOrder_PricesWindowAndSnapshotsCustomer(t *testing.T) {
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "Pure GIR Cow A2 Milk", order.Items[0].ProductName)
	assert.True(t, order.Items[0].ItemTotal.Equal(dec("48")))
	assert.True(t, order.SubTotal.Equal(dec("48")))
	assert.True(t, order.GrandTotal.Equal(dec("51")))

	assert.Equal(t, "Arjun Patel", order.CustomerName)
	assert.Equal(t, "12 Vedic Lane", order.CustomerAddressLine1)
	assert.Equal(t, entity.StatusPending, order.Status)
	assert.Equal(t, entity.PaymentPending, order.PaymentStatus)
	assert.Nil(t, order.DeliveryActualDate)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, testNow, order.DateAdded)
	assert.Equal(t, testNow, order.LastUpdated)

	assert.Equal(t, []string{"order-created-" + order.ID}, f.writer.keys())
}

func TestCreateOrder_MissingReferencesDegradeToSentinels(t *testing.T) {
	f := newOrderFixture()
	draft := newDraft()
	draft.CustomerID = "gone"
	draft.Items = append(draft.Items, entity.ItemInput{ProductID: "retired", QuantityPerDay: 4})

	order, err := f.svc.CreateOrder(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, entity.CustomerSnapshot{CustomerName: UnknownCustomerName}, order.CustomerSnapshot)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Unknown Product", order.Items[1].ProductName)
	assert.True(t, order.Items[1].UnitPrice.IsZero())
	assert.True(t, order.Items[1].ItemTotal.IsZero())
	assert.True(t, order.SubTotal.Equal(dec("48")))
}

func TestCreateOrder_DeliveredStatusSetsActualDate(t *testing.T) {
	f := newOrderFixture()
	draft := newDraft()
	draft.Status = entity.StatusDelivered

	order, err := f.svc.CreateOrder(context.Background(), draft)
	require.NoError(t, err)
	require.NotNil(t, order.DeliveryActualDate)
	assert.Equal(t, "2024-01-02", *order.DeliveryActualDate)
}

func TestCreateOrder_IdempotentKeyReplay(t *testing.T) {
	f := newOrderFixture()

	draft := newDraft()
	draft.IdempotentKey = "key-1"
	_, err := f.svc.CreateOrder(context.Background(), draft)
	require.NoError(t, err)

	replay := newDraft()
	replay.IdempotentKey = "key-1"
	_, err = f.svc.CreateOrder(context.Background(), replay)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.Len(t, f.orders.orders, 1)
}

func TestCreateOrder_StoreFailureReleasesIdempotentKey(t *testing.T) {
	f := newOrderFixture()
	f.orders.err = errStoreDown

	draft := newDraft()
	draft.IdempotentKey = "key-2"
	_, err := f.svc.CreateOrder(context.Background(), draft)
	assert.ErrorIs(t, err, errStoreDown)
	assert.False(t, f.cache.has(idempotentRedisKey("key-2")))
	assert.Empty(t, f.writer.keys())
}

func TestCreateOrder_PublishFailureDoesNotFailCreate(t *testing.T) {
	f := newOrderFixture()
	f.writer.err = errors.New("broker down")

	order, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)
	assert.Contains(t, f.orders.orders, order.ID)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newOrderFixture()

	draft := newDraft()
	draft.Items = nil
	draft.DeliveryEnd = "2023-12-31"
	draft.Discount = dec("-1")

	_, err := f.svc.CreateOrder(context.Background(), draft)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "items")
	assert.Contains(t, validationErr.Fields, "delivery_end")
	assert.Contains(t, validationErr.Fields, "discount")
	assert.Empty(t, f.orders.orders)
}

func TestUpdateOrder_NotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.UpdateOrder(context.Background(), "missing", &entity.OrderPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrder_EmptyPatchRepricesOnTouch(t *testing.T) {
	f := newOrderFixture()
	created, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)

	unchanged, err := f.svc.UpdateOrder(context.Background(), created.ID, &entity.OrderPatch{})
	require.NoError(t, err)
	assert.True(t, unchanged.SubTotal.Equal(created.SubTotal))
	assert.True(t, unchanged.GrandTotal.Equal(created.GrandTotal))

	f.products.setPrice("milk", "9")
	require.NoError(t, f.svc.products.(*ProductService).EvictProduct(context.Background(), "milk"))

	repriced, err := f.svc.UpdateOrder(context.Background(), created.ID, &entity.OrderPatch{})
	require.NoError(t, err)
	assert.True(t, repriced.Items[0].UnitPrice.Equal(dec("9")))
	assert.True(t, repriced.SubTotal.Equal(dec("54")))
	assert.True(t, repriced.GrandTotal.Equal(dec("57")))
}

func TestUpdateOrder_WindowChangeReprices(t *testing.T) {
	f := newOrderFixture()
	created, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrder(context.Background(), created.ID, &entity.OrderPatch{DeliveryEnd: strPtr("2024-01-01")})
	require.NoError(t, err)
	assert.True(t, updated.SubTotal.Equal(dec("16")))
	assert.True(t, updated.GrandTotal.Equal(dec("19")))

	_, err = f.svc.UpdateOrder(context.Background(), created.ID, &entity.OrderPatch{DeliveryStart: strPtr("2024-01-05")})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdateOrder_PreservesSnapshotAcrossCustomerEdits(t *testing.T) {
	f := newOrderFixture()
	created, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)

	f.customers.customers["cust-1"].AddressLine1 = "99 New Road"

	updated, err := f.svc.UpdateOrder(context.Background(), created.ID, &entity.OrderPatch{Notes: strPtr("leave at gate")})
	require.NoError(t, err)
	assert.Equal(t, "12 Vedic Lane", updated.CustomerAddressLine1)
	assert.Equal(t, "leave at gate", updated.Notes)
	assert.Nil(t, f.orders.lastChanges.Snapshot)

	// Same customer id in the patch is not a change.
	_, err = f.svc.UpdateOrder(context.Background(), created.ID, &entity.OrderPatch{CustomerID: strPtr("cust-1")})
	require.NoError(t, err)
	assert.Nil(t, f.orders.lastChanges.Snapshot)

	draft := newDraft()
	draft.OrderDate = "2024-01-05"
	next, err := f.svc.CreateOrder(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "99 New Road", next.CustomerAddressLine1)
}

func TestUpdateOrder_RefreshesSnapshot(t *testing.T) {
	legacy := &entity.Order{
		ID: "legacy", CustomerID: "cust-1", OrderDate: "2024-01-01",
		DeliveryStart: "2024-01-01", DeliveryEnd: "2024-01-01",
		Items:  []entity.OrderItem{{ProductID: "milk", QuantityPerDay: 1}},
		Status: entity.StatusConfirmed, PaymentStatus: entity.PaymentPending,
	}
	f := newOrderFixture(legacy)
	f.customers.customers["cust-2"] = &entity.Customer{ID: "cust-2", Name: "Meera Shah", City: "Surat"}

	healed, err := f.svc.UpdateOrder(context.Background(), "legacy", &entity.OrderPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Arjun Patel", healed.CustomerName)

	moved, err := f.svc.UpdateOrder(context.Background(), "legacy", &entity.OrderPatch{CustomerID: strPtr("cust-2")})
	require.NoError(t, err)
	assert.Equal(t, "cust-2", moved.CustomerID)
	assert.Equal(t, "Meera Shah", moved.CustomerName)
	assert.Equal(t, "Surat", moved.CustomerCity)
	assert.Empty(t, moved.CustomerAddressLine1)
}

func TestUpdateOrder_DeliveredSideEffects(t *testing.T) {
	f := newOrderFixture()
	draft := newDraft()
	draft.Status = entity.StatusConfirmed
	created, err := f.svc.CreateOrder(context.Background(), draft)
	require.NoError(t, err)

	delivered, err := f.svc.UpdateDeliveryStatus(context.Background(), created.ID, entity.StatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveryActualDate)
	assert.Equal(t, "2024-01-02", *delivered.DeliveryActualDate)

	// Already delivered keeps the original date.
	f.svc.now = func() time.Time { return testNow.AddDate(0, 0, 3) }
	again, err := f.svc.UpdateDeliveryStatus(context.Background(), created.ID, entity.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", *again.DeliveryActualDate)

	reopened, err := f.svc.UpdateDeliveryStatus(context.Background(), created.ID, entity.StatusProcessing)
	require.NoError(t, err)
	assert.Nil(t, reopened.DeliveryActualDate)
	assert.True(t, f.orders.lastChanges.ClearDeliveryActualDate)
}

func TestUpdateOrder_RejectsEmptyItems(t *testing.T) {
	f := newOrderFixture()
	created, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)

	_, err = f.svc.UpdateOrder(context.Background(), created.ID, &entity.OrderPatch{Items: []entity.ItemInput{}})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "items")
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture()
	created, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)

	deleted, err := f.svc.DeleteOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.svc.DeleteOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, []string{"order-created-" + created.ID, "order-deleted-" + created.ID}, f.writer.keys())
}

func TestGetOrdersForCustomer(t *testing.T) {
	f := newOrderFixture()

	orders, err := f.svc.GetOrdersForCustomer(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	f.orders.err = errStoreDown
	_, err = f.svc.GetOrdersForCustomer(context.Background(), "cust-1")
	assert.ErrorIs(t, err, errStoreDown)
}

func TestCheckDuplicateItems(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)

	second := newDraft()
	second.Items = []entity.ItemInput{{ProductID: "ghee", QuantityPerDay: 1}, {ProductID: "milk", QuantityPerDay: 1}}
	err = f.svc.CheckDuplicateItems(context.Background(), second)

	var dupErr *DuplicateItemError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "milk", dupErr.ProductID)
	assert.Equal(t, "Pure GIR Cow A2 Milk", dupErr.ProductName)
	assert.Contains(t, dupErr.Error(), "January 1, 2024")

	// Another order date, even with an overlapping window, is not a duplicate.
	second.OrderDate = "2024-01-02"
	assert.NoError(t, f.svc.CheckDuplicateItems(context.Background(), second))

	// A product missing from the catalog is named by id.
	_, err = f.svc.CreateOrder(context.Background(), &entity.OrderDraft{
		CustomerID: "cust-1", OrderDate: "2024-02-01", DeliveryStart: "2024-02-01", DeliveryEnd: "2024-02-01",
		Items: []entity.ItemInput{{ProductID: "retired", QuantityPerDay: 1}},
	})
	require.NoError(t, err)
	err = f.svc.CheckDuplicateItems(context.Background(), &entity.OrderDraft{
		CustomerID: "cust-1", OrderDate: "2024-02-01",
		Items: []entity.ItemInput{{ProductID: "retired", QuantityPerDay: 2}},
	})
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "Product ID retired", dupErr.ProductName)
}

func TestCreateOrder_RejectsDuplicateItems(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.CreateOrder(context.Background(), newDraft())
	require.NoError(t, err)

	draft := newDraft()
	draft.IdempotentKey = "key-3"
	_, err = f.svc.CreateOrder(context.Background(), draft)

	var dupErr *DuplicateItemError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "milk", dupErr.ProductID)
	assert.Len(t, f.orders.orders, 1)
	assert.False(t, f.cache.has(idempotentRedisKey("key-3")))
}

func TestCreateOrder_ChecksRunBeforeDuplicateGuard(t *testing.T) {
	f := newOrderFixture()
	first := newDraft()
	first.IdempotentKey = "key-4"
	_, err := f.svc.CreateOrder(context.Background(), first)
	require.NoError(t, err)

	// A replayed key is reported as such even though the items repeat.
	replay := newDraft()
	replay.IdempotentKey = "key-4"
	_, err = f.svc.CreateOrder(context.Background(), replay)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// An invalid draft never reaches the order store.
	f.orders.err = errStoreDown
	invalid := newDraft()
	invalid.CustomerID = ""
	invalid.Items[0].QuantityPerDay = 0
	_, err = f.svc.CreateOrder(context.Background(), invalid)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "customer_id")
	assert.NotErrorIs(t, err, errStoreDown)
}

func TestCatalogForStoreFailure(t *testing.T) {
	f := newOrderFixture()
	f.products.err = errStoreDown

	_, err := f.svc.CreateOrder(context.Background(), newDraft())
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, f.orders.orders)
}
