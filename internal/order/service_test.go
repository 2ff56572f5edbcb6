package order_test

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stocktrack/internal/event"
	"github.com/example/stocktrack/internal/order"
	"github.com/example/stocktrack/internal/store/mocks"
)

// capturePublisher records published envelopes in order.
type capturePublisher struct {
	mu     sync.Mutex
	events []event.Envelope
}

func (p *capturePublisher) Publish(ctx context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, payload.(event.Envelope))
	return nil
}

func validInput() order.PlaceInput {
	return order.PlaceInput{
		Customer: order.CustomerInput{
			FirstName: "Taro",
			LastName:  "Yamada",
			Email:     "taro@example.com",
			Phone:     "090-0000-0000",
			Address:   "1-2-3 Chiyoda, Tokyo",
		},
		Items: []order.ItemInput{
			{ProductID: 1, ProductName: "Widget", Quantity: 2, Price: decimal.NewFromInt(10)},
			{ProductID: 2, ProductName: "Gadget", Quantity: 3, Price: decimal.NewFromInt(5)},
		},
		PaymentMethod: "credit_card",
	}
}

// ============================================
// Place Tests
// ============================================

func TestService_Place_Success(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 10)
	svc := order.NewService(storeMock, nil)

	receipt, err := svc.Place(context.Background(), validInput())

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.NotZero(t, receipt.OrderID)
	assert.Regexp(t, regexp.MustCompile(`^ORD\d{8}$`), receipt.OrderNumber)

	o, ok := storeMock.Orders[receipt.OrderID]
	require.True(t, ok)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, receipt.OrderNumber, o.Number)
	assert.Len(t, storeMock.Items[receipt.OrderID], 2)
	assert.Len(t, storeMock.Customers, 1)

	// Stock decremented by the ordered quantities
	assert.Equal(t, 8, storeMock.Stock[1])
	assert.Equal(t, 7, storeMock.Stock[2])
}

func TestService_Place_TotalIsSumOfLines(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 10)
	svc := order.NewService(storeMock, nil)

	// 10*2 + 5*3 = 35
	receipt, err := svc.Place(context.Background(), validInput())

	require.NoError(t, err)
	o := storeMock.Orders[receipt.OrderID]
	assert.True(t, o.Total.Equal(decimal.NewFromInt(35)), "total = %s", o.Total)
}

func TestService_Place_RollsBackOnLastItemFailure(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 10)
	// Customer, order header and the first line succeed; the final
	// stock decrement fails.
	storeMock.DecrementErrOn = 2
	storeMock.DecrementErr = mocks.ErrBoom
	svc := order.NewService(storeMock, nil)

	receipt, err := svc.Place(context.Background(), validInput())

	require.Error(t, err)
	assert.Nil(t, receipt)

	// Nothing survives the rollback.
	assert.Empty(t, storeMock.Customers)
	assert.Empty(t, storeMock.Orders)
	assert.Empty(t, storeMock.Items)
	assert.Equal(t, 10, storeMock.Stock[1])
	assert.Equal(t, 10, storeMock.Stock[2])
}

func TestService_Place_InsufficientStock(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 2) // second line needs 3
	svc := order.NewService(storeMock, nil)

	_, err := svc.Place(context.Background(), validInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrInsufficientStock)
	assert.Empty(t, storeMock.Orders)
	assert.Equal(t, 10, storeMock.Stock[1])
	assert.Equal(t, 2, storeMock.Stock[2])
}

func TestService_Place_UnknownProduct(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	// product 2 never seeded: the guarded decrement matches no row
	svc := order.NewService(storeMock, nil)

	_, err := svc.Place(context.Background(), validInput())

	assert.ErrorIs(t, err, order.ErrInsufficientStock)
	assert.Empty(t, storeMock.Orders)
}

func TestService_Place_ConcurrentLastUnit(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 1)
	svc := order.NewService(storeMock, nil)

	in := validInput()
	in.Items = []order.ItemInput{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(10)}}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Place(context.Background(), in)
		}(i)
	}
	wg.Wait()

	// Exactly one order wins the last unit.
	if errs[0] == nil {
		assert.ErrorIs(t, errs[1], order.ErrInsufficientStock)
	} else {
		assert.ErrorIs(t, errs[0], order.ErrInsufficientStock)
		assert.NoError(t, errs[1])
	}
	assert.Len(t, storeMock.Orders, 1)
	assert.Equal(t, 0, storeMock.Stock[1])
}

func TestService_Place_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*order.PlaceInput)
	}{
		{"missing first name", func(in *order.PlaceInput) { in.Customer.FirstName = "" }},
		{"missing last name", func(in *order.PlaceInput) { in.Customer.LastName = " " }},
		{"missing email", func(in *order.PlaceInput) { in.Customer.Email = "" }},
		{"malformed email", func(in *order.PlaceInput) { in.Customer.Email = "not-an-email" }},
		{"missing phone", func(in *order.PlaceInput) { in.Customer.Phone = "" }},
		{"missing address", func(in *order.PlaceInput) { in.Customer.Address = "" }},
		{"no items", func(in *order.PlaceInput) { in.Items = nil }},
		{"zero quantity", func(in *order.PlaceInput) { in.Items[0].Quantity = 0 }},
		{"negative quantity", func(in *order.PlaceInput) { in.Items[0].Quantity = -1 }},
		{"negative price", func(in *order.PlaceInput) { in.Items[0].Price = decimal.NewFromInt(-1) }},
		{"no product id", func(in *order.PlaceInput) { in.Items[0].ProductID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storeMock := mocks.NewMockOrderStore()
			storeMock.SetStock(1, 10)
			storeMock.SetStock(2, 10)
			svc := order.NewService(storeMock, nil)

			in := validInput()
			tt.mutate(&in)

			_, err := svc.Place(context.Background(), in)

			assert.ErrorIs(t, err, order.ErrValidation)
			// Validation failures never reach the store.
			assert.Empty(t, storeMock.Orders)
			assert.Empty(t, storeMock.Customers)
		})
	}
}

func TestService_Place_ExpiredContextRollsBack(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 10)
	svc := order.NewService(storeMock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	receipt, err := svc.Place(ctx, validInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, receipt)
	assert.Empty(t, storeMock.Orders)
	assert.Empty(t, storeMock.Customers)
	assert.Equal(t, 10, storeMock.Stock[1])
	assert.Equal(t, 10, storeMock.Stock[2])
}

func TestService_Place_PricesAreSnapshotted(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 10)
	svc := order.NewService(storeMock, nil)

	in := validInput()
	receipt, err := svc.Place(context.Background(), in)
	require.NoError(t, err)

	got, err := storeMock.Get(context.Background(), receipt.OrderID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	for i, it := range got.Items {
		assert.True(t, it.Price.Equal(in.Items[i].Price),
			"item %d price %s, submitted %s", i, it.Price, in.Items[i].Price)
	}
}

func TestService_Place_PublishesOrderPlaced(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 10)
	pub := &capturePublisher{}
	svc := order.NewService(storeMock, pub)

	receipt, err := svc.Place(context.Background(), validInput())
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	env := pub.events[0]
	assert.Equal(t, event.TypeOrderPlaced, env.Type)
	assert.NotEmpty(t, env.ID)

	var placed event.OrderPlaced
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	assert.Equal(t, receipt.OrderID, placed.OrderID)
	assert.Equal(t, receipt.OrderNumber, placed.OrderNumber)
	assert.Equal(t, "taro@example.com", placed.CustomerEmail)
	assert.True(t, placed.Total.Equal(decimal.NewFromInt(35)))
	require.Len(t, placed.Items, 2)
	assert.Equal(t, "Widget", placed.Items[0].Name)
	assert.Equal(t, "Gadget", placed.Items[1].Name)
}

func TestService_Place_NoEventOnFailure(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 2)
	pub := &capturePublisher{}
	svc := order.NewService(storeMock, pub)

	_, err := svc.Place(context.Background(), validInput())

	require.Error(t, err)
	assert.Empty(t, pub.events)
}

// ============================================
// UpdateStatus Tests
// ============================================

func placeOrder(t *testing.T, storeMock *mocks.MockOrderStore, svc *order.Service) *order.Receipt {
	t.Helper()
	storeMock.SetStock(1, 10)
	storeMock.SetStock(2, 10)
	receipt, err := svc.Place(context.Background(), validInput())
	require.NoError(t, err)
	return receipt
}

func TestService_UpdateStatus_AppendsHistory(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	svc := order.NewService(storeMock, nil)
	receipt := placeOrder(t, storeMock, svc)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStatus(ctx, receipt.OrderID, "processing", "picking started"))
	require.NoError(t, svc.UpdateStatus(ctx, receipt.OrderID, "shipped", ""))
	require.NoError(t, svc.UpdateStatus(ctx, receipt.OrderID, "completed", "delivered"))

	assert.Equal(t, order.StatusCompleted, storeMock.Orders[receipt.OrderID].Status)

	history := storeMock.History[receipt.OrderID]
	require.Len(t, history, 3)
	assert.Equal(t, order.StatusProcessing, history[0].Status)
	assert.Equal(t, order.StatusShipped, history[1].Status)
	assert.Equal(t, order.StatusCompleted, history[2].Status)
	assert.Equal(t, "picking started", history[0].Note)
}

func TestService_UpdateStatus_RejectsInvalidTransition(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	svc := order.NewService(storeMock, nil)
	receipt := placeOrder(t, storeMock, svc)

	// pending -> completed skips processing and shipped
	err := svc.UpdateStatus(context.Background(), receipt.OrderID, "completed", "")

	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, order.StatusPending, storeMock.Orders[receipt.OrderID].Status)
	assert.Empty(t, storeMock.History[receipt.OrderID])
}

func TestService_UpdateStatus_TerminalStates(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	svc := order.NewService(storeMock, nil)
	receipt := placeOrder(t, storeMock, svc)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStatus(ctx, receipt.OrderID, "cancelled", "customer request"))

	err := svc.UpdateStatus(ctx, receipt.OrderID, "processing", "")
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestService_UpdateStatus_UnknownStatus(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	svc := order.NewService(storeMock, nil)
	receipt := placeOrder(t, storeMock, svc)

	err := svc.UpdateStatus(context.Background(), receipt.OrderID, "teleported", "")

	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}

func TestService_UpdateStatus_OrderNotFound(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	svc := order.NewService(storeMock, nil)

	err := svc.UpdateStatus(context.Background(), 9999, "processing", "")

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestService_UpdateStatus_AtomicWithHistory(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	svc := order.NewService(storeMock, nil)
	receipt := placeOrder(t, storeMock, svc)
	storeMock.InsertHistoryErr = mocks.ErrBoom

	err := svc.UpdateStatus(context.Background(), receipt.OrderID, "processing", "")

	require.Error(t, err)
	// The status update rolls back with the failed history insert.
	assert.Equal(t, order.StatusPending, storeMock.Orders[receipt.OrderID].Status)
	assert.Empty(t, storeMock.History[receipt.OrderID])
}

func TestService_UpdateStatus_PublishesStatusChanged(t *testing.T) {
	storeMock := mocks.NewMockOrderStore()
	pub := &capturePublisher{}
	svc := order.NewService(storeMock, pub)
	receipt := placeOrder(t, storeMock, svc)

	require.NoError(t, svc.UpdateStatus(context.Background(), receipt.OrderID, "processing", "on it"))

	require.Len(t, pub.events, 2) // order.placed followed by the transition
	env := pub.events[1]
	assert.Equal(t, event.TypeOrderStatusChanged, env.Type)

	var changed event.OrderStatusChanged
	require.NoError(t, json.Unmarshal(env.Data, &changed))
	assert.Equal(t, receipt.OrderID, changed.OrderID)
	assert.Equal(t, receipt.OrderNumber, changed.OrderNumber)
	assert.Equal(t, "processing", changed.Status)
	assert.Equal(t, "on it", changed.Note)
	assert.Equal(t, "taro@example.com", changed.CustomerEmail)
}
