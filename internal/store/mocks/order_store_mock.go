package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/stocktrack/internal/order"
)

// MockOrderStore is an in-memory implementation of order.Store for
// testing. It keeps transactional semantics: writes made through a Tx
// are staged and only applied when the transaction function succeeds,
// and the guarded stock decrement behaves like the SQL form.
type MockOrderStore struct {
	mu sync.Mutex

	Customers map[int64]order.Customer
	Orders    map[int64]*order.Order
	Items     map[int64][]order.Item
	History   map[int64][]order.HistoryEntry
	Stock     map[int64]int
	Emails    map[int64]string // orderID -> customer email

	nextCustomerID int64
	nextOrderID    int64

	// Failure injection. A zero value means no failure.
	InsertCustomerErr error
	InsertOrderErr    error
	InsertItemErr     error
	InsertHistoryErr  error
	DecrementErrOn    int   // fail the Nth DecrementStock call (1-based)
	DecrementErr      error // error returned on that call
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		Customers: make(map[int64]order.Customer),
		Orders:    make(map[int64]*order.Order),
		Items:     make(map[int64][]order.Item),
		History:   make(map[int64][]order.HistoryEntry),
		Stock:     make(map[int64]int),
		Emails:    make(map[int64]string),
	}
}

// SetStock seeds committed stock for a product
func (m *MockOrderStore) SetStock(productID int64, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stock[productID] = qty
}

// InTx serializes transactions with a store-wide lock, which stands in
// for the row locking a real database provides.
func (m *MockOrderStore) InTx(ctx context.Context, fn func(order.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &mockTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// mockTx stages writes until commit.
type mockTx struct {
	store *MockOrderStore

	customers      []order.Customer
	orders         []*order.Order
	items          map[int64][]order.Item
	history        []order.HistoryEntry
	stockDelta     map[int64]int
	statusUpdates  map[int64]order.Status
	decrementCalls int
}

func (t *mockTx) InsertCustomer(ctx context.Context, c order.Customer) (int64, error) {
	if t.store.InsertCustomerErr != nil {
		return 0, t.store.InsertCustomerErr
	}
	t.store.nextCustomerID++
	c.ID = t.store.nextCustomerID
	t.customers = append(t.customers, c)
	return c.ID, nil
}

func (t *mockTx) InsertOrder(ctx context.Context, o order.Order) (int64, error) {
	if t.store.InsertOrderErr != nil {
		return 0, t.store.InsertOrderErr
	}
	t.store.nextOrderID++
	o.ID = t.store.nextOrderID
	o.CreatedAt = time.Now()
	t.orders = append(t.orders, &o)
	return o.ID, nil
}

func (t *mockTx) InsertItem(ctx context.Context, orderID int64, it order.Item) error {
	if t.store.InsertItemErr != nil {
		return t.store.InsertItemErr
	}
	if t.items == nil {
		t.items = make(map[int64][]order.Item)
	}
	t.items[orderID] = append(t.items[orderID], it)
	return nil
}

func (t *mockTx) DecrementStock(ctx context.Context, productID int64, qty int) (int64, error) {
	t.decrementCalls++
	if t.store.DecrementErrOn > 0 && t.decrementCalls == t.store.DecrementErrOn {
		return 0, t.store.DecrementErr
	}

	current, ok := t.store.Stock[productID]
	if t.stockDelta == nil {
		t.stockDelta = make(map[int64]int)
	}
	current -= t.stockDelta[productID]
	if !ok || current < qty {
		return 0, nil // guarded decrement: no row matches
	}
	t.stockDelta[productID] += qty
	return 1, nil
}

func (t *mockTx) OrderForUpdate(ctx context.Context, orderID int64) (*order.Ref, error) {
	o, ok := t.store.Orders[orderID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &order.Ref{
		Number:        o.Number,
		Status:        o.Status,
		CustomerEmail: t.store.Emails[orderID],
	}, nil
}

func (t *mockTx) SetStatus(ctx context.Context, orderID int64, s order.Status) error {
	if _, ok := t.store.Orders[orderID]; !ok {
		return order.ErrOrderNotFound
	}
	if t.statusUpdates == nil {
		t.statusUpdates = make(map[int64]order.Status)
	}
	t.statusUpdates[orderID] = s
	return nil
}

func (t *mockTx) InsertHistory(ctx context.Context, h order.HistoryEntry) error {
	if t.store.InsertHistoryErr != nil {
		return t.store.InsertHistoryErr
	}
	h.CreatedAt = time.Now()
	t.history = append(t.history, h)
	return nil
}

func (t *mockTx) commit() {
	s := t.store
	for _, c := range t.customers {
		s.Customers[c.ID] = c
	}
	for _, o := range t.orders {
		s.Orders[o.ID] = o
	}
	for orderID, items := range t.items {
		s.Items[orderID] = append(s.Items[orderID], items...)
	}
	for id, delta := range t.stockDelta {
		s.Stock[id] -= delta
	}
	for id, status := range t.statusUpdates {
		s.Orders[id].Status = status
	}
	for _, h := range t.history {
		s.History[h.OrderID] = append(s.History[h.OrderID], h)
	}
	// Link customer emails to committed orders for OrderForUpdate.
	for _, o := range t.orders {
		for _, c := range t.customers {
			if c.ID == o.Customer.ID {
				s.Emails[o.ID] = c.Email
			}
		}
	}
}

// Get mirrors the read-back query of the real store.
func (m *MockOrderStore) Get(ctx context.Context, id int64) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.Orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	out := *o
	out.Items = append([]order.Item(nil), m.Items[id]...)
	if c, ok := m.Customers[o.Customer.ID]; ok {
		out.Customer = c
	}
	return &out, nil
}

// ErrBoom is a convenience injected failure
var ErrBoom = fmt.Errorf("simulated store failure")
