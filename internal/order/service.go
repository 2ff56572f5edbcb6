package order

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/stocktrack/internal/event"
)

// txTimeout bounds every order transaction; expiry rolls back.
const txTimeout = 10 * time.Second

// Store is the transactional persistence boundary for orders.
type Store interface {
	// InTx runs fn inside one transaction. A non-nil error from fn (or
	// from the store itself) must discard every write made through the Tx.
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx exposes the statements available inside an order transaction.
type Tx interface {
	InsertCustomer(ctx context.Context, c Customer) (int64, error)
	InsertOrder(ctx context.Context, o Order) (int64, error)
	InsertItem(ctx context.Context, orderID int64, it Item) error
	// DecrementStock performs the guarded decrement and reports affected rows.
	// Zero rows means the product is missing or stock would go negative.
	DecrementStock(ctx context.Context, productID int64, qty int) (int64, error)
	// OrderForUpdate loads and locks the order row for a status transition.
	OrderForUpdate(ctx context.Context, orderID int64) (*Ref, error)
	SetStatus(ctx context.Context, orderID int64, s Status) error
	InsertHistory(ctx context.Context, h HistoryEntry) error
}

// Ref is the slice of an order a status transition needs.
type Ref struct {
	Number        string
	Status        Status
	CustomerEmail string
}

// Publisher publishes domain events after a transaction commits.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Receipt is returned to the caller of Place.
type Receipt struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// PlaceInput is the proposed order. All customer fields are required.
type PlaceInput struct {
	Customer        CustomerInput
	Items           []ItemInput
	PaymentMethod   string
	ShippingCompany string
	Notes           string
}

type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

type ItemInput struct {
	ProductID   int64
	ProductName string // display name for receipts and emails
	Quantity    int
	Price       decimal.Decimal
}

// Service owns the order placement and status transition transactions.
type Service struct {
	store     Store
	publisher Publisher // nil disables event publishing
}

func NewService(store Store, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// Place atomically materializes an order: customer row, order header,
// line items, and a guarded stock decrement per item. Any failure rolls
// the whole transaction back; no partial state survives.
func (s *Service) Place(ctx context.Context, in PlaceInput) (*Receipt, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, it := range in.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	number := newOrderNumber(time.Now())

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	var receipt Receipt
	err := s.store.InTx(ctx, func(tx Tx) error {
		customerID, err := tx.InsertCustomer(ctx, Customer{
			FirstName: in.Customer.FirstName,
			LastName:  in.Customer.LastName,
			Email:     in.Customer.Email,
			Phone:     in.Customer.Phone,
			Address:   in.Customer.Address,
		})
		if err != nil {
			return err
		}

		orderID, err := tx.InsertOrder(ctx, Order{
			Number:          number,
			Customer:        Customer{ID: customerID},
			Total:           total,
			Status:          StatusPending,
			PaymentMethod:   in.PaymentMethod,
			ShippingCompany: in.ShippingCompany,
			Notes:           in.Notes,
		})
		if err != nil {
			return err
		}

		for _, it := range in.Items {
			if err := tx.InsertItem(ctx, orderID, Item{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.Price,
			}); err != nil {
				return err
			}
			affected, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, it.ProductID)
			}
		}

		receipt = Receipt{OrderID: orderID, OrderNumber: number}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishPlaced(ctx, in, receipt, total)
	return &receipt, nil
}

// UpdateStatus moves an order to a new status and appends exactly one
// audit row, atomically. Transitions outside the allowed table are rejected.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, newStatus, note string) error {
	target, err := ParseStatus(newStatus)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	var ref *Ref
	err = s.store.InTx(ctx, func(tx Tx) error {
		ref, err = tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !ref.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ref.Status, target)
		}
		if err := tx.SetStatus(ctx, orderID, target); err != nil {
			return err
		}
		return tx.InsertHistory(ctx, HistoryEntry{
			OrderID: orderID,
			Status:  target,
			Note:    note,
		})
	})
	if err != nil {
		return err
	}

	s.publishStatusChanged(ctx, orderID, ref, target, note)
	return nil
}

func (s *Service) publishPlaced(ctx context.Context, in PlaceInput, r Receipt, total decimal.Decimal) {
	if s.publisher == nil {
		return
	}
	items := make([]event.PlacedItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = event.PlacedItem{ProductID: it.ProductID, Name: it.ProductName, Quantity: it.Quantity, Price: it.Price}
	}
	env, err := event.NewEnvelope(event.TypeOrderPlaced, event.OrderPlaced{
		OrderID:       r.OrderID,
		OrderNumber:   r.OrderNumber,
		CustomerName:  in.Customer.FirstName + " " + in.Customer.LastName,
		CustomerEmail: in.Customer.Email,
		Total:         total,
		Items:         items,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, r.OrderNumber, env)
	}
	if err != nil {
		// Publishing is best-effort; the order is already committed.
		log.Printf("[Order] Failed to publish %s for order %d: %v", event.TypeOrderPlaced, r.OrderID, err)
	}
}

func (s *Service) publishStatusChanged(ctx context.Context, orderID int64, ref *Ref, status Status, note string) {
	if s.publisher == nil {
		return
	}
	env, err := event.NewEnvelope(event.TypeOrderStatusChanged, event.OrderStatusChanged{
		OrderID:       orderID,
		OrderNumber:   ref.Number,
		Status:        string(status),
		Note:          note,
		CustomerEmail: ref.CustomerEmail,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, ref.Number, env)
	}
	if err != nil {
		log.Printf("[Order] Failed to publish %s for order %d: %v", event.TypeOrderStatusChanged, orderID, err)
	}
}

func (in PlaceInput) validate() error {
	required := []struct{ name, value string }{
		{"first name", in.Customer.FirstName},
		{"last name", in.Customer.LastName},
		{"email", in.Customer.Email},
		{"phone", in.Customer.Phone},
		{"address", in.Customer.Address},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: customer %s is required", ErrValidation, f.name)
		}
	}
	if !strings.Contains(in.Customer.Email, "@") {
		return fmt.Errorf("%w: customer email is malformed", ErrValidation)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: order must have at least one item", ErrValidation)
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			return fmt.Errorf("%w: item %d has no product", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrValidation, i)
		}
		if it.Price.IsNegative() {
			return fmt.Errorf("%w: item %d price must not be negative", ErrValidation, i)
		}
	}
	return nil
}

// newOrderNumber derives the display number from the current time:
// "ORD" plus the last 8 digits of the millisecond timestamp. The order
// id column is the true unique key; collisions here only affect display.
func newOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD%08d", t.UnixMilli()%100_000_000)
}
