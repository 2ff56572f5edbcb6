package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// Envelope is the wire format for all published events.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope wraps a payload in an Envelope with a fresh event id
func NewEnvelope(eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        uuid.New().String(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}, nil
}

// PlacedItem mirrors an order line in the OrderPlaced payload
type PlacedItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderPlaced is published after an order transaction commits.
// It carries the customer email so consumers need no store lookup.
type OrderPlaced struct {
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Total         decimal.Decimal `json:"total"`
	Items         []PlacedItem    `json:"items"`
}

// OrderStatusChanged is published after a status transition commits.
type OrderStatusChanged struct {
	OrderID       int64  `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	Note          string `json:"note,omitempty"`
	CustomerEmail string `json:"customer_email"`
}
