package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/stocktrack/internal/email"
	"github.com/example/stocktrack/internal/event"
)

// Handler processes order events and sends customer emails.
type Handler struct {
	emailService *email.Service
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service) *Handler {
	return &Handler{emailService: emailSvc}
}

// HandleEvent processes one event envelope from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env event.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch env.Type {
	case event.TypeOrderPlaced:
		return h.handleOrderPlaced(env)
	case event.TypeOrderStatusChanged:
		return h.handleStatusChanged(env)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(env event.Envelope) error {
	var e event.OrderPlaced
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal %s event: %v", env.Type, err)
		return err
	}

	log.Printf("[Notifier] Order %s placed, notifying %s", e.OrderNumber, e.CustomerEmail)

	items := make([]email.OrderItem, len(e.Items))
	for i, it := range e.Items {
		items[i] = email.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}

	if err := h.emailService.SendOrderConfirmation(e.CustomerEmail, e.OrderNumber, e.Total, items); err != nil {
		log.Printf("[Notifier] Failed to send confirmation for order %s: %v", e.OrderNumber, err)
		return err
	}
	return nil
}

func (h *Handler) handleStatusChanged(env event.Envelope) error {
	var e event.OrderStatusChanged
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal %s event: %v", env.Type, err)
		return err
	}

	log.Printf("[Notifier] Order %s status changed to %s", e.OrderNumber, e.Status)

	if e.CustomerEmail == "" {
		return nil
	}
	if err := h.emailService.SendStatusUpdate(e.CustomerEmail, e.OrderNumber, e.Status, e.Note); err != nil {
		log.Printf("[Notifier] Failed to send status update for order %s: %v", e.OrderNumber, err)
		return err
	}
	return nil
}
