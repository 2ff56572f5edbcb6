package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/stocktrack/internal/metrics"
	"github.com/example/stocktrack/internal/order"
)

// OrderPlacer is the transactional order core.
type OrderPlacer interface {
	Place(ctx context.Context, in order.PlaceInput) (*order.Receipt, error)
	UpdateStatus(ctx context.Context, orderID int64, newStatus, note string) error
}

// OrderReader serves order read-back queries.
type OrderReader interface {
	Get(ctx context.Context, id int64) (*order.Order, error)
	List(ctx context.Context, f order.ListFilter) ([]order.Summary, int, error)
	History(ctx context.Context, orderID int64) ([]order.HistoryEntry, error)
}

// OrderHandlers exposes the order core over HTTP.
type OrderHandlers struct {
	placer OrderPlacer
	reader OrderReader
}

func NewOrderHandlers(placer OrderPlacer, reader OrderReader) *OrderHandlers {
	return &OrderHandlers{placer: placer, reader: reader}
}

type placeOrderRequest struct {
	Customer struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
	} `json:"customer"`
	Items []struct {
		ProductID int64           `json:"product_id"`
		Name      string          `json:"name"`
		Quantity  int             `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
	} `json:"items"`
	PaymentMethod   string `json:"payment_method"`
	ShippingCompany string `json:"shipping_company"`
	Notes           string `json:"notes"`
}

// PlaceOrder handles POST /orders
func (h *OrderHandlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	in := order.PlaceInput{
		Customer: order.CustomerInput{
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
			Address:   req.Customer.Address,
		},
		PaymentMethod:   req.PaymentMethod,
		ShippingCompany: req.ShippingCompany,
		Notes:           req.Notes,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, order.ItemInput{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}

	receipt, err := h.placer.Place(r.Context(), in)
	if err != nil {
		respondOrderError(w, err)
		return
	}

	metrics.OrdersTotal.WithLabelValues(string(order.StatusPending)).Inc()
	total := decimal.Zero
	for _, it := range in.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	metrics.OrderValue.Observe(total.InexactFloat64())

	respondJSON(w, http.StatusCreated, receipt)
}

// GetOrder handles GET /orders/{id}
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/orders/")
	if err != nil {
		respondJSONError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.reader.Get(r.Context(), id)
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// ListOrders handles GET /orders with search/status/dateRange/sort/pagination.
func (h *OrderHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 10
	}

	f := order.ListFilter{
		Search: q.Get("search"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if s := q.Get("status"); s != "" {
		status, err := order.ParseStatus(s)
		if err != nil {
			respondJSONError(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		f.Status = status
	}

	now := time.Now()
	switch q.Get("dateRange") {
	case "today":
		f.Since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		f.Since = now.AddDate(0, 0, -7)
	case "month":
		f.Since = now.AddDate(0, -1, 0)
	case "year":
		f.Since = now.AddDate(-1, 0, 0)
	}

	switch q.Get("sort") {
	case "dateAsc":
		f.SortBy, f.SortDesc = "date", false
	case "totalDesc":
		f.SortBy, f.SortDesc = "total", true
	case "totalAsc":
		f.SortBy, f.SortDesc = "total", false
	default:
		f.SortBy, f.SortDesc = "date", true
	}

	orders, total, err := h.reader.List(r.Context(), f)
	if err != nil {
		log.Printf("[API] Error listing orders: %v", err)
		respondJSONError(w, "Failed to fetch orders", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit
	respondJSON(w, http.StatusOK, map[string]any{
		"orders":       orders,
		"current_page": page,
		"total_pages":  totalPages,
		"total":        total,
	})
}

// GetOrderHistory handles GET /orders/{id}/history
func (h *OrderHandlers) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	idPart := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/orders/"), "/history")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		respondJSONError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	history, err := h.reader.History(r.Context(), id)
	if err != nil {
		log.Printf("[API] Error fetching history for order %d: %v", id, err)
		respondJSONError(w, "Failed to fetch order history", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// UpdateOrderStatus handles PATCH /orders/{id}/status
func (h *OrderHandlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	idPart := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/orders/"), "/status")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		respondJSONError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.placer.UpdateStatus(r.Context(), id, req.Status, req.Note); err != nil {
		respondOrderError(w, err)
		return
	}

	metrics.OrdersTotal.WithLabelValues(req.Status).Inc()
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order status updated"})
}

// respondOrderError maps core errors onto HTTP statuses. Persistence
// failures surface as a generic message; the cause is only logged.
func respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrValidation), errors.Is(err, order.ErrInvalidStatus):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, order.ErrOrderNotFound):
		respondJSONError(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, order.ErrInsufficientStock):
		metrics.StockRejections.Inc()
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrInvalidTransition):
		respondJSONError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[API] Order operation failed: %v", err)
		respondJSONError(w, "Order could not be processed", http.StatusInternalServerError)
	}
}
