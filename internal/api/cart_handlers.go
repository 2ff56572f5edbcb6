package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/stocktrack/internal/api/middleware"
	"github.com/example/stocktrack/internal/model"
	"github.com/example/stocktrack/internal/store"
)

// Carts is the cart store surface the API consumes.
type Carts interface {
	Items(ctx context.Context, userID int64) ([]model.CartItem, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

// CartHandlers exposes the signed-in user's shopping cart.
type CartHandlers struct {
	carts Carts
}

func NewCartHandlers(carts Carts) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// GetCart handles GET /cart
func (h *CartHandlers) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	items, err := h.carts.Items(r.Context(), userID)
	if err != nil {
		log.Printf("[API] Error fetching cart for user %d: %v", userID, err)
		respondJSONError(w, "Failed to fetch cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// AddCartItem handles POST /cart/items
func (h *CartHandlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID <= 0 || req.Quantity <= 0 {
		respondJSONError(w, "Product id and a positive quantity are required", http.StatusBadRequest)
		return
	}

	if err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondJSONError(w, "Product not found", http.StatusNotFound)
			return
		}
		log.Printf("[API] Error adding to cart for user %d: %v", userID, err)
		respondJSONError(w, "Failed to add to cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "Item added to cart"})
}

// UpdateCartItem handles PUT /cart/items/{id}
func (h *CartHandlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	itemID, err := extractID(r.URL.Path, "/cart/items/")
	if err != nil {
		respondJSONError(w, "Invalid cart item id", http.StatusBadRequest)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		respondJSONError(w, "A positive quantity is required", http.StatusBadRequest)
		return
	}

	if err := h.carts.UpdateItem(r.Context(), userID, itemID, req.Quantity); err != nil {
		if errors.Is(err, store.ErrCartItemNotFound) {
			respondJSONError(w, "Cart item not found", http.StatusNotFound)
			return
		}
		log.Printf("[API] Error updating cart item %d for user %d: %v", itemID, userID, err)
		respondJSONError(w, "Failed to update cart item", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cart item updated"})
}

// RemoveCartItem handles DELETE /cart/items/{id}
func (h *CartHandlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	itemID, err := extractID(r.URL.Path, "/cart/items/")
	if err != nil {
		respondJSONError(w, "Invalid cart item id", http.StatusBadRequest)
		return
	}

	if err := h.carts.RemoveItem(r.Context(), userID, itemID); err != nil {
		if errors.Is(err, store.ErrCartItemNotFound) {
			respondJSONError(w, "Cart item not found", http.StatusNotFound)
			return
		}
		log.Printf("[API] Error removing cart item %d for user %d: %v", itemID, userID, err)
		respondJSONError(w, "Failed to remove cart item", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cart item removed"})
}

// ClearCart handles DELETE /cart
func (h *CartHandlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		log.Printf("[API] Error clearing cart for user %d: %v", userID, err)
		respondJSONError(w, "Failed to clear cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}
