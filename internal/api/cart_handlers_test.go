package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stocktrack/internal/api/middleware"
	"github.com/example/stocktrack/internal/auth"
	"github.com/example/stocktrack/internal/model"
	"github.com/example/stocktrack/internal/store"
)

type fakeCarts struct {
	items    []model.CartItem
	itemsErr error
	addErr   error
	updErr   error
	remErr   error

	gotUserID    int64
	gotProductID int64
	gotItemID    int64
	gotQuantity  int
	cleared      bool
}

func (f *fakeCarts) Items(ctx context.Context, userID int64) ([]model.CartItem, error) {
	f.gotUserID = userID
	return f.items, f.itemsErr
}

func (f *fakeCarts) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	f.gotUserID, f.gotProductID, f.gotQuantity = userID, productID, quantity
	return f.addErr
}

func (f *fakeCarts) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) error {
	f.gotUserID, f.gotItemID, f.gotQuantity = userID, itemID, quantity
	return f.updErr
}

func (f *fakeCarts) RemoveItem(ctx context.Context, userID, itemID int64) error {
	f.gotUserID, f.gotItemID = userID, itemID
	return f.remErr
}

func (f *fakeCarts) Clear(ctx context.Context, userID int64) error {
	f.gotUserID = userID
	f.cleared = true
	return nil
}

func asUser(req *http.Request, userID int64, role string) *http.Request {
	claims := &auth.Claims{UserID: userID, Username: "tester", Role: role}
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
	return req.WithContext(ctx)
}

func TestGetCart(t *testing.T) {
	carts := &fakeCarts{items: []model.CartItem{
		{ID: 1, ProductID: 3, Name: "Widget", Price: decimal.NewFromInt(10), Quantity: 2},
	}}
	h := NewCartHandlers(carts)

	req := asUser(httptest.NewRequest(http.MethodGet, "/cart", nil), 7, "user")
	w := httptest.NewRecorder()
	h.GetCart(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), carts.gotUserID)

	var got []model.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Widget", got[0].Name)
}

func TestAddCartItem(t *testing.T) {
	carts := &fakeCarts{}
	h := NewCartHandlers(carts)

	body := `{"product_id": 3, "quantity": 2}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body)), 7, "user")
	w := httptest.NewRecorder()
	h.AddCartItem(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(7), carts.gotUserID)
	assert.Equal(t, int64(3), carts.gotProductID)
	assert.Equal(t, 2, carts.gotQuantity)
}

func TestAddCartItem_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{not json`},
		{"missing product", `{"quantity": 2}`},
		{"zero quantity", `{"product_id": 3, "quantity": 0}`},
		{"negative quantity", `{"product_id": 3, "quantity": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCartHandlers(&fakeCarts{})

			req := asUser(httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(tt.body)), 7, "user")
			w := httptest.NewRecorder()
			h.AddCartItem(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	h := NewCartHandlers(&fakeCarts{addErr: store.ErrProductNotFound})

	body := `{"product_id": 999, "quantity": 1}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body)), 7, "user")
	w := httptest.NewRecorder()
	h.AddCartItem(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateCartItem(t *testing.T) {
	carts := &fakeCarts{}
	h := NewCartHandlers(carts)

	body := `{"quantity": 5}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/cart/items/11", strings.NewReader(body)), 7, "user")
	w := httptest.NewRecorder()
	h.UpdateCartItem(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(11), carts.gotItemID)
	assert.Equal(t, 5, carts.gotQuantity)
}

func TestUpdateCartItem_NotFound(t *testing.T) {
	h := NewCartHandlers(&fakeCarts{updErr: store.ErrCartItemNotFound})

	body := `{"quantity": 5}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/cart/items/11", strings.NewReader(body)), 7, "user")
	w := httptest.NewRecorder()
	h.UpdateCartItem(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveCartItem(t *testing.T) {
	carts := &fakeCarts{}
	h := NewCartHandlers(carts)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/cart/items/11", nil), 7, "user")
	w := httptest.NewRecorder()
	h.RemoveCartItem(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(11), carts.gotItemID)
	assert.Equal(t, int64(7), carts.gotUserID)
}

func TestClearCart(t *testing.T) {
	carts := &fakeCarts{}
	h := NewCartHandlers(carts)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/cart", nil), 7, "user")
	w := httptest.NewRecorder()
	h.ClearCart(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, carts.cleared)
}
