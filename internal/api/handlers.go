package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/stocktrack/internal/model"
	"github.com/example/stocktrack/internal/store"
)

// Catalog is the product store surface the API consumes.
type Catalog interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id int64) (*model.Product, error)
	PriceHistory(ctx context.Context, id int64) ([]model.PricePoint, error)
	Create(ctx context.Context, p model.Product) (int64, error)
	Update(ctx context.Context, id int64, u store.ProductUpdate) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
}

// Categories is the category store surface the API consumes.
type Categories interface {
	List(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, id int64) (*model.Category, error)
	Create(ctx context.Context, c model.Category) (int64, error)
	Update(ctx context.Context, id int64, name, description string) error
	Delete(ctx context.Context, id int64) error
}

// Dashboard aggregates admin dashboard numbers.
type Dashboard interface {
	Stats(ctx context.Context, lowStockThreshold int) (*model.DashboardStats, error)
}

type Handlers struct {
	products          Catalog
	categories        Categories
	dashboard         Dashboard
	lowStockThreshold int
}

func NewHandlers(products Catalog, categories Categories, dashboard Dashboard, lowStockThreshold int) *Handlers {
	return &Handlers{
		products:          products,
		categories:        categories,
		dashboard:         dashboard,
		lowStockThreshold: lowStockThreshold,
	}
}

// Product Handlers

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		log.Printf("[API] Error listing products: %v", err)
		respondJSONError(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/products/")
	if err != nil {
		respondJSONError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if errors.Is(err, store.ErrProductNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Error getting product %d: %v", id, err)
		respondJSONError(w, "Failed to fetch product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) GetProductPriceHistory(w http.ResponseWriter, r *http.Request) {
	idPart := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/products/"), "/price-history")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		respondJSONError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	history, err := h.products.PriceHistory(r.Context(), id)
	if err != nil {
		log.Printf("[API] Error getting price history for product %d: %v", id, err)
		respondJSONError(w, "Failed to fetch price history", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		respondJSONError(w, "Product name is required", http.StatusBadRequest)
		return
	}
	if p.Price.IsNegative() || p.Stock < 0 {
		respondJSONError(w, "Price and stock must not be negative", http.StatusBadRequest)
		return
	}

	id, err := h.products.Create(r.Context(), p)
	if err != nil {
		log.Printf("[API] Error creating product: %v", err)
		respondJSONError(w, "Failed to create product", http.StatusInternalServerError)
		return
	}
	p.ID = id
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/products/")
	if err != nil {
		respondJSONError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		Stock       *int             `json:"stock"`
		CategoryID  *int64           `json:"category_id"`
		ImageURL    *string          `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	u := store.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	}

	updated, err := h.products.Update(r.Context(), id, u)
	if errors.Is(err, store.ErrProductNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Error updating product %d: %v", id, err)
		respondJSONError(w, "Failed to update product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/products/")
	if err != nil {
		respondJSONError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondJSONError(w, "Product not found", http.StatusNotFound)
			return
		}
		log.Printf("[API] Error deleting product %d: %v", id, err)
		respondJSONError(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// Category Handlers

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		log.Printf("[API] Error listing categories: %v", err)
		respondJSONError(w, "Failed to fetch categories", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c model.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(c.Name) == "" {
		respondJSONError(w, "Category name is required", http.StatusBadRequest)
		return
	}

	id, err := h.categories.Create(r.Context(), c)
	if err != nil {
		log.Printf("[API] Error creating category: %v", err)
		respondJSONError(w, "Failed to create category", http.StatusInternalServerError)
		return
	}
	c.ID = id
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/categories/")
	if err != nil {
		respondJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}

	var c model.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.categories.Update(r.Context(), id, c.Name, c.Description); err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		log.Printf("[API] Error updating category %d: %v", id, err)
		respondJSONError(w, "Failed to update category", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category updated"})
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/categories/")
	if err != nil {
		respondJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		log.Printf("[API] Error deleting category %d: %v", id, err)
		respondJSONError(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}

// Dashboard Handlers

func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context(), h.lowStockThreshold)
	if err != nil {
		log.Printf("[API] Error computing dashboard stats: %v", err)
		respondJSONError(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractID(path, prefix string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(path, prefix), 10, 64)
}
