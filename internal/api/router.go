package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/stocktrack/internal/api/middleware"
	"github.com/example/stocktrack/internal/auth"
)

type RouterConfig struct {
	Handlers      *Handlers
	OrderHandlers *OrderHandlers
	AuthHandlers  *AuthHandlers
	CartHandlers  *CartHandlers
	UserHandlers  *UserHandlers
	JWTService    *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.AuthMiddleware(cfg.JWTService)
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole("admin")(h))
	}

	// Auth
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Register(w, r)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Login(w, r)
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Logout(w, r)
	})

	// Products
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.ListProducts(w, r)
		case http.MethodPost:
			admin(cfg.Handlers.CreateProduct).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/price-history") && r.Method == http.MethodGet:
			authed(http.HandlerFunc(cfg.Handlers.GetProductPriceHistory)).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			cfg.Handlers.GetProduct(w, r)
		case r.Method == http.MethodPut:
			admin(cfg.Handlers.UpdateProduct).ServeHTTP(w, r)
		case r.Method == http.MethodDelete:
			admin(cfg.Handlers.DeleteProduct).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Categories
	mux.HandleFunc("/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.ListCategories(w, r)
		case http.MethodPost:
			admin(cfg.Handlers.CreateCategory).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/categories/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			admin(cfg.Handlers.UpdateCategory).ServeHTTP(w, r)
		case http.MethodDelete:
			admin(cfg.Handlers.DeleteCategory).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Cart
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			authed(http.HandlerFunc(cfg.CartHandlers.GetCart)).ServeHTTP(w, r)
		case http.MethodDelete:
			authed(http.HandlerFunc(cfg.CartHandlers.ClearCart)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/cart/items", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authed(http.HandlerFunc(cfg.CartHandlers.AddCartItem)).ServeHTTP(w, r)
	})
	mux.HandleFunc("/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			authed(http.HandlerFunc(cfg.CartHandlers.UpdateCartItem)).ServeHTTP(w, r)
		case http.MethodDelete:
			authed(http.HandlerFunc(cfg.CartHandlers.RemoveCartItem)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Users (admin)
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		admin(cfg.UserHandlers.ListUsers).ServeHTTP(w, r)
	})
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			admin(cfg.UserHandlers.GetUser).ServeHTTP(w, r)
		case http.MethodPut:
			admin(cfg.UserHandlers.UpdateUser).ServeHTTP(w, r)
		case http.MethodDelete:
			admin(cfg.UserHandlers.DeleteUser).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Orders
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			authed(http.HandlerFunc(cfg.OrderHandlers.PlaceOrder)).ServeHTTP(w, r)
		case http.MethodGet:
			admin(cfg.OrderHandlers.ListOrders).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPatch:
			admin(cfg.OrderHandlers.UpdateOrderStatus).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/history") && r.Method == http.MethodGet:
			admin(cfg.OrderHandlers.GetOrderHistory).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			authed(http.HandlerFunc(cfg.OrderHandlers.GetOrder)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Dashboard
	mux.HandleFunc("/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authed(http.HandlerFunc(cfg.Handlers.DashboardStats)).ServeHTTP(w, r)
	})

	// Operational endpoints
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return middleware.Metrics(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
