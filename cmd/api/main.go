package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/stocktrack/internal/api"
	"github.com/example/stocktrack/internal/auth"
	"github.com/example/stocktrack/internal/config"
	"github.com/example/stocktrack/internal/infrastructure/kafka"
	"github.com/example/stocktrack/internal/order"
	"github.com/example/stocktrack/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("[API] JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[API] JWT_SECRET must be at least 32 characters long")
	}

	log.Println("[API] ========================================")
	log.Println("[API] StockTrack - Inventory & Orders API")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Topic: %s", cfg.KafkaTopic)

	db, err := store.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("[API] Connected to PostgreSQL")

	if err := store.Migrate(db); err != nil {
		log.Fatalf("[API] Failed to run migrations: %v", err)
	}
	log.Println("[API] Migrations applied")

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	// Stores
	orderStore := store.NewOrderStore(db)
	productStore := store.NewProductStore(db)
	categoryStore := store.NewCategoryStore(db)
	userStore := store.NewUserStore(db)
	cartStore := store.NewCartStore(db)
	dashboardStore := store.NewDashboardStore(db)

	// Services
	orderSvc := order.NewService(orderStore, producer)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenExpiry)

	// HTTP layer
	router := api.NewRouter(api.RouterConfig{
		Handlers:      api.NewHandlers(productStore, categoryStore, dashboardStore, cfg.LowStockThreshold),
		OrderHandlers: api.NewOrderHandlers(orderSvc, orderStore),
		AuthHandlers:  api.NewAuthHandlers(userStore, jwtService),
		CartHandlers:  api.NewCartHandlers(cartStore),
		UserHandlers:  api.NewUserHandlers(userStore),
		JWTService:    jwtService,
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
