package store

import (
	"context"
	"database/sql"

	"github.com/example/stocktrack/internal/model"
)

// DashboardStore aggregates the admin dashboard numbers in one query
// round trip per figure.
type DashboardStore struct {
	db *sql.DB
}

func NewDashboardStore(db *sql.DB) *DashboardStore {
	return &DashboardStore{db: db}
}

// Stats computes catalog totals. Products at or below lowStockThreshold
// count as low stock.
func (s *DashboardStore) Stats(ctx context.Context, lowStockThreshold int) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM products WHERE stock <= $1),
			(SELECT COALESCE(SUM(stock * price), 0) FROM products)
	`, lowStockThreshold).Scan(
		&stats.TotalProducts,
		&stats.TotalCategories,
		&stats.LowStock,
		&stats.TotalValue,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
