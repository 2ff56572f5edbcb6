package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/stocktrack/internal/model"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStore handles catalog reads and admin mutations.
type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, name, description, price, stock, COALESCE(category_id, 0), image_url, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.CategoryID, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) List(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *ProductStore) Get(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	return p, err
}

// PriceHistory returns the recorded price points, newest first.
func (s *ProductStore) PriceHistory(ctx context.Context, id int64) ([]model.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT price, created_at FROM product_price_history
		WHERE product_id = $1 ORDER BY created_at DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]model.PricePoint, 0)
	for rows.Next() {
		var pp model.PricePoint
		if err := rows.Scan(&pp.Price, &pp.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, pp)
	}
	return points, rows.Err()
}

// Create inserts a product and seeds its price history.
func (s *ProductStore) Create(ctx context.Context, p model.Product) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var categoryID any
	if p.CategoryID != 0 {
		categoryID = p.CategoryID
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (name, description, price, stock, category_id, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.Name, p.Description, p.Price, p.Stock, categoryID, p.ImageURL).Scan(&id)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO product_price_history (product_id, price) VALUES ($1, $2)`, id, p.Price)
	if err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

// ProductUpdate carries the fields of a partial update; nil means keep.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *int64
	ImageURL    *string
}

// Update applies a partial update. A price change appends a price
// history row in the same transaction.
func (s *ProductStore) Update(ctx context.Context, id int64, u ProductUpdate) (*model.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := scanProduct(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	sets := []string{"updated_at = now()"}
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.Stock != nil {
		add("stock", *u.Stock)
	}
	if u.CategoryID != nil {
		add("category_id", *u.CategoryID)
	}
	if u.ImageURL != nil {
		add("image_url", *u.ImageURL)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	if u.Price != nil && !u.Price.Equal(current.Price) {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO product_price_history (product_id, price) VALUES ($1, $2)`, id, *u.Price)
		if err != nil {
			return nil, err
		}
	}

	updated, err := scanProduct(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return updated, tx.Commit()
}

func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
