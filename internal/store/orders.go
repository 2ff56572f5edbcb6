package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/example/stocktrack/internal/order"
)

// OrderStore is the PostgreSQL implementation of order.Store plus the
// read-side queries the API needs.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// InTx runs fn inside one READ COMMITTED transaction. The guarded
// decrement in orderTx is what keeps stock non-negative at this level.
func (s *OrderStore) InTx(ctx context.Context, fn func(order.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	if err := fn(&orderTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Printf("[Store] Rollback failed: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// orderTx implements order.Tx against a live *sql.Tx.
type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) InsertCustomer(ctx context.Context, c order.Customer) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO customers (first_name, last_name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.FirstName, c.LastName, c.Email, c.Phone, c.Address).Scan(&id)
	return id, err
}

func (t *orderTx) InsertOrder(ctx context.Context, o order.Order) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO orders (order_number, customer_id, total, status, payment_method, shipping_company, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, o.Number, o.Customer.ID, o.Total, o.Status, o.PaymentMethod, o.ShippingCompany, o.Notes).Scan(&id)
	return id, err
}

func (t *orderTx) InsertItem(ctx context.Context, orderID int64, it order.Item) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
	`, orderID, it.ProductID, it.Quantity, it.Price)
	return mapItemInsertErr(err, it.ProductID)
}

// mapItemInsertErr classifies a line-item insert failure. The item row
// is inserted before the guarded decrement runs, so an unknown product
// surfaces here as a foreign key violation rather than as zero affected
// rows; both mean the same thing to the caller.
func mapItemInsertErr(err error, productID int64) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: product %d", order.ErrInsufficientStock, productID)
	}
	return err
}

func (t *orderTx) DecrementStock(ctx context.Context, productID int64, qty int) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND stock >= $1
	`, qty, productID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *orderTx) OrderForUpdate(ctx context.Context, orderID int64) (*order.Ref, error) {
	var ref order.Ref
	err := t.tx.QueryRowContext(ctx, `
		SELECT o.order_number, o.status, c.email
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1
		FOR UPDATE OF o
	`, orderID).Scan(&ref.Number, &ref.Status, &ref.CustomerEmail)
	if err == sql.ErrNoRows {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (t *orderTx) SetStatus(ctx context.Context, orderID int64, s order.Status) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, s, orderID)
	return err
}

func (t *orderTx) InsertHistory(ctx context.Context, h order.HistoryEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, note)
		VALUES ($1, $2, $3)
	`, h.OrderID, h.Status, h.Note)
	return err
}

// Get returns an order with its customer and line items, or
// order.ErrOrderNotFound.
func (s *OrderStore) Get(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT o.id, o.order_number, o.total, o.status, o.payment_method,
		       o.shipping_company, o.notes, o.created_at,
		       c.id, c.first_name, c.last_name, c.email, c.phone, c.address
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1
	`, id).Scan(
		&o.ID, &o.Number, &o.Total, &o.Status, &o.PaymentMethod,
		&o.ShippingCompany, &o.Notes, &o.CreatedAt,
		&o.Customer.ID, &o.Customer.FirstName, &o.Customer.LastName,
		&o.Customer.Email, &o.Customer.Phone, &o.Customer.Address,
	)
	if err == sql.ErrNoRows {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

// List returns filtered order summaries and the total match count.
func (s *OrderStore) List(ctx context.Context, f order.ListFilter) ([]order.Summary, int, error) {
	where := []string{"1=1"}
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(o.order_number ILIKE $%d OR (c.first_name || ' ' || c.last_name) ILIKE $%d)", n, n))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		where = append(where, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM orders o JOIN customers c ON c.id = o.customer_id WHERE ` + cond
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol := "o.created_at"
	if f.SortBy == "total" {
		sortCol = "o.total"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT o.id, o.order_number, o.total, o.status, o.created_at,
		       c.id, c.first_name, c.last_name, c.email, c.phone, c.address
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, cond, sortCol, dir, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	summaries := make([]order.Summary, 0)
	for rows.Next() {
		var sm order.Summary
		if err := rows.Scan(
			&sm.ID, &sm.Number, &sm.Total, &sm.Status, &sm.CreatedAt,
			&sm.Customer.ID, &sm.Customer.FirstName, &sm.Customer.LastName,
			&sm.Customer.Email, &sm.Customer.Phone, &sm.Customer.Address,
		); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, sm)
	}
	return summaries, total, rows.Err()
}

// History returns the append-only status audit trail, oldest first.
func (s *OrderStore) History(ctx context.Context, orderID int64) ([]order.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, status, note, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]order.HistoryEntry, 0)
	for rows.Next() {
		var e order.HistoryEntry
		if err := rows.Scan(&e.OrderID, &e.Status, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
