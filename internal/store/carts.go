package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/stocktrack/internal/model"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartStore persists per-user shopping carts. Each user owns at most
// one cart; the cart row is created lazily on first access.
type CartStore struct {
	db *sql.DB
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

func (s *CartStore) cartID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id
	`, userID).Scan(&id)
	return id, err
}

// Items returns the cart content joined with the catalog.
func (s *CartStore) Items(ctx context.Context, userID int64) ([]model.CartItem, error) {
	cartID, err := s.cartID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, p.name, p.price, p.image_url, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.CartItem, 0)
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Price, &it.ImageURL, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddItem adds quantity of a product to the user's cart, merging with
// an existing line for the same product.
func (s *CartStore) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	cartID, err := s.cartID(ctx, userID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, cartID, productID, quantity)
	if isForeignKeyViolation(err) {
		return ErrProductNotFound
	}
	return err
}

// UpdateItem sets the quantity of a cart line. The line must belong to
// the user's cart.
func (s *CartStore) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items ci SET quantity = $1
		FROM carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $3
	`, quantity, itemID, userID)
	if err != nil {
		return err
	}
	return cartItemAffected(res)
}

// RemoveItem deletes a cart line owned by the user.
func (s *CartStore) RemoveItem(ctx context.Context, userID, itemID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2
	`, itemID, userID)
	if err != nil {
		return err
	}
	return cartItemAffected(res)
}

// Clear empties the user's cart, typically after an order is placed.
func (s *CartStore) Clear(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
	`, userID)
	return err
}

func cartItemAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}
