package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/example/stocktrack/internal/order"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, isForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isForeignKeyViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23503"})))
	assert.False(t, isForeignKeyViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isForeignKeyViolation(nil))
}

func TestMapItemInsertErr(t *testing.T) {
	// An unknown product fails the order_items FK check before the
	// guarded decrement can report zero rows; it must still read as a
	// stock conflict, not as a generic store failure.
	fkErr := &pq.Error{Code: "23503", Constraint: "order_items_product_id_fkey"}
	err := mapItemInsertErr(fkErr, 42)
	assert.ErrorIs(t, err, order.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "product 42")

	// Anything else passes through untouched.
	plain := errors.New("deadlock detected")
	assert.Equal(t, plain, mapItemInsertErr(plain, 42))
	assert.NoError(t, mapItemInsertErr(nil, 42))
}
