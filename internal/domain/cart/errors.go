package cart

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("cart: not found")
	ErrInvalidState      = errors.New("cart: invalid state")
	ErrValidation        = errors.New("cart: validation failed")
	ErrInsufficientStock = errors.New("cart: insufficient stock")
	ErrNoChange          = errors.New("cart: no changes")

	ErrProductNotInCart = fmt.Errorf("%w: product not in cart", ErrNotFound)
	ErrNoValidProducts  = fmt.Errorf("%w: no valid product ids", ErrNoChange)
)

// StateError reports an operation that is illegal for the cart's current status.
type StateError struct {
	CartID string
	Status Status
	Op     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cart %s: cannot %s while %s", e.CartID, e.Op, e.Status)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// ValidationError names the cart field that blocks checkout.
type ValidationError struct {
	CartID string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cart %s: %s %s", e.CartID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError names the product whose unit could not be reserved.
type InsufficientStockError struct {
	CartID    string
	ProductID int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("cart %s: insufficient stock for product %d", e.CartID, e.ProductID)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
