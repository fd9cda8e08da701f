package catalog

import "context"

// Catalog is the read-mostly product collection with a per-product stock counter.
//
// TryDeplete and Increase are linearizable per product: concurrent callers
// never drive a quantity below zero. No cross-product atomicity is provided.
type Catalog interface {
	IsValid(ctx context.Context, productID int) bool
	Get(ctx context.Context, productID int) (Product, error)
	List(ctx context.Context, limit int) ([]Product, int, error)
	// TryDeplete takes one unit, or reports false without mutation when the
	// product is unknown or out of stock.
	TryDeplete(ctx context.Context, productID int) bool
	// Increase returns one unit; unknown ids are ignored.
	Increase(ctx context.Context, productID int)
}
