package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/catalog"
)

// CatalogRepository holds the product catalog loaded at startup. Membership is
// fixed after construction; each product's stock is an independent atomic counter.
type CatalogRepository struct {
	products []domain.Product
	index    map[int]int
	stock    map[int]*atomic.Int64
}

var _ domain.Catalog = (*CatalogRepository)(nil)

func NewCatalogRepository(products []domain.Product) (*CatalogRepository, error) {
	r := &CatalogRepository{
		products: make([]domain.Product, 0, len(products)),
		index:    make(map[int]int, len(products)),
		stock:    make(map[int]*atomic.Int64, len(products)),
	}
	for _, p := range products {
		if _, exists := r.index[p.ProductID]; exists {
			return nil, fmt.Errorf("%w: %d", domain.ErrDuplicateProduct, p.ProductID)
		}
		if p.Quantity < 0 {
			return nil, fmt.Errorf("%w: product %d has %d", domain.ErrNegativeQuantity, p.ProductID, p.Quantity)
		}
		counter := new(atomic.Int64)
		counter.Store(int64(p.Quantity))

		r.index[p.ProductID] = len(r.products)
		r.stock[p.ProductID] = counter
		r.products = append(r.products, p.Clone())
	}
	return r, nil
}

func (r *CatalogRepository) IsValid(ctx context.Context, productID int) bool {
	_ = ctx
	_, ok := r.index[productID]
	return ok
}

func (r *CatalogRepository) Get(ctx context.Context, productID int) (domain.Product, error) {
	_ = ctx
	idx, ok := r.index[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %d", domain.ErrNotFound, productID)
	}
	return r.snapshot(idx), nil
}

// List returns at most limit products in load order plus the catalog size.
func (r *CatalogRepository) List(ctx context.Context, limit int) ([]domain.Product, int, error) {
	_ = ctx
	total := len(r.products)
	if limit <= 0 || limit > total {
		limit = total
	}
	out := make([]domain.Product, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, r.snapshot(i))
	}
	return out, total, nil
}

func (r *CatalogRepository) TryDeplete(ctx context.Context, productID int) bool {
	_ = ctx
	counter, ok := r.stock[productID]
	if !ok {
		return false
	}
	for {
		cur := counter.Load()
		if cur <= 0 {
			return false
		}
		if counter.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

func (r *CatalogRepository) Increase(ctx context.Context, productID int) {
	_ = ctx
	if counter, ok := r.stock[productID]; ok {
		counter.Add(1)
	}
}

func (r *CatalogRepository) snapshot(idx int) domain.Product {
	p := r.products[idx].Clone()
	p.Quantity = int(r.stock[p.ProductID].Load())
	return p
}
