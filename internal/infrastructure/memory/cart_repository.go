package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
)

// CartRepository is an in-process stand-in for the external cache, used for
// local runs and tests. Entries are keyed exactly like the redis store.
type CartRepository struct {
	mu    sync.RWMutex
	keys  domain.KeyScheme
	carts map[string]*domain.Cart
}

var _ domain.Repository = (*CartRepository)(nil)

func NewCartRepository(keys domain.KeyScheme) *CartRepository {
	return &CartRepository{
		keys:  keys,
		carts: make(map[string]*domain.Cart),
	}
}

func (r *CartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[r.keys.Key(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *CartRepository) Put(ctx context.Context, c *domain.Cart) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("cart repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[r.keys.Key(c.ID)] = c.Clone()
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, r.keys.Key(id))
	return nil
}

func (r *CartRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
