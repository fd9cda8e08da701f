package cart

import (
	"context"
	"strings"
)

// Repository is the single source of truth for cart state between requests.
// Get returns ErrNotFound when no cart is stored under the id.
type Repository interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Put(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}

const DefaultKeyPrefix = "cart"

// KeyScheme derives the cache key of a cart: upper-cased "<prefix>:<id>".
type KeyScheme struct {
	Prefix string
}

func (k KeyScheme) Key(id string) string {
	prefix := k.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return strings.ToUpper(prefix + ":" + id)
}
