package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
)

func TestCartRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository(domain.KeyScheme{})

	c, err := domain.New("a1b2", "/carts/a1b2")
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, c))

	got, err := repo.Get(ctx, "A1B2")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	got.ProductIDs = append(got.ProductIDs, 1)
	again, err := repo.Get(ctx, "a1b2")
	require.NoError(t, err)
	assert.Empty(t, again.ProductIDs)

	require.NoError(t, repo.Delete(ctx, "a1b2"))
	_, err = repo.Get(ctx, "a1b2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartRepositoryKeysIgnoreIDCase(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository(domain.KeyScheme{Prefix: "cart"})
	c, err := domain.New("a1b2", "")
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, c))

	got, err := repo.Get(ctx, "A1B2")
	require.NoError(t, err)
	assert.Equal(t, "a1b2", got.ID)

	require.NoError(t, repo.Delete(ctx, "A1B2"))
	_, err = repo.Get(ctx, "a1b2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartRepositoryRequiresID(t *testing.T) {
	repo := NewCartRepository(domain.KeyScheme{})
	assert.Error(t, repo.Put(context.Background(), &domain.Cart{}))
	assert.Error(t, repo.Put(context.Background(), nil))
}
