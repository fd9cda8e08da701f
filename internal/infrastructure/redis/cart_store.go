package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/payment"
)

var ErrCorruptEntry = errors.New("cart store: corrupt cache entry")

type Options struct {
	Keys domain.KeyScheme
	// TTL is applied on every Put; zero keeps entries until deleted.
	TTL time.Duration
}

// CartStore persists carts as JSON documents in redis, one key per cart.
type CartStore struct {
	client redis.UniversalClient
	keys   domain.KeyScheme
	ttl    time.Duration
}

var _ domain.Repository = (*CartStore)(nil)

func NewCartStore(client redis.UniversalClient, opts Options) *CartStore {
	return &CartStore{
		client: client,
		keys:   opts.Keys,
		ttl:    opts.TTL,
	}
}

func (s *CartStore) Get(ctx context.Context, id string) (*domain.Cart, error) {
	key := s.keys.Key(id)
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart store: get %s: %w", key, err)
	}

	var rec cartRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptEntry, key, err)
	}
	c, err := rec.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptEntry, key, err)
	}
	return c, nil
}

func (s *CartStore) Put(ctx context.Context, c *domain.Cart) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("cart store: id is required")
	}
	raw, err := json.Marshal(fromDomain(c))
	if err != nil {
		return fmt.Errorf("cart store: encode %s: %w", c.ID, err)
	}
	key := s.keys.Key(c.ID)
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart store: set %s: %w", key, err)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, id string) error {
	key := s.keys.Key(id)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cart store: delete %s: %w", key, err)
	}
	return nil
}

func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

type cartMeta struct {
	Created      *time.Time `json:"created,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Location     string     `json:"location,omitempty"`
}

type cartRecord struct {
	ID              string   `json:"id"`
	Status          string   `json:"status"`
	ProductIDs      []int    `json:"product_ids"`
	Recipient       string   `json:"recipient,omitempty"`
	DeliveryAddress string   `json:"delivery_address,omitempty"`
	PaymentMethod   string   `json:"payment_method,omitempty"`
	Meta            cartMeta `json:"meta"`
}

func fromDomain(c *domain.Cart) cartRecord {
	rec := cartRecord{
		ID:              c.ID,
		Status:          string(c.Status),
		ProductIDs:      c.ProductIDs,
		Recipient:       c.Recipient,
		DeliveryAddress: c.DeliveryAddress,
		Meta:            cartMeta{Location: c.Meta.Location},
	}
	if rec.ProductIDs == nil {
		rec.ProductIDs = []int{}
	}
	if c.PaymentMethod != nil {
		rec.PaymentMethod = string(*c.PaymentMethod)
	}
	if !c.Meta.Created.IsZero() {
		created := c.Meta.Created
		rec.Meta.Created = &created
	}
	if !c.Meta.LastModified.IsZero() {
		modified := c.Meta.LastModified
		rec.Meta.LastModified = &modified
	}
	return rec
}

func (r cartRecord) toDomain() (*domain.Cart, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	c := &domain.Cart{
		ID:              r.ID,
		Status:          status,
		ProductIDs:      r.ProductIDs,
		Recipient:       r.Recipient,
		DeliveryAddress: r.DeliveryAddress,
		Meta:            domain.Metadata{Location: r.Meta.Location},
	}
	if c.ProductIDs == nil {
		c.ProductIDs = []int{}
	}
	if r.PaymentMethod != "" {
		m, err := payment.ParseMethod(r.PaymentMethod)
		if err != nil {
			return nil, err
		}
		c.PaymentMethod = &m
	}
	if r.Meta.Created != nil {
		c.Meta.Created = r.Meta.Created.UTC()
	}
	if r.Meta.LastModified != nil {
		c.Meta.LastModified = r.Meta.LastModified.UTC()
	}
	return c, nil
}
