package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	appcart "github.com/Zhima-Mochi/minishop-cartmanager/internal/application/cart"
	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/catalog"
	domoutbox "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
)

const baseURL = "http://shop.test"

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

type countingCounter struct {
	mu    sync.Mutex
	total float64
}

func (c *countingCounter) Add(d float64, _ ...observability.Label) {
	c.mu.Lock()
	c.total += d
	c.mu.Unlock()
}

func (c *countingCounter) Bind(...observability.Label) observability.BoundCounter {
	return boundCount{c}
}

type boundCount struct{ c *countingCounter }

func (b boundCount) Add(d float64) { b.c.Add(d) }

func (c *countingCounter) value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

type repoMock struct{ mock.Mock }

func (m *repoMock) Get(ctx context.Context, id string) (*domain.Cart, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*domain.Cart)
	return c, args.Error(1)
}

func (m *repoMock) Put(ctx context.Context, c *domain.Cart) error {
	return m.Called(ctx, c).Error(0)
}

func (m *repoMock) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type fixture struct {
	repo          *memory.CartRepository
	catalog       *memory.CatalogRepository
	events        *recordingPublisher
	compensations *countingCounter
	svc           *appcart.Service
	checkout      *appcart.CheckoutUseCase
	order         *appcart.OrderUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := memory.NewCatalogRepository([]domcatalog.Product{
		{ProductID: 1, Name: "one", Quantity: 10},
		{ProductID: 2, Name: "two", Quantity: 10},
		{ProductID: 3, Name: "three", Quantity: 10},
		{ProductID: 4, Name: "four", Quantity: 10},
		{ProductID: 5, Name: "five", Quantity: 10},
		{ProductID: 7, Name: "seven", Quantity: 7},
		{ProductID: 10, Name: "ten", Quantity: 3},
	})
	require.NoError(t, err)

	f := &fixture{
		repo:          memory.NewCartRepository(domain.KeyScheme{Prefix: domain.DefaultKeyPrefix}),
		catalog:       catalog,
		events:        &recordingPublisher{},
		compensations: &countingCounter{},
	}
	tel := infraobs.New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MStockCompensations: f.compensations,
	}, nil)
	f.svc = appcart.NewService(f.repo, catalog, id.NewUUIDGenerator(), baseURL, tel)
	f.checkout = appcart.NewCheckoutUseCase(f.repo, catalog, f.events, domain.MinCheckoutItems, tel)
	f.order = appcart.NewOrderUseCase(f.repo, f.events, tel)
	return f
}

func (f *fixture) stock(t *testing.T, productID int) int {
	t.Helper()
	p, err := f.catalog.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Quantity
}

// readyCart returns a persisted cart holding products with recipient and address set.
func (f *fixture) readyCart(t *testing.T, products ...int) *domain.Cart {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.AddProducts(ctx, c.ID, products)
	require.NoError(t, err)
	c, err = f.svc.Update(ctx, c.ID, appcart.UpdateInput{Recipient: "Alice", DeliveryAddress: "1 Main St"})
	require.NoError(t, err)
	return c
}

func creditCard(billing string) payment.Information {
	m := payment.Method("CreditCard")
	return payment.Information{Method: &m, BillingAddress: billing}
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, created.Status)
	assert.Equal(t, baseURL+"/carts/"+created.ID, created.Meta.Location)
	assert.Empty(t, created.ProductIDs)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Status, got.Status)
	assert.Equal(t, created.Meta.Location, got.Meta.Location)
}

func TestGetUnknownCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, id.NewUUIDGenerator().NewID())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Get(ctx, "C1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddProductsFiltersUnknownIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)

	c, err = f.svc.AddProducts(ctx, c.ID, []int{1, 404, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2}, c.ProductIDs)
	assert.Equal(t, domain.StatusActive, c.Status)

	_, err = f.svc.AddProducts(ctx, c.ID, []int{404, 500})
	assert.ErrorIs(t, err, domain.ErrNoChange)

	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2}, stored.ProductIDs)
}

func TestRemoveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.AddProducts(ctx, c.ID, []int{1, 2, 1})
	require.NoError(t, err)

	c, err = f.svc.RemoveProduct(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, c.ProductIDs)

	_, err = f.svc.RemoveProduct(ctx, c.ID, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateWithoutChangesDoesNotWrite(t *testing.T) {
	existing, err := domain.New("2b1f4a58-3c1d-4c51-9a57-6c1d1b6c0a11", baseURL+"/carts/x")
	require.NoError(t, err)
	existing.Recipient = "Alice"
	existing.DeliveryAddress = "1 Main St"

	repo := &repoMock{}
	repo.On("Get", mock.Anything, existing.ID).Return(existing.Clone(), nil)
	catalog, err := memory.NewCatalogRepository(nil)
	require.NoError(t, err)
	svc := appcart.NewService(repo, catalog, id.NewUUIDGenerator(), baseURL, nil)

	_, err = svc.Update(context.Background(), existing.ID, appcart.UpdateInput{
		Recipient:       "Alice",
		DeliveryAddress: "1 Main St",
	})
	assert.ErrorIs(t, err, domain.ErrNoChange)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestUpdateAppendsValidProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)

	c, err = f.svc.Update(ctx, c.ID, appcart.UpdateInput{ProductIDs: []int{3, 999}, Recipient: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, c.ProductIDs)
	assert.Equal(t, "Bob", c.Recipient)
	assert.Equal(t, domain.StatusActive, c.Status)
}

func TestCheckoutRestoresStockWhenOneProductRunsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.readyCart(t, 10, 10, 10, 10, 10)

	_, err := f.checkout.Execute(ctx, appcart.CheckoutInput{CartID: c.ID})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.ProductID)
	assert.Equal(t, 3, f.stock(t, 10))
	assert.Equal(t, float64(3), f.compensations.value())

	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)
	assert.Len(t, stored.ProductIDs, 5)
	assert.Empty(t, f.events.names())
}

func TestCheckoutRestoresStockOnUnknownProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.readyCart(t, 1, 2, 3, 4)
	// The catalog no longer knows 999; simulate a cart written before that.
	c.ProductIDs = append(c.ProductIDs, 999)
	require.NoError(t, f.repo.Put(ctx, c))

	_, err := f.checkout.Execute(ctx, appcart.CheckoutInput{CartID: c.ID})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 999, stockErr.ProductID)
	for _, p := range []int{1, 2, 3, 4} {
		assert.Equal(t, 10, f.stock(t, p), "product %d", p)
	}
}

func TestCheckoutOrderDeleteLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.readyCart(t, 1, 2, 3, 4, 5)

	c, err := f.checkout.Execute(ctx, appcart.CheckoutInput{CartID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedOut, c.Status)
	for _, p := range []int{1, 2, 3, 4, 5} {
		assert.Equal(t, 9, f.stock(t, p), "product %d", p)
	}

	_, err = f.svc.AddProducts(ctx, c.ID, []int{1})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.svc.Update(ctx, c.ID, appcart.UpdateInput{Recipient: "Eve"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, stored.ProductIDs)
	assert.Equal(t, "Alice", stored.Recipient)

	_, err = f.checkout.Execute(ctx, appcart.CheckoutInput{CartID: c.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 9, f.stock(t, 1))

	c, err = f.order.Execute(ctx, appcart.OrderInput{CartID: c.ID, Payment: creditCard("1 Main St")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOrdered, c.Status)
	require.NotNil(t, c.PaymentMethod)
	assert.Equal(t, payment.MethodCreditCard, *c.PaymentMethod)
	assert.Equal(t, 9, f.stock(t, 1))

	err = f.svc.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.svc.Update(ctx, c.ID, appcart.UpdateInput{Recipient: "Eve"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, []string{"cart.checked_out", "cart.ordered"}, f.events.names())
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.AddProducts(ctx, c.ID, []int{1, 2, 3, 4, 5})
	require.NoError(t, err)

	_, err = f.checkout.Execute(ctx, appcart.CheckoutInput{CartID: c.ID})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "recipient", vErr.Field)

	short := f.readyCart(t, 1, 2)
	_, err = f.checkout.Execute(ctx, appcart.CheckoutInput{CartID: short.ID})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "product_ids", vErr.Field)

	assert.Equal(t, 10, f.stock(t, 1))
}

func TestCheckoutCompensatesWhenPersistFails(t *testing.T) {
	catalog, err := memory.NewCatalogRepository([]domcatalog.Product{{ProductID: 1, Quantity: 6}})
	require.NoError(t, err)

	c, err := domain.New("6a5c0a1e-7f4b-4d8e-a1a4-0f1b8e2f3c44", baseURL+"/carts/x")
	require.NoError(t, err)
	require.NoError(t, c.AddProducts([]int{1, 1, 1, 1, 1}))
	c.Recipient, c.DeliveryAddress = "Alice", "1 Main St"

	repo := &repoMock{}
	repo.On("Get", mock.Anything, c.ID).Return(c.Clone(), nil)
	repo.On("Put", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	events := &recordingPublisher{}

	uc := appcart.NewCheckoutUseCase(repo, catalog, events, domain.MinCheckoutItems, nil)
	_, err = uc.Execute(context.Background(), appcart.CheckoutInput{CartID: c.ID})
	assert.ErrorIs(t, err, appcart.ErrRepository)

	p, err := catalog.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Quantity)
	assert.Empty(t, events.names())
	repo.AssertExpectations(t)
}

func TestOrderRequiresCheckedOutCartAndPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.readyCart(t, 1, 2, 3, 4, 5)

	_, err := f.order.Execute(ctx, appcart.OrderInput{CartID: c.ID, Payment: creditCard("1 Main St")})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.checkout.Execute(ctx, appcart.CheckoutInput{CartID: c.ID})
	require.NoError(t, err)

	_, err = f.order.Execute(ctx, appcart.OrderInput{CartID: c.ID, Payment: payment.Information{BillingAddress: "1 Main St"}})
	assert.ErrorIs(t, err, payment.ErrInvalidInformation)
	_, err = f.order.Execute(ctx, appcart.OrderInput{CartID: c.ID, Payment: creditCard("  ")})
	assert.ErrorIs(t, err, payment.ErrInvalidInformation)

	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedOut, stored.Status)
	assert.Nil(t, stored.PaymentMethod)
}

func TestDeleteCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, c.ID))
	_, err = f.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, c.ID), domain.ErrNotFound)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const carts = 4
	ids := make([]string, carts)
	for i := range ids {
		ids[i] = f.readyCart(t, 7, 7, 7, 7, 7).ID
	}

	var (
		mu        sync.Mutex
		succeeded int
	)
	var g errgroup.Group
	for _, cartID := range ids {
		g.Go(func() error {
			_, err := f.checkout.Execute(ctx, appcart.CheckoutInput{CartID: cartID})
			switch {
			case err == nil:
				mu.Lock()
				succeeded++
				mu.Unlock()
				return nil
			case errors.Is(err, domain.ErrInsufficientStock):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.LessOrEqual(t, succeeded, 1)
	assert.Equal(t, 7-5*succeeded, f.stock(t, 7))
}
