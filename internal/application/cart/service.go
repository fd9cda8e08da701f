package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
)

const (
	useCaseGet           = "cart.get"
	useCaseCreate        = "cart.create"
	useCaseUpdate        = "cart.update"
	useCaseDelete        = "cart.delete"
	useCaseAddProducts   = "cart.add_products"
	useCaseRemoveProduct = "cart.remove_product"
)

var ErrRepository = errors.New("cart: repository failure")

// Service handles the cart edits that do not touch stock.
type Service struct {
	repo    domain.Repository
	catalog domcatalog.Catalog
	ids     IDGenerator
	baseURL string
	tel     telemetry
}

// NewService wires the cart service. baseURL prefixes each cart's location.
func NewService(
	repo domain.Repository,
	catalog domcatalog.Catalog,
	idGen IDGenerator,
	baseURL string,
	tel observability.Observability,
) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		ids:     idGen,
		baseURL: baseURL,
		tel:     newTelemetry(tel),
	}
}

type UpdateInput struct {
	ProductIDs      []int
	Recipient       string
	DeliveryAddress string
}

func (s *Service) Get(ctx context.Context, id string) (_ *domain.Cart, err error) {
	ctx, inv := s.tel.begin(ctx, useCaseGet, id)
	defer func() { inv.end(err) }()

	c, err := loadCart(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	inv.cartStatus(c.Status)
	return c, nil
}

func (s *Service) Create(ctx context.Context) (_ *domain.Cart, err error) {
	id := s.ids.NewID()
	ctx, inv := s.tel.begin(ctx, useCaseCreate, id)
	defer func() { inv.end(err) }()

	c, err := domain.New(id, s.baseURL+"/carts/"+id)
	if err != nil {
		return nil, fmt.Errorf("cart: construct: %w", err)
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, wrapRepositoryError(id, err)
	}
	inv.cartStatus(c.Status)
	return c, nil
}

// Update appends valid product ids and replaces recipient or delivery address.
// It returns domain.ErrNoChange without writing when nothing changed.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (_ *domain.Cart, err error) {
	ctx, inv := s.tel.begin(ctx, useCaseUpdate, id)
	defer func() { inv.end(err) }()

	c, err := loadCart(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	inv.cartStatus(c.Status)

	err = c.Apply(domain.Update{
		ProductIDs:      s.validProducts(ctx, in.ProductIDs),
		Recipient:       in.Recipient,
		DeliveryAddress: in.DeliveryAddress,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, wrapRepositoryError(id, err)
	}
	inv.cartStatus(c.Status)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, inv := s.tel.begin(ctx, useCaseDelete, id)
	defer func() { inv.end(err) }()

	c, err := loadCart(ctx, s.repo, id)
	if err != nil {
		return err
	}
	inv.cartStatus(c.Status)
	if err := c.CanDelete(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepositoryError(id, err)
	}
	return nil
}

// AddProducts appends the ids that exist in the catalog, ignoring the rest.
func (s *Service) AddProducts(ctx context.Context, id string, productIDs []int) (_ *domain.Cart, err error) {
	ctx, inv := s.tel.begin(ctx, useCaseAddProducts, id)
	defer func() { inv.end(err) }()

	c, err := loadCart(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	inv.cartStatus(c.Status)

	valid := s.validProducts(ctx, productIDs)
	inv.note(
		observability.F("requested", len(productIDs)),
		observability.F("accepted", len(valid)),
	)
	if err := c.AddProducts(valid); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, wrapRepositoryError(id, err)
	}
	inv.cartStatus(c.Status)
	return c, nil
}

func (s *Service) RemoveProduct(ctx context.Context, id string, productID int) (_ *domain.Cart, err error) {
	ctx, inv := s.tel.begin(ctx, useCaseRemoveProduct, id)
	defer func() { inv.end(err) }()
	inv.note(observability.F("product_id", productID))

	c, err := loadCart(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	inv.cartStatus(c.Status)

	if err := c.RemoveProduct(productID); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, wrapRepositoryError(id, err)
	}
	return c, nil
}

func (s *Service) validProducts(ctx context.Context, ids []int) []int {
	valid := make([]int, 0, len(ids))
	for _, id := range ids {
		if s.catalog.IsValid(ctx, id) {
			valid = append(valid, id)
		}
	}
	return valid
}

// loadCart treats ids that are not UUIDs as unknown carts.
func loadCart(ctx context.Context, repo domain.Repository, id string) (*domain.Cart, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("cart %q: %w", id, domain.ErrNotFound)
	}
	c, err := repo.Get(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(id, err)
	}
	return c, nil
}

func wrapRepositoryError(id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("cart %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
