package catalog

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/application"
	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
)

const (
	useCaseGetProduct   = "catalog.get_product"
	useCaseListProducts = "catalog.list_products"

	// DefaultListCap bounds how many products a single listing returns.
	DefaultListCap = 30
)

type ListResult struct {
	Products []domain.Product
	Total    int
}

// Service exposes read access to the product catalog.
type Service struct {
	catalog domain.Catalog
	listCap int
	get     *application.Op
	list    *application.Op
}

func NewService(catalog domain.Catalog, listCap int, tel observability.Observability) *Service {
	if listCap <= 0 {
		listCap = DefaultListCap
	}
	inst := application.NewInstrumentation(tel, "catalog-service", classify)
	return &Service{
		catalog: catalog,
		listCap: listCap,
		get:     inst.Op(useCaseGetProduct, "GetProduct"),
		list:    inst.Op(useCaseListProducts, "ListProducts"),
	}
}

func (s *Service) Get(ctx context.Context, productID int) (_ domain.Product, err error) {
	ctx, inv := s.get.Begin(ctx, observability.F("product_id", productID))
	inv.SetAttributes(attribute.Int("product.id", productID))
	defer func() { inv.End(err) }()

	return s.catalog.Get(ctx, productID)
}

// List returns the first products of the catalog, capped at the configured size.
func (s *Service) List(ctx context.Context) (_ ListResult, err error) {
	ctx, inv := s.list.Begin(ctx, observability.F("list_cap", s.listCap))
	inv.SetAttributes(attribute.Int("list.cap", s.listCap))
	defer func() { inv.End(err) }()

	products, total, err := s.catalog.List(ctx, s.listCap)
	if err != nil {
		return ListResult{}, err
	}
	inv.Note(observability.F("total", total))
	return ListResult{Products: products, Total: total}, nil
}

func classify(err error) (string, string) {
	if errors.Is(err, domain.ErrNotFound) {
		return application.OutcomeError, "NOT_FOUND"
	}
	return application.OutcomeError, "INTERNAL"
}
