package cart

import (
	"context"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/application"
	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/catalog"
	domoutbox "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability/logctx"
)

const useCaseCheckout = "cart.checkout"

type CheckoutInput struct {
	CartID string
}

// CheckoutUseCase validates a cart, reserves one stock unit per line item and
// locks the cart. Reservation is optimistic, unit by unit; the first failure
// returns every unit taken earlier in the same pass.
type CheckoutUseCase struct {
	repo      domain.Repository
	catalog   domcatalog.Catalog
	publisher domoutbox.Publisher
	minItems  int
	tel       telemetry
}

var _ application.UseCase[CheckoutInput, *domain.Cart] = (*CheckoutUseCase)(nil)

func NewCheckoutUseCase(
	repo domain.Repository,
	catalog domcatalog.Catalog,
	publisher domoutbox.Publisher,
	minItems int,
	tel observability.Observability,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		minItems:  minItems,
		tel:       newTelemetry(tel),
	}
}

func (uc *CheckoutUseCase) Execute(ctx context.Context, cmd CheckoutInput) (_ *domain.Cart, err error) {
	ctx, inv := uc.tel.begin(ctx, useCaseCheckout, cmd.CartID)
	defer func() { inv.end(err) }()

	c, err := loadCart(ctx, uc.repo, cmd.CartID)
	if err != nil {
		return nil, err
	}
	inv.cartStatus(c.Status)

	if err := c.ValidateForCheckout(uc.minItems); err != nil {
		return nil, err
	}

	reserved, err := uc.reserve(ctx, c)
	if err != nil {
		return nil, err
	}
	inv.note(observability.F("units_reserved", len(reserved)))

	if err := c.MarkCheckedOut(); err != nil {
		uc.release(ctx, c.ID, reserved)
		return nil, err
	}
	if err := uc.repo.Put(ctx, c); err != nil {
		uc.release(ctx, c.ID, reserved)
		return nil, wrapRepositoryError(c.ID, err)
	}
	inv.cartStatus(c.Status)

	if pubErr := uc.tel.publish(ctx, uc.publisher, domain.NewCheckedOutEvent(c)); pubErr != nil {
		inv.note(observability.F("event_publish_error", pubErr.Error()))
	}
	return c, nil
}

func (uc *CheckoutUseCase) reserve(ctx context.Context, c *domain.Cart) ([]int, error) {
	reserved := make([]int, 0, len(c.ProductIDs))
	for _, productID := range c.ProductIDs {
		if !uc.catalog.IsValid(ctx, productID) || !uc.catalog.TryDeplete(ctx, productID) {
			uc.release(ctx, c.ID, reserved)
			return nil, &domain.InsufficientStockError{CartID: c.ID, ProductID: productID}
		}
		reserved = append(reserved, productID)
	}
	return reserved, nil
}

// release returns reserved units; counters are independent so order does not matter.
func (uc *CheckoutUseCase) release(ctx context.Context, cartID string, reserved []int) {
	if len(reserved) == 0 {
		return
	}
	for _, productID := range reserved {
		uc.catalog.Increase(ctx, productID)
	}
	uc.tel.compensations.Add(float64(len(reserved)))
	logctx.FromOr(ctx, uc.tel.log).Warn("stock_compensated",
		observability.F("cart_id", cartID),
		observability.F("units", len(reserved)),
	)
}
