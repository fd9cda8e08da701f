package cart

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/application"
	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	domoutbox "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
)

const useCaseOrder = "cart.order"

type OrderInput struct {
	CartID  string
	Payment payment.Information
}

// OrderUseCase finalizes payment for a checked-out cart. Stock was committed
// at checkout, so ordering never touches the catalog.
type OrderUseCase struct {
	repo      domain.Repository
	publisher domoutbox.Publisher
	tel       telemetry
}

var _ application.UseCase[OrderInput, *domain.Cart] = (*OrderUseCase)(nil)

func NewOrderUseCase(repo domain.Repository, publisher domoutbox.Publisher, tel observability.Observability) *OrderUseCase {
	return &OrderUseCase{
		repo:      repo,
		publisher: publisher,
		tel:       newTelemetry(tel),
	}
}

func (uc *OrderUseCase) Execute(ctx context.Context, cmd OrderInput) (_ *domain.Cart, err error) {
	ctx, inv := uc.tel.begin(ctx, useCaseOrder, cmd.CartID)
	defer func() { inv.end(err) }()

	c, err := loadCart(ctx, uc.repo, cmd.CartID)
	if err != nil {
		return nil, err
	}
	inv.cartStatus(c.Status)

	if c.Status != domain.StatusCheckedOut {
		return nil, &domain.StateError{CartID: c.ID, Status: c.Status, Op: "order"}
	}
	if err := cmd.Payment.Validate(); err != nil {
		return nil, fmt.Errorf("cart %s: %w", c.ID, err)
	}
	method, err := payment.ParseMethod(string(*cmd.Payment.Method))
	if err != nil {
		return nil, fmt.Errorf("cart %s: %w: %w", c.ID, payment.ErrInvalidInformation, err)
	}
	inv.note(observability.F("payment_method", string(method)))

	if err := c.MarkOrdered(method); err != nil {
		return nil, err
	}
	if err := uc.repo.Put(ctx, c); err != nil {
		return nil, wrapRepositoryError(c.ID, err)
	}
	inv.cartStatus(c.Status)

	if pubErr := uc.tel.publish(ctx, uc.publisher, domain.NewOrderedEvent(c)); pubErr != nil {
		inv.note(observability.F("event_publish_error", pubErr.Error()))
	}
	return c, nil
}
