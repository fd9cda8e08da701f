package cart

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/application"
	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
)

const cartService = "cart-service"

// span names, keyed by use case
var spanNames = map[string]string{
	useCaseGet:           "GetCart",
	useCaseCreate:        "CreateCart",
	useCaseUpdate:        "UpdateCart",
	useCaseDelete:        "DeleteCart",
	useCaseAddProducts:   "AddProducts",
	useCaseRemoveProduct: "RemoveProduct",
	useCaseCheckout:      "Checkout",
	useCaseOrder:         "Order",
}

// telemetry bundles the instruments shared by every cart use case.
type telemetry struct {
	log           observability.Logger
	ops           map[string]*application.Op
	extCounter    observability.Counter      // external_requests_total{peer,endpoint,outcome}
	extHistogram  observability.Histogram    // external_request_duration_seconds{peer,endpoint}
	compensations observability.BoundCounter // stock_compensations_total
}

func newTelemetry(tel observability.Observability) telemetry {
	if tel == nil {
		tel = observability.Nop()
	}
	inst := application.NewInstrumentation(tel, cartService, classify)
	ops := make(map[string]*application.Op, len(spanNames))
	for useCase, span := range spanNames {
		ops[useCase] = inst.Op(useCase, span)
	}
	m := tel.Metrics()
	return telemetry{
		log:           inst.Logger(),
		ops:           ops,
		extCounter:    m.Counter(observability.MExternalRequests),
		extHistogram:  m.Histogram(observability.MExternalRequestDuration),
		compensations: m.Counter(observability.MStockCompensations).Bind(),
	}
}

type invocation struct {
	*application.Invocation
}

func (t *telemetry) begin(ctx context.Context, useCase, cartID string) (context.Context, invocation) {
	ctx, iv := t.ops[useCase].Begin(ctx, observability.F("cart_id", cartID))
	iv.SetAttributes(attribute.String("cart.id", cartID))
	return ctx, invocation{iv}
}

func (iv invocation) cartStatus(s domain.Status) {
	iv.SetAttributes(attribute.String("cart.status", string(s)))
}

func (iv invocation) note(fields ...observability.Field) { iv.Note(fields...) }

func (iv invocation) end(err error) { iv.End(err) }

// classify maps an error to (outcome, status). A NoChange signal is not a failure.
func classify(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrNoChange):
		return application.OutcomeNoop, "NO_CHANGE"
	case errors.Is(err, domain.ErrNotFound):
		return application.OutcomeError, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidState):
		return application.OutcomeError, "INVALID_STATE"
	case errors.Is(err, domain.ErrValidation):
		return application.OutcomeError, "VALIDATION_FAILED"
	case errors.Is(err, domain.ErrInsufficientStock):
		return application.OutcomeError, "INSUFFICIENT_STOCK"
	case errors.Is(err, payment.ErrInvalidInformation):
		return application.OutcomeError, "INVALID_PAYMENT"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return application.OutcomeError, "CONTEXT_CANCELED"
	case errors.Is(err, ErrRepository):
		return application.OutcomeError, "REPOSITORY_FAILED"
	default:
		return application.OutcomeError, "INTERNAL"
	}
}
