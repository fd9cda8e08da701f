package worker

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	domoutbox "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/minishop-cartmanager/internal/presentation/worker"
)

// Worker consumes cart lifecycle events. It records them as metrics and log
// lines; stock and cart state were already settled by the publishing use case.
type Worker struct {
	subscriber domoutbox.Subscriber
	tel        observability.Observability
	log        observability.Logger
	checkedOut observability.BoundCounter // cart_lifecycle_events_total{event="cart.checked_out"}
	ordered    observability.BoundCounter // cart_lifecycle_events_total{event="cart.ordered"}
}

func New(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	events := tel.Metrics().Counter(observability.MCartLifecycleEvents)
	return &Worker{
		subscriber: subscriber,
		tel:        tel,
		log:        tel.Logger().With(observability.F("component", "cart-worker")),
		checkedOut: events.Bind(observability.L("event", domain.CheckedOutEvent{}.EventName())),
		ordered:    events.Bind(observability.L("event", domain.OrderedEvent{}.EventName())),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domain.CheckedOutEvent{}.EventName(), w.handleCheckedOut)
	w.subscriber.Subscribe(domain.OrderedEvent{}.EventName(), w.handleOrdered)
}

func (w *Worker) handleCheckedOut(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domain.CheckedOutEvent)
	if !ok {
		return fmt.Errorf("cart worker: unexpected event %T", e)
	}
	ctx = w.eventContext(ctx, evt.EventName(), evt.CartID)
	w.checkedOut.Add(1)

	logctx.FromOr(ctx, w.log).Info("cart_checked_out",
		observability.F("units", len(evt.ProductIDs)),
		observability.F("occurred_at", evt.OccurredAt),
	)
	return nil
}

func (w *Worker) handleOrdered(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domain.OrderedEvent)
	if !ok {
		return fmt.Errorf("cart worker: unexpected event %T", e)
	}
	ctx = w.eventContext(ctx, evt.EventName(), evt.CartID)
	w.ordered.Add(1)

	logctx.FromOr(ctx, w.log).Info("cart_ordered",
		observability.F("payment_method", string(evt.PaymentMethod)),
		observability.F("occurred_at", evt.OccurredAt),
	)
	return nil
}

func (w *Worker) eventContext(ctx context.Context, name, cartID string) context.Context {
	return workerpresentation.WithEventContext(ctx, w.log, w.tel, map[string]string{
		"event":   name,
		"cart_id": cartID,
	})
}
