package cart

import (
	"slices"
	"time"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/payment"
)

// CheckedOutEvent is emitted after stock for every line item was reserved and the cart persisted.
type CheckedOutEvent struct {
	CartID     string
	ProductIDs []int
	OccurredAt time.Time
}

func (CheckedOutEvent) EventName() string { return "cart.checked_out" }

func NewCheckedOutEvent(c *Cart) CheckedOutEvent {
	return CheckedOutEvent{
		CartID:     c.ID,
		ProductIDs: slices.Clone(c.ProductIDs),
		OccurredAt: time.Now().UTC(),
	}
}

// OrderedEvent is emitted when a checked-out cart is paid for.
type OrderedEvent struct {
	CartID        string
	PaymentMethod payment.Method
	OccurredAt    time.Time
}

func (OrderedEvent) EventName() string { return "cart.ordered" }

func NewOrderedEvent(c *Cart) OrderedEvent {
	evt := OrderedEvent{
		CartID:     c.ID,
		OccurredAt: time.Now().UTC(),
	}
	if c.PaymentMethod != nil {
		evt.PaymentMethod = *c.PaymentMethod
	}
	return evt
}
