package cart

// CartState implements the state pattern for cart lifecycle transitions.
// Status only moves forward: New -> Active -> CheckedOut -> Ordered.
type CartState interface {
	Status() Status
	OnEdit(c *Cart) (CartState, error)
	OnCheckout(c *Cart) (CartState, error)
	OnOrder(c *Cart) (CartState, error)
	OnDelete(c *Cart) error
}

func stateOf(s Status) CartState {
	switch s {
	case StatusActive:
		return activeState{}
	case StatusCheckedOut:
		return checkedOutState{}
	case StatusOrdered:
		return orderedState{}
	default:
		return newState{}
	}
}

func reject(c *Cart, op string) error {
	return &StateError{CartID: c.ID, Status: c.Status, Op: op}
}

type newState struct{}

func (newState) Status() Status { return StatusNew }

func (newState) OnEdit(*Cart) (CartState, error) { return activeState{}, nil }

func (newState) OnCheckout(c *Cart) (CartState, error) { return nil, reject(c, "checkout") }

func (newState) OnOrder(c *Cart) (CartState, error) { return nil, reject(c, "order") }

func (newState) OnDelete(*Cart) error { return nil }

type activeState struct{}

func (activeState) Status() Status { return StatusActive }

func (activeState) OnEdit(*Cart) (CartState, error) { return activeState{}, nil }

func (activeState) OnCheckout(*Cart) (CartState, error) { return checkedOutState{}, nil }

func (activeState) OnOrder(c *Cart) (CartState, error) { return nil, reject(c, "order") }

func (activeState) OnDelete(*Cart) error { return nil }

// checkedOutState locks contents; only ordering or deletion remain.
type checkedOutState struct{}

func (checkedOutState) Status() Status { return StatusCheckedOut }

func (checkedOutState) OnEdit(c *Cart) (CartState, error) { return nil, reject(c, "edit") }

func (checkedOutState) OnCheckout(c *Cart) (CartState, error) { return nil, reject(c, "checkout") }

func (checkedOutState) OnOrder(*Cart) (CartState, error) { return orderedState{}, nil }

func (checkedOutState) OnDelete(*Cart) error { return nil }

// orderedState is terminal.
type orderedState struct{}

func (orderedState) Status() Status { return StatusOrdered }

func (orderedState) OnEdit(c *Cart) (CartState, error) { return nil, reject(c, "edit") }

func (orderedState) OnCheckout(c *Cart) (CartState, error) { return nil, reject(c, "checkout") }

func (orderedState) OnOrder(c *Cart) (CartState, error) { return nil, reject(c, "order") }

func (orderedState) OnDelete(c *Cart) error { return reject(c, "delete") }
