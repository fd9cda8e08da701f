package cart

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/payment"
)

// MinCheckoutItems is the default minimum number of line items a cart needs to check out.
const MinCheckoutItems = 5

var ErrInvalidID = errors.New("cart: id is required")

type Status string

const (
	StatusNew        Status = "new"
	StatusActive     Status = "active"
	StatusCheckedOut Status = "checked_out"
	StatusOrdered    Status = "ordered"
)

var statusRank = map[Status]int{
	StatusNew:        0,
	StatusActive:     1,
	StatusCheckedOut: 2,
	StatusOrdered:    3,
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("cart: unknown status %q", s)
	}
	return st, nil
}

// Rank orders statuses along the lifecycle; unknown statuses rank -1.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

type Metadata struct {
	Created      time.Time
	LastModified time.Time
	Location     string
}

type Cart struct {
	ID              string
	Status          Status
	ProductIDs      []int
	Recipient       string
	DeliveryAddress string
	PaymentMethod   *payment.Method
	Meta            Metadata
}

// Update carries the optional field edits of an update request.
// ProductIDs are appended; empty strings leave the field untouched.
type Update struct {
	ProductIDs      []int
	Recipient       string
	DeliveryAddress string
}

func New(id, location string) (*Cart, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	now := time.Now().UTC()
	return &Cart{
		ID:         id,
		Status:     StatusNew,
		ProductIDs: []int{},
		Meta: Metadata{
			Created:      now,
			LastModified: now,
			Location:     location,
		},
	}, nil
}

func (c *Cart) State() CartState {
	return stateOf(c.Status)
}

// AddProducts appends already validated product ids, one entry per unit.
func (c *Cart) AddProducts(ids []int) error {
	next, err := c.State().OnEdit(c)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNoValidProducts
	}
	c.ProductIDs = append(c.ProductIDs, ids...)
	c.transition(next)
	return nil
}

// RemoveProduct drops the first occurrence of productID.
func (c *Cart) RemoveProduct(productID int) error {
	next, err := c.State().OnEdit(c)
	if err != nil {
		return err
	}
	idx := slices.Index(c.ProductIDs, productID)
	if idx < 0 {
		return fmt.Errorf("cart %s: product %d: %w", c.ID, productID, ErrProductNotInCart)
	}
	c.ProductIDs = slices.Delete(slices.Clone(c.ProductIDs), idx, idx+1)
	c.transition(next)
	return nil
}

// Apply performs the field edits in u. It returns ErrNoChange when nothing
// differs from the current cart; status advances only when products change.
func (c *Cart) Apply(u Update) error {
	next, err := c.State().OnEdit(c)
	if err != nil {
		return err
	}

	productsChanged := len(u.ProductIDs) > 0
	changed := productsChanged
	if productsChanged {
		c.ProductIDs = append(c.ProductIDs, u.ProductIDs...)
	}
	if u.Recipient != "" && u.Recipient != c.Recipient {
		c.Recipient = u.Recipient
		changed = true
	}
	if u.DeliveryAddress != "" && u.DeliveryAddress != c.DeliveryAddress {
		c.DeliveryAddress = u.DeliveryAddress
		changed = true
	}
	if !changed {
		return ErrNoChange
	}

	if productsChanged {
		c.Status = next.Status()
	}
	c.touch()
	return nil
}

// ValidateForCheckout checks, in order: status, recipient, delivery address, line count.
func (c *Cart) ValidateForCheckout(minItems int) error {
	if c.Status == StatusCheckedOut || c.Status == StatusOrdered {
		return reject(c, "checkout")
	}
	if strings.TrimSpace(c.Recipient) == "" {
		return &ValidationError{CartID: c.ID, Field: "recipient", Reason: "is required"}
	}
	if strings.TrimSpace(c.DeliveryAddress) == "" {
		return &ValidationError{CartID: c.ID, Field: "delivery_address", Reason: "is required"}
	}
	if len(c.ProductIDs) < minItems {
		return &ValidationError{
			CartID: c.ID,
			Field:  "product_ids",
			Reason: fmt.Sprintf("must contain at least %d items, got %d", minItems, len(c.ProductIDs)),
		}
	}
	return nil
}

func (c *Cart) MarkCheckedOut() error {
	next, err := c.State().OnCheckout(c)
	if err != nil {
		return err
	}
	c.transition(next)
	return nil
}

func (c *Cart) MarkOrdered(method payment.Method) error {
	next, err := c.State().OnOrder(c)
	if err != nil {
		return err
	}
	c.PaymentMethod = &method
	c.transition(next)
	return nil
}

func (c *Cart) CanDelete() error {
	return c.State().OnDelete(c)
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ProductIDs = slices.Clone(c.ProductIDs)
	if clone.ProductIDs == nil {
		clone.ProductIDs = []int{}
	}
	if c.PaymentMethod != nil {
		m := *c.PaymentMethod
		clone.PaymentMethod = &m
	}
	return &clone
}

func (c *Cart) transition(next CartState) {
	c.Status = next.Status()
	c.touch()
}

func (c *Cart) touch() {
	c.Meta.LastModified = time.Now().UTC()
}
