package payment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInformation = errors.New("payment: invalid payment information")
	ErrUnknownMethod      = errors.New("payment: unknown payment method")
)

type Method string

const (
	MethodCreditCard    Method = "credit_card"
	MethodGiftCard      Method = "gift_card"
	MethodPayPal        Method = "paypal"
	MethodDigitalWallet Method = "digital_wallet"
)

var methods = map[string]Method{
	"creditcard":    MethodCreditCard,
	"giftcard":      MethodGiftCard,
	"paypal":        MethodPayPal,
	"digitalwallet": MethodDigitalWallet,
}

// ParseMethod accepts both snake_case ("credit_card") and PascalCase ("CreditCard") spellings.
func ParseMethod(s string) (Method, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	if m, ok := methods[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Information is the payment data submitted when ordering a checked-out cart.
type Information struct {
	Method         *Method
	BillingAddress string
}

func (i Information) Validate() error {
	if i.Method == nil {
		return fmt.Errorf("%w: payment method is required", ErrInvalidInformation)
	}
	if _, err := ParseMethod(string(*i.Method)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInformation, err)
	}
	if strings.TrimSpace(i.BillingAddress) == "" {
		return fmt.Errorf("%w: billing address is required", ErrInvalidInformation)
	}
	return nil
}
