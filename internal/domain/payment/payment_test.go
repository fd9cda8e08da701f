package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{
		"CreditCard":     MethodCreditCard,
		"credit_card":    MethodCreditCard,
		"PayPal":         MethodPayPal,
		"gift_card":      MethodGiftCard,
		" DigitalWallet": MethodDigitalWallet,
	} {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMethod("cash")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestInformationValidate(t *testing.T) {
	card := MethodCreditCard
	bogus := Method("barter")

	assert.NoError(t, Information{Method: &card, BillingAddress: "1 Main St"}.Validate())
	assert.ErrorIs(t, Information{BillingAddress: "1 Main St"}.Validate(), ErrInvalidInformation)
	assert.ErrorIs(t, Information{Method: &card, BillingAddress: " "}.Validate(), ErrInvalidInformation)
	assert.ErrorIs(t, Information{Method: &bogus, BillingAddress: "1 Main St"}.Validate(), ErrInvalidInformation)
}
