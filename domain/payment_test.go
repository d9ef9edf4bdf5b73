package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPaymentStatuses_ContainsAll(t *testing.T) {
	statuses := ValidPaymentStatuses()
	expected := []string{
		PaymentStatusPending, PaymentStatusSuccessful,
		PaymentStatusFailed, PaymentStatusCancelled,
	}
	assert.ElementsMatch(t, expected, statuses)
}

func TestIsValidPaymentStatus(t *testing.T) {
	for _, s := range ValidPaymentStatuses() {
		assert.True(t, IsValidPaymentStatus(s), "expected %q to be valid", s)
	}
	assert.False(t, IsValidPaymentStatus("succeeded"))
	assert.False(t, IsValidPaymentStatus(""))
}

func TestValidPaymentMethods_ContainsAll(t *testing.T) {
	methods := ValidPaymentMethods()
	expected := []string{PaymentMethodCard, PaymentMethodPayPal, PaymentMethodMobileMoney}
	assert.ElementsMatch(t, expected, methods)
}

func TestIsValidPaymentMethod(t *testing.T) {
	for _, m := range ValidPaymentMethods() {
		assert.True(t, IsValidPaymentMethod(m), "expected %q to be valid", m)
	}
	assert.False(t, IsValidPaymentMethod("bank_transfer"))
	assert.False(t, IsValidPaymentMethod(""))
	assert.False(t, IsValidPaymentMethod("CARD"))
}

func TestPayment_IsTerminal(t *testing.T) {
	assert.False(t, (&Payment{Status: PaymentStatusPending}).IsTerminal())
	assert.True(t, (&Payment{Status: PaymentStatusSuccessful}).IsTerminal())
	assert.True(t, (&Payment{Status: PaymentStatusFailed}).IsTerminal())
	assert.True(t, (&Payment{Status: PaymentStatusCancelled}).IsTerminal())
}
