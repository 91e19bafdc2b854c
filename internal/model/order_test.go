package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminalPayment(t *testing.T) {
	assert.False(t, IsTerminalPayment(PaymentStatusPending))
	assert.False(t, IsTerminalPayment(PaymentStatusProcessing))
	assert.True(t, IsTerminalPayment(PaymentStatusSucceeded))
	assert.True(t, IsTerminalPayment(PaymentStatusFailed))
	assert.True(t, IsTerminalPayment(PaymentStatusCanceled))
	assert.False(t, IsTerminalPayment("unknown"))
}

func TestCanTransitionPayment(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusProcessing, true},
		{PaymentStatusPending, PaymentStatusSucceeded, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusCanceled, true},
		{PaymentStatusProcessing, PaymentStatusSucceeded, true},
		{PaymentStatusProcessing, PaymentStatusFailed, true},
		{PaymentStatusProcessing, PaymentStatusCanceled, true},

		// Monotonic: terminal states accept nothing.
		{PaymentStatusSucceeded, PaymentStatusFailed, false},
		{PaymentStatusSucceeded, PaymentStatusProcessing, false},
		{PaymentStatusFailed, PaymentStatusSucceeded, false},
		{PaymentStatusCanceled, PaymentStatusSucceeded, false},

		// No backwards or self moves.
		{PaymentStatusProcessing, PaymentStatusProcessing, false},
		{PaymentStatusPending, PaymentStatusPending, false},
		{PaymentStatusProcessing, PaymentStatusPending, false},

		// Unknown states never transition.
		{"mystery", PaymentStatusSucceeded, false},
		{PaymentStatusPending, "mystery", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransitionPayment(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestDeriveOrderStatus(t *testing.T) {
	s, ok := DeriveOrderStatus(PaymentStatusSucceeded)
	assert.True(t, ok)
	assert.Equal(t, OrderStatusPreparing, s)

	s, ok = DeriveOrderStatus(PaymentStatusFailed)
	assert.True(t, ok)
	assert.Equal(t, OrderStatusCancelled, s)

	s, ok = DeriveOrderStatus(PaymentStatusCanceled)
	assert.True(t, ok)
	assert.Equal(t, OrderStatusCancelled, s)

	_, ok = DeriveOrderStatus(PaymentStatusPending)
	assert.False(t, ok)
	_, ok = DeriveOrderStatus(PaymentStatusProcessing)
	assert.False(t, ok)
}
