package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	g := NewSimGateway("secret", "INR")
	o, err := g.CreateOrder(context.Background(), "Asha", "asha@example.com", "Day Pass", 500)
	require.NoError(t, err)
	require.NotEmpty(t, o.OrderID)
	require.Equal(t, 500.0, o.Amount)
	require.Equal(t, "INR", o.Currency)
}

func TestVerifySignature(t *testing.T) {
	g := NewSimGateway("secret", "INR")
	sig := g.Sign("pay_123", "order_abc")
	require.True(t, g.VerifySignature("pay_123", "order_abc", sig))

	require.False(t, g.VerifySignature("pay_123", "order_abc", "deadbeef"))
	require.False(t, g.VerifySignature("pay_456", "order_abc", sig))

	// Signatures are bound to the secret.
	other := NewSimGateway("other-secret", "INR")
	require.False(t, other.VerifySignature("pay_123", "order_abc", sig))
}

func TestCreateRefund(t *testing.T) {
	g := NewSimGateway("secret", "INR")
	r, err := g.CreateRefund(context.Background(), "pay_123", 250, "cancelled")
	require.NoError(t, err)
	require.NotEmpty(t, r.RefundID)
	require.Equal(t, 250.0, r.Amount)
	require.Equal(t, "processed", r.Status)
}

func TestGatewayErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &GatewayError{Op: "create_order", OrderID: "order_abc", Err: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "create_order")
}
