// Package payment defines the payment-gateway collaborator interface and a
// provider-shaped local implementation.  The real provider is external and
// nothing in the core retries gateway calls: failures are surfaced to the
// caller with enough context for manual reconciliation.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order is the gateway's answer to a create-order request.  The order ID is
// handed back to the client so the payment can be completed out of band.
type Order struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Refund is the gateway's answer to a refund request.
type Refund struct {
	RefundID string  `json:"refund_id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
}

// Gateway is the collaborator interface the booking lifecycle talks to.
// Implementations may fail with any error; the lifecycle wraps failures in
// *GatewayError before surfacing them.
type Gateway interface {
	CreateOrder(ctx context.Context, payerName, payerEmail, description string, amount float64) (Order, error)
	VerifySignature(paymentID, orderID, signature string) bool
	CreateRefund(ctx context.Context, paymentID string, amount float64, notes string) (Refund, error)
}

// GatewayError wraps a provider failure with the operation and references
// involved, so operators can reconcile dangling orders or refunds by hand.
type GatewayError struct {
	Op        string // "create_order", "create_refund", "verify"
	OrderID   string
	PaymentID string
	Err       error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed (order=%q payment=%q): %v", e.Op, e.OrderID, e.PaymentID, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// SimGateway reproduces the provider's order, refund and signature shapes
// locally: orders and refunds get provider-style identifiers and signatures
// are HMAC-SHA256 over "orderID|paymentID" with the key secret, which is
// exactly what the hosted checkout sends back.
type SimGateway struct {
	keySecret string
	currency  string
	now       func() time.Time
}

// NewSimGateway returns a SimGateway signing with keySecret and reporting
// amounts in the given currency.
func NewSimGateway(keySecret, currency string) *SimGateway {
	return &SimGateway{keySecret: keySecret, currency: currency, now: time.Now}
}

// CreateOrder issues a new order reference for the given amount.
func (g *SimGateway) CreateOrder(ctx context.Context, payerName, payerEmail, description string, amount float64) (Order, error) {
	if amount < 0 {
		return Order{}, fmt.Errorf("negative amount %.2f", amount)
	}
	return Order{
		OrderID:  "order_" + uuid.NewString(),
		Amount:   amount,
		Currency: g.currency,
	}, nil
}

// VerifySignature checks the checkout callback signature.
func (g *SimGateway) VerifySignature(paymentID, orderID, signature string) bool {
	if paymentID == "" || orderID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign produces the signature the checkout would send for an order/payment
// pair.  Exposed for tests and local integration tooling.
func (g *SimGateway) Sign(paymentID, orderID string) string {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateRefund issues a refund for a captured payment.
func (g *SimGateway) CreateRefund(ctx context.Context, paymentID string, amount float64, notes string) (Refund, error) {
	if paymentID == "" {
		return Refund{}, fmt.Errorf("missing payment id")
	}
	if amount <= 0 {
		return Refund{}, fmt.Errorf("invalid refund amount %.2f", amount)
	}
	return Refund{
		RefundID: "rfnd_" + uuid.NewString(),
		Status:   "processed",
		Amount:   amount,
	}, nil
}
