// Package pricing computes the amount due for a booking.  Price itself is
// pure; the discount-usage side effect is deferred to RegisterUse so the
// caller can order it after booking persistence.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/event-pass-booking/internal/model"
)

// Sentinel errors for purchase validation and discount eligibility.
// Handlers translate these into 400/403 responses.
var (
	ErrPassInactive         = errors.New("pass is inactive")
	ErrPassExpired          = errors.New("pass validity has ended")
	ErrInvalidGroupSize     = errors.New("invalid group size")
	ErrUnauthorizedDiscount = errors.New("invalid or unauthorized discount")
)

// DiscountStore is the slice of the persistence gateway the engine needs:
// locating an eligible discount and registering its use.  RegisterUse must
// be an atomic counter update on the storage side.
type DiscountStore interface {
	FindEligible(ctx context.Context, userID, zoneID string, now time.Time) (*model.Discount, error)
	RegisterUse(ctx context.Context, id, userID string) error
}

// Quote is the outcome of pricing a booking: the final amount plus the
// discount selected, kept on the booking record for audit.  A non-empty
// DiscountID means the caller owes a RegisterUse call once the booking is
// persisted.
type Quote struct {
	Amount          float64
	DiscountApplied float64
	DiscountCode    string
	DiscountID      string
}

// Engine prices bookings.  When singleUse is set, a user who already
// applied a discount code is refused a second application of the same code.
type Engine struct {
	discounts DiscountStore
	singleUse bool
}

// NewEngine returns an Engine backed by the given discount store.
func NewEngine(discounts DiscountStore, singleUse bool) *Engine {
	return &Engine{discounts: discounts, singleUse: singleUse}
}

// Price validates the purchase and computes the amount due for qty units of
// the pass.  claim is the discount percentage the caller asserts (0 means
// no discount code).  Price has no side effects: when a discount applies,
// its ID comes back in the Quote and the caller registers the usage after
// the booking is safely persisted, so aborted creations never inflate
// times_used.  Pricing rules apply only when no discount code is in play
// and are evaluated in stored order: the first rule still valid now wins.
func (e *Engine) Price(ctx context.Context, p *model.Pass, qty int, claim float64, userID string, now time.Time) (Quote, error) {
	if err := validatePurchase(p, qty, now); err != nil {
		return Quote{}, err
	}

	amount := p.Price * float64(qty)

	if claim <= 0 {
		return Quote{Amount: applyRules(p.PricingRules, amount, float64(qty), now)}, nil
	}

	d, err := e.discounts.FindEligible(ctx, userID, p.ZoneID, now)
	if err != nil {
		return Quote{}, err
	}
	if d == nil || d.Percentage < claim {
		return Quote{}, ErrUnauthorizedDiscount
	}
	if e.singleUse && d.UsedByUser(userID) {
		return Quote{}, ErrUnauthorizedDiscount
	}

	value := amount * claim / 100
	if d.MaxLimit > 0 && value > d.MaxLimit {
		value = d.MaxLimit
	}
	amount -= value

	return Quote{
		Amount:          amount,
		DiscountApplied: claim,
		DiscountCode:    d.Code,
		DiscountID:      d.ID,
	}, nil
}

// RegisterUse records a discount application against the store.  Callers
// invoke it only after the booking carrying the discount has been
// persisted.
func (e *Engine) RegisterUse(ctx context.Context, discountID, userID string) error {
	return e.discounts.RegisterUse(ctx, discountID, userID)
}

// validatePurchase enforces the pass-side constraints: active flag,
// validity window and group-size bounds.  Inventory is not checked here;
// the conditional atomic decrement in the lifecycle manager is the
// authoritative guard.
func validatePurchase(p *model.Pass, qty int, now time.Time) error {
	if !p.IsActive {
		return ErrPassInactive
	}
	if now.After(p.ValidityEnd) {
		return ErrPassExpired
	}
	if p.IsGroup() {
		if qty < 1 || qty > p.GroupSize {
			return ErrInvalidGroupSize
		}
	} else if qty != 1 {
		return ErrInvalidGroupSize
	}
	return nil
}

// applyRules walks the ordered pricing rules and applies the first one
// still valid at now.  First-applicable, not best-applicable: the stored
// order is the policy.
func applyRules(rules []model.PricingRule, amount, qty float64, now time.Time) float64 {
	for _, r := range rules {
		if r.ValidUntil != nil && now.After(*r.ValidUntil) {
			continue
		}
		if r.FixedPrice > 0 {
			return r.FixedPrice * qty
		}
		if r.DiscountPercentage > 0 {
			return amount - amount*r.DiscountPercentage/100
		}
	}
	return amount
}
