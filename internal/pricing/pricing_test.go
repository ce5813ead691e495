package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-pass-booking/internal/model"
)

type fakeDiscounts struct {
	eligible   *model.Discount
	findErr    error
	registered []string // "<id>:<userID>" per RegisterUse call
}

func (f *fakeDiscounts) FindEligible(_ context.Context, _, _ string, _ time.Time) (*model.Discount, error) {
	return f.eligible, f.findErr
}

func (f *fakeDiscounts) RegisterUse(_ context.Context, id, userID string) error {
	f.registered = append(f.registered, id+":"+userID)
	return nil
}

func basePass() *model.Pass {
	return &model.Pass{
		ID:            "pass-1",
		ZoneID:        "zone-1",
		Name:          "Day Pass",
		Type:          model.PassDaily,
		Price:         500,
		ValidityStart: time.Now().Add(-time.Hour),
		ValidityEnd:   time.Now().Add(24 * time.Hour),
		GroupSize:     1,
		IsActive:      true,
	}
}

func TestPriceBaseAmount(t *testing.T) {
	e := NewEngine(&fakeDiscounts{}, false)
	q, err := e.Price(context.Background(), basePass(), 1, 0, "u1", time.Now())
	require.NoError(t, err)
	require.Equal(t, 500.0, q.Amount)
	require.Zero(t, q.DiscountApplied)
}

func TestPriceInactivePass(t *testing.T) {
	p := basePass()
	p.IsActive = false
	e := NewEngine(&fakeDiscounts{}, false)
	_, err := e.Price(context.Background(), p, 1, 0, "u1", time.Now())
	require.ErrorIs(t, err, ErrPassInactive)
}

func TestPriceExpiredPass(t *testing.T) {
	p := basePass()
	p.ValidityEnd = time.Now().Add(-time.Minute)
	e := NewEngine(&fakeDiscounts{}, false)
	_, err := e.Price(context.Background(), p, 1, 0, "u1", time.Now())
	require.ErrorIs(t, err, ErrPassExpired)
}

func TestPriceGroupSizeBounds(t *testing.T) {
	p := basePass()
	p.Type = model.PassGroup
	p.GroupSize = 5

	e := NewEngine(&fakeDiscounts{}, false)
	_, err := e.Price(context.Background(), p, 6, 0, "u1", time.Now())
	require.ErrorIs(t, err, ErrInvalidGroupSize)

	q, err := e.Price(context.Background(), p, 3, 0, "u1", time.Now())
	require.NoError(t, err)
	require.Equal(t, 1500.0, q.Amount)
}

func TestPriceFirstApplicableRuleWins(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	p := basePass()
	p.PricingRules = []model.PricingRule{
		{DiscountPercentage: 50, ValidUntil: &expired}, // no longer valid
		{FixedPrice: 400},
		{DiscountPercentage: 10}, // never reached
	}
	e := NewEngine(&fakeDiscounts{}, false)
	q, err := e.Price(context.Background(), p, 1, 0, "u1", time.Now())
	require.NoError(t, err)
	require.Equal(t, 400.0, q.Amount)
}

func TestPricePercentageRule(t *testing.T) {
	p := basePass()
	p.PricingRules = []model.PricingRule{{DiscountPercentage: 20}}
	e := NewEngine(&fakeDiscounts{}, false)
	q, err := e.Price(context.Background(), p, 1, 0, "u1", time.Now())
	require.NoError(t, err)
	require.Equal(t, 400.0, q.Amount)
}

func TestPriceRulesSkippedWhenDiscountClaimed(t *testing.T) {
	p := basePass()
	p.Price = 1000
	p.PricingRules = []model.PricingRule{{DiscountPercentage: 50}}
	store := &fakeDiscounts{eligible: &model.Discount{ID: "d1", Code: "SAVE20", Percentage: 20}}
	e := NewEngine(store, false)
	q, err := e.Price(context.Background(), p, 1, 20, "u1", time.Now())
	require.NoError(t, err)
	// Discount path ignores pricing rules entirely.
	require.Equal(t, 800.0, q.Amount)
	require.Equal(t, "SAVE20", q.DiscountCode)
}

func TestPriceDiscountCappedByMaxLimit(t *testing.T) {
	p := basePass()
	p.Price = 1000
	store := &fakeDiscounts{eligible: &model.Discount{ID: "d1", Code: "BIG50", Percentage: 50, MaxLimit: 50}}
	e := NewEngine(store, false)
	q, err := e.Price(context.Background(), p, 1, 50, "u1", time.Now())
	require.NoError(t, err)
	require.Equal(t, 950.0, q.Amount)
	require.Equal(t, 50.0, q.DiscountApplied)
}

func TestPriceHasNoSideEffects(t *testing.T) {
	store := &fakeDiscounts{eligible: &model.Discount{ID: "d1", Code: "SAVE10", Percentage: 10}}
	e := NewEngine(store, false)
	q, err := e.Price(context.Background(), basePass(), 1, 10, "u1", time.Now())
	require.NoError(t, err)
	// The quote names the discount, but nothing is registered until the
	// booking is persisted and the caller says so.
	require.Equal(t, "d1", q.DiscountID)
	require.Empty(t, store.registered)

	require.NoError(t, e.RegisterUse(context.Background(), q.DiscountID, "u1"))
	require.Equal(t, []string{"d1:u1"}, store.registered)
}

func TestPriceClaimAboveEligiblePercentage(t *testing.T) {
	store := &fakeDiscounts{eligible: &model.Discount{ID: "d1", Code: "SAVE10", Percentage: 10}}
	e := NewEngine(store, false)
	_, err := e.Price(context.Background(), basePass(), 1, 25, "u1", time.Now())
	require.ErrorIs(t, err, ErrUnauthorizedDiscount)
	require.Empty(t, store.registered)
}

func TestPriceNoEligibleDiscount(t *testing.T) {
	e := NewEngine(&fakeDiscounts{}, false)
	_, err := e.Price(context.Background(), basePass(), 1, 10, "u1", time.Now())
	require.ErrorIs(t, err, ErrUnauthorizedDiscount)
}

func TestPriceSingleUsePolicy(t *testing.T) {
	d := &model.Discount{ID: "d1", Code: "ONCE", Percentage: 10, UsedBy: []string{"u1"}}
	store := &fakeDiscounts{eligible: d}

	// Policy off: reuse allowed.
	e := NewEngine(store, false)
	_, err := e.Price(context.Background(), basePass(), 1, 10, "u1", time.Now())
	require.NoError(t, err)

	// Policy on: same user refused, other users fine.
	e = NewEngine(store, true)
	_, err = e.Price(context.Background(), basePass(), 1, 10, "u1", time.Now())
	require.ErrorIs(t, err, ErrUnauthorizedDiscount)
	_, err = e.Price(context.Background(), basePass(), 1, 10, "u2", time.Now())
	require.NoError(t, err)
}
