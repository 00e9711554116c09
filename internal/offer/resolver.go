package offer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Resolve selects the single offer applicable to a product at the given instant,
// or nil when nothing qualifies. Precedence is strict: a PRODUCT offer matching
// the product beats any CATEGORY offer, which beats any GENERAL offer.
//
// Within a tier, ties go to the offer producing the lowest final price for the
// given unit price, then the earliest StartDate, then the lowest ID, so the
// outcome is deterministic regardless of input order.
//
// Resolve is pure: the clock is the asOf parameter, never the wall clock.
func Resolve(productID, categoryID string, unitPrice decimal.Decimal, offers []Offer, asOf time.Time) *Offer {
	var best *Offer
	bestTier := 0
	for i := range offers {
		o := &offers[i]
		if !o.ValidOn(asOf) || !o.Matches(productID, categoryID) {
			continue
		}
		tier := scopeTier(o.Scope)
		switch {
		case best == nil, tier < bestTier:
			best, bestTier = o, tier
		case tier == bestTier && beats(o, best, unitPrice):
			best = o
		}
	}
	if best == nil {
		return nil
	}
	resolved := *best
	return &resolved
}

func scopeTier(s Scope) int {
	switch s {
	case ScopeProduct:
		return 0
	case ScopeCategory:
		return 1
	default:
		return 2
	}
}

// beats reports whether candidate wins the same-tier tie-break against current:
// best deal for the customer first, then earliest start, then lowest ID.
func beats(candidate, current *Offer, unitPrice decimal.Decimal) bool {
	cp := projectedPrice(unitPrice, candidate)
	bp := projectedPrice(unitPrice, current)
	if !cp.Equal(bp) {
		return cp.LessThan(bp)
	}
	cs, bs := dateOnly(candidate.StartDate), dateOnly(current.StartDate)
	if !cs.Equal(bs) {
		return cs.Before(bs)
	}
	return strings.Compare(candidate.ID, current.ID) < 0
}

// projectedPrice estimates the final unit price an offer would yield, used only
// for ranking. Malformed values are clamped here rather than rejected; the
// calculator is the authority on validation.
func projectedPrice(unitPrice decimal.Decimal, o *Offer) decimal.Decimal {
	var discount decimal.Decimal
	switch o.Kind {
	case KindPercent:
		discount = unitPrice.Mul(o.Value).Div(hundred)
	case KindFixedAmount:
		discount = o.Value
	default:
		return unitPrice
	}
	final := unitPrice.Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}
