package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/NbdyKnows/backend-sivi/internal/offer"
)

var hundred = decimal.NewFromInt(100)

// InvalidOfferError flags malformed offer data: an unknown discount kind, a
// PERCENT value outside (0, 100], or a negative FIXED_AMOUNT. It is a data
// integrity failure, not an expected runtime condition; callers decide whether
// to surface it or fall back to the undiscounted price.
type InvalidOfferError struct {
	OfferID string
	Reason  string
}

func (e *InvalidOfferError) Error() string {
	return fmt.Sprintf("invalid offer %s: %s", e.OfferID, e.Reason)
}

// Quote is the per-unit outcome of applying an offer to a unit price.
type Quote struct {
	DiscountPerUnit decimal.Decimal
	FinalUnitPrice  decimal.Decimal
}

// Apply computes the discounted unit price for a single offer. A nil offer
// yields a zero discount. Values are kept at full precision; rounding to
// currency precision happens once, at aggregation, so fractional-cent discounts
// never compound across large quantities.
func Apply(unitPrice decimal.Decimal, o *offer.Offer) (Quote, error) {
	if o == nil {
		return Quote{DiscountPerUnit: decimal.Zero, FinalUnitPrice: unitPrice}, nil
	}
	var discount decimal.Decimal
	switch o.Kind {
	case offer.KindPercent:
		if !o.Value.IsPositive() || o.Value.GreaterThan(hundred) {
			return Quote{}, &InvalidOfferError{OfferID: o.ID, Reason: fmt.Sprintf("percent value %s outside (0, 100]", o.Value)}
		}
		discount = unitPrice.Mul(o.Value).Div(hundred)
	case offer.KindFixedAmount:
		if o.Value.IsNegative() {
			return Quote{}, &InvalidOfferError{OfferID: o.ID, Reason: fmt.Sprintf("negative fixed amount %s", o.Value)}
		}
		// A fixed discount may never push the final price below zero.
		discount = decimal.Min(o.Value, unitPrice)
	default:
		return Quote{}, &InvalidOfferError{OfferID: o.ID, Reason: fmt.Sprintf("unknown discount kind %q", o.Kind)}
	}
	final := unitPrice.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
		discount = unitPrice
	}
	return Quote{DiscountPerUnit: discount, FinalUnitPrice: final}, nil
}
