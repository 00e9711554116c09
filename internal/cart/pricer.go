package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NbdyKnows/backend-sivi/internal/offer"
	"github.com/NbdyKnows/backend-sivi/internal/pricing"
)

// Price applies offer resolution and discount calculation to every cart line,
// preserving input order. Lines are independent; there are no cross-line bundle
// offers.
//
// A malformed offer downgrades to a Warning and prices its line at full price,
// so one bad offer record never sinks a 50-item sale. A malformed line is fatal
// for the whole run and returns an InvalidLineError.
func Price(lines []Line, offers []offer.Offer, asOf time.Time) ([]PricedLine, []Warning, error) {
	for i, l := range lines {
		if err := l.validate(i); err != nil {
			return nil, nil, err
		}
	}
	priced := make([]PricedLine, 0, len(lines))
	var warnings []Warning
	for i, l := range lines {
		resolved := offer.Resolve(l.ProductID, l.CategoryID, l.UnitPrice, offers, asOf)
		quote, err := pricing.Apply(l.UnitPrice, resolved)
		if err != nil {
			var invalid *pricing.InvalidOfferError
			if !errors.As(err, &invalid) {
				return nil, nil, err
			}
			warnings = append(warnings, Warning{LineIndex: i, OfferID: invalid.OfferID, Message: invalid.Error()})
			priced = append(priced, priceAsIs(l))
			continue
		}
		pl := PricedLine{
			Line:            l,
			DiscountPerUnit: quote.DiscountPerUnit,
			FinalUnitPrice:  quote.FinalUnitPrice,
			LineSubtotal:    quote.FinalUnitPrice.Mul(qtyDecimal(l.Qty)),
		}
		if resolved != nil {
			id := resolved.ID
			pl.AppliedOfferID = &id
		}
		priced = append(priced, pl)
	}
	return priced, warnings, nil
}

// Summarize folds priced lines into a sale summary at the given tax rate.
func Summarize(lines []PricedLine, taxRate decimal.Decimal) pricing.SaleSummary {
	items := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		items = append(items, pricing.Line{Qty: l.Qty, UnitPrice: l.UnitPrice, FinalUnitPrice: l.FinalUnitPrice})
	}
	return pricing.Aggregate(items, taxRate)
}

func priceAsIs(l Line) PricedLine {
	return PricedLine{
		Line:            l,
		DiscountPerUnit: decimal.Zero,
		FinalUnitPrice:  l.UnitPrice,
		LineSubtotal:    l.UnitPrice.Mul(qtyDecimal(l.Qty)),
	}
}

func qtyDecimal(qty int64) decimal.Decimal {
	return decimal.NewFromInt(qty)
}
