package pricing

import "github.com/shopspring/decimal"

// Line is a priced line reduced to what aggregation needs.
type Line struct {
	Qty            int64
	UnitPrice      decimal.Decimal
	FinalUnitPrice decimal.Decimal
}

// SaleSummary aggregates priced lines into the receipt figures, every field
// rounded to 2 decimals.
type SaleSummary struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	TaxableBase   decimal.Decimal `json:"taxableBase"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

// Aggregate folds priced lines into a sale summary. Sums run at full precision
// and are rounded exactly once here; taxable base, tax and total derive from the
// rounded subtotal and discount so that Total == Subtotal - DiscountTotal + Tax
// holds to the cent on every receipt.
func Aggregate(lines []Line, taxRate decimal.Decimal) SaleSummary {
	var subtotal, discount decimal.Decimal
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		qty := decimal.NewFromInt(l.Qty)
		subtotal = subtotal.Add(l.UnitPrice.Mul(qty))
		discount = discount.Add(l.UnitPrice.Sub(l.FinalUnitPrice).Mul(qty))
	}
	roundedSubtotal := round2(subtotal)
	roundedDiscount := round2(discount)
	base := roundedSubtotal.Sub(roundedDiscount)
	tax := round2(base.Mul(taxRate))
	return SaleSummary{
		Subtotal:      roundedSubtotal,
		DiscountTotal: roundedDiscount,
		TaxableBase:   base,
		Tax:           tax,
		Total:         base.Add(tax),
	}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
