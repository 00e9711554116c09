package cart

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NbdyKnows/backend-sivi/internal/offer"
)

var saleDay = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validOffer(id string, scope offer.Scope, target string, kind offer.Kind, value string) offer.Offer {
	return offer.Offer{
		ID:        id,
		Scope:     scope,
		TargetID:  target,
		Kind:      kind,
		Value:     d(value),
		StartDate: saleDay.AddDate(0, 0, -7),
		EndDate:   saleDay.AddDate(0, 0, 7),
		Active:    true,
	}
}

func TestPriceCategoryOfferEndToEnd(t *testing.T) {
	lines := []Line{{ProductID: "prod-a", CategoryID: "bebidas", Qty: 2, UnitPrice: d("3.50")}}
	offers := []offer.Offer{validOffer("of-bebidas", offer.ScopeCategory, "bebidas", offer.KindPercent, "10")}

	priced, warnings, err := Price(lines, offers, saleDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(priced) != 1 {
		t.Fatalf("expected 1 priced line, got %d", len(priced))
	}
	pl := priced[0]
	if pl.AppliedOfferID == nil || *pl.AppliedOfferID != "of-bebidas" {
		t.Fatalf("expected applied offer of-bebidas, got %v", pl.AppliedOfferID)
	}
	if !pl.DiscountPerUnit.Equal(d("0.35")) {
		t.Fatalf("discountPerUnit: want 0.35, got %s", pl.DiscountPerUnit)
	}
	if !pl.FinalUnitPrice.Equal(d("3.15")) {
		t.Fatalf("finalUnitPrice: want 3.15, got %s", pl.FinalUnitPrice)
	}
	if !pl.LineSubtotal.Equal(d("6.30")) {
		t.Fatalf("lineSubtotal: want 6.30, got %s", pl.LineSubtotal)
	}

	sum := Summarize(priced, d("0.18"))
	if !sum.Subtotal.Equal(d("7.00")) || !sum.DiscountTotal.Equal(d("0.70")) {
		t.Fatalf("summary sums wrong: %+v", sum)
	}
	if !sum.Tax.Equal(d("1.13")) || !sum.Total.Equal(d("7.43")) {
		t.Fatalf("summary tax/total wrong: %+v", sum)
	}
}

func TestPriceNoMatchingOffer(t *testing.T) {
	lines := []Line{{ProductID: "prod-a", CategoryID: "abarrotes", Qty: 3, UnitPrice: d("2.10")}}
	offers := []offer.Offer{validOffer("of-bebidas", offer.ScopeCategory, "bebidas", offer.KindPercent, "10")}

	priced, warnings, err := Price(lines, offers, saleDay)
	if err != nil || len(warnings) != 0 {
		t.Fatalf("unexpected err/warnings: %v %+v", err, warnings)
	}
	pl := priced[0]
	if pl.AppliedOfferID != nil {
		t.Fatalf("expected no applied offer, got %v", *pl.AppliedOfferID)
	}
	if !pl.FinalUnitPrice.Equal(pl.UnitPrice) || !pl.DiscountPerUnit.IsZero() {
		t.Fatalf("line without offers must keep full price: %+v", pl)
	}
}

func TestPriceMalformedOfferIsolatedToItsLine(t *testing.T) {
	lines := []Line{
		{ProductID: "p1", CategoryID: "c1", Qty: 1, UnitPrice: d("10.00")},
		{ProductID: "p2", CategoryID: "c2", Qty: 1, UnitPrice: d("10.00")},
		{ProductID: "p3", CategoryID: "c3", Qty: 1, UnitPrice: d("10.00")},
	}
	offers := []offer.Offer{
		validOffer("of-ok-1", offer.ScopeProduct, "p1", offer.KindPercent, "10"),
		validOffer("of-bad", offer.ScopeProduct, "p2", offer.KindPercent, "150"),
		validOffer("of-ok-3", offer.ScopeProduct, "p3", offer.KindPercent, "20"),
	}

	priced, warnings, err := Price(lines, offers, saleDay)
	if err != nil {
		t.Fatalf("a malformed offer must not abort the run: %v", err)
	}
	if len(priced) != 3 {
		t.Fatalf("expected all 3 lines priced, got %d", len(priced))
	}
	if !priced[0].FinalUnitPrice.Equal(d("9")) || !priced[2].FinalUnitPrice.Equal(d("8")) {
		t.Fatalf("neighbour lines affected: %s %s", priced[0].FinalUnitPrice, priced[2].FinalUnitPrice)
	}
	if !priced[1].FinalUnitPrice.Equal(d("10.00")) || priced[1].AppliedOfferID != nil {
		t.Fatalf("bad-offer line must fall back to full price: %+v", priced[1])
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %+v", warnings)
	}
	if warnings[0].LineIndex != 1 || warnings[0].OfferID != "of-bad" {
		t.Fatalf("warning must reference the offending line and offer: %+v", warnings[0])
	}
}

func TestPriceInvalidLineIsFatal(t *testing.T) {
	cases := []struct {
		name string
		line Line
	}{
		{"zero quantity", Line{ProductID: "p1", CategoryID: "c1", Qty: 0, UnitPrice: d("1.00")}},
		{"missing product", Line{CategoryID: "c1", Qty: 1, UnitPrice: d("1.00")}},
		{"missing category", Line{ProductID: "p1", Qty: 1, UnitPrice: d("1.00")}},
		{"negative price", Line{ProductID: "p1", CategoryID: "c1", Qty: 1, UnitPrice: d("-0.01")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Price([]Line{tc.line}, nil, saleDay)
			var invalid *InvalidLineError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidLineError, got %v", err)
			}
			if invalid.LineIndex != 0 {
				t.Fatalf("error must carry the line index, got %d", invalid.LineIndex)
			}
		})
	}
}

func TestPricePreservesLineOrder(t *testing.T) {
	lines := []Line{
		{ProductID: "p3", CategoryID: "c", Qty: 1, UnitPrice: d("3.00")},
		{ProductID: "p1", CategoryID: "c", Qty: 1, UnitPrice: d("1.00")},
		{ProductID: "p2", CategoryID: "c", Qty: 1, UnitPrice: d("2.00")},
	}
	priced, _, err := Price(lines, nil, saleDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range lines {
		if priced[i].ProductID != lines[i].ProductID {
			t.Fatalf("line order changed at %d: %s", i, priced[i].ProductID)
		}
	}
}
