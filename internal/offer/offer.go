package offer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scope describes how broadly an offer applies.
type Scope string

const (
	// ScopeProduct targets a single product.
	ScopeProduct Scope = "PRODUCT"
	// ScopeCategory targets every product in a category.
	ScopeCategory Scope = "CATEGORY"
	// ScopeGeneral applies to every product in the store.
	ScopeGeneral Scope = "GENERAL"
)

// Kind describes how the discount value is interpreted.
type Kind string

const (
	// KindPercent discounts a percentage of the unit price, value in (0, 100].
	KindPercent Kind = "PERCENT"
	// KindFixedAmount discounts a fixed amount per unit, capped at the unit price.
	KindFixedAmount Kind = "FIXED_AMOUNT"
)

// Offer is a promotional rule reducing a product's price inside a validity window.
// Offers are read-only inputs here; their lifecycle lives in the offer-storage
// collaborator.
type Offer struct {
	ID        string          `json:"id"`
	Scope     Scope           `json:"scope"`
	TargetID  string          `json:"targetId,omitempty"`
	Kind      Kind            `json:"kind"`
	Value     decimal.Decimal `json:"value"`
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
	Active    bool            `json:"active"`
}

// ValidOn reports whether the offer is active and its window contains the given
// instant. The window is inclusive on both ends at day granularity, so an offer
// with StartDate == EndDate == today is valid today.
func (o Offer) ValidOn(asOf time.Time) bool {
	if !o.Active {
		return false
	}
	day := dateOnly(asOf)
	return !day.Before(dateOnly(o.StartDate)) && !day.After(dateOnly(o.EndDate))
}

// Matches reports whether the offer's scope covers the given product/category pair.
func (o Offer) Matches(productID, categoryID string) bool {
	switch o.Scope {
	case ScopeProduct:
		return o.TargetID == productID
	case ScopeCategory:
		return o.TargetID == categoryID
	case ScopeGeneral:
		return true
	default:
		return false
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
