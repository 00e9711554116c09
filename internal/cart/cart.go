package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Line is one cart entry. CategoryID and UnitPrice are denormalized snapshots
// taken when the cart was built; a later catalog price change does not affect
// an open sale.
type Line struct {
	ProductID  string          `json:"productId"`
	CategoryID string          `json:"categoryId"`
	Qty        int64           `json:"qty"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// PricedLine is a cart line augmented with its resolved discount.
type PricedLine struct {
	Line
	AppliedOfferID  *string         `json:"appliedOfferId"`
	DiscountPerUnit decimal.Decimal `json:"discountPerUnit"`
	FinalUnitPrice  decimal.Decimal `json:"finalUnitPrice"`
	LineSubtotal    decimal.Decimal `json:"lineSubtotal"`
}

// InvalidLineError marks a cart line that cannot be safely priced or sold.
// It aborts the whole pricing run.
type InvalidLineError struct {
	LineIndex int
	Reason    string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("cart line %d: %s", e.LineIndex, e.Reason)
}

// Warning reports a non-fatal per-line problem, such as a malformed offer that
// was ignored. The line it references was priced at full price.
type Warning struct {
	LineIndex int    `json:"lineIndex"`
	OfferID   string `json:"offerId,omitempty"`
	Message   string `json:"message"`
}

func (l Line) validate(index int) error {
	if l.ProductID == "" {
		return &InvalidLineError{LineIndex: index, Reason: "missing product reference"}
	}
	if l.CategoryID == "" {
		return &InvalidLineError{LineIndex: index, Reason: "missing category reference"}
	}
	if l.Qty < 1 {
		return &InvalidLineError{LineIndex: index, Reason: fmt.Sprintf("non-positive quantity %d", l.Qty)}
	}
	if l.UnitPrice.IsNegative() {
		return &InvalidLineError{LineIndex: index, Reason: fmt.Sprintf("negative unit price %s", l.UnitPrice)}
	}
	return nil
}
