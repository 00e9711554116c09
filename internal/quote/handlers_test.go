package quote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/NbdyKnows/backend-sivi/internal/cart"
	"github.com/NbdyKnows/backend-sivi/internal/catalog"
	"github.com/NbdyKnows/backend-sivi/internal/offer"
	"github.com/NbdyKnows/backend-sivi/internal/pricing"
	"github.com/NbdyKnows/backend-sivi/internal/quote"
)

var saleDay = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type quotePayload struct {
	Data struct {
		Lines    []cart.PricedLine   `json:"lines"`
		Warnings []cart.Warning      `json:"warnings"`
		Summary  pricing.SaleSummary `json:"summary"`
		Currency string              `json:"currency"`
		AsOf     string              `json:"asOf"`
	} `json:"data"`
}

type errorPayload struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newHandler(offers []offer.Offer) *quote.Handler {
	return &quote.Handler{
		Offers:   offer.StaticSource(offers),
		TaxRate:  d("0.18"),
		Currency: "PEN",
		Now:      func() time.Time { return saleDay },
	}
}

func postQuote(t *testing.T, h *quote.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Quote(rec, req)
	return rec
}

func TestQuoteEndToEnd(t *testing.T) {
	h := newHandler([]offer.Offer{{
		ID:        "of-bebidas",
		Scope:     offer.ScopeCategory,
		TargetID:  "bebidas",
		Kind:      offer.KindPercent,
		Value:     d("10"),
		StartDate: saleDay.AddDate(0, 0, -1),
		EndDate:   saleDay.AddDate(0, 0, 1),
		Active:    true,
	}})

	rec := postQuote(t, h, `{"lines":[{"productId":"prod-a","categoryId":"bebidas","qty":2,"unitPrice":"3.50"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp quotePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Lines, 1)
	require.Empty(t, resp.Data.Warnings)
	require.Equal(t, "PEN", resp.Data.Currency)
	require.Equal(t, "2025-06-15", resp.Data.AsOf)

	line := resp.Data.Lines[0]
	require.NotNil(t, line.AppliedOfferID)
	require.Equal(t, "of-bebidas", *line.AppliedOfferID)
	require.True(t, line.DiscountPerUnit.Equal(d("0.35")), "discountPerUnit %s", line.DiscountPerUnit)
	require.True(t, line.FinalUnitPrice.Equal(d("3.15")))
	require.True(t, line.LineSubtotal.Equal(d("6.30")))

	sum := resp.Data.Summary
	require.True(t, sum.Subtotal.Equal(d("7.00")))
	require.True(t, sum.DiscountTotal.Equal(d("0.70")))
	require.True(t, sum.TaxableBase.Equal(d("6.30")))
	require.True(t, sum.Tax.Equal(d("1.13")))
	require.True(t, sum.Total.Equal(d("7.43")))
}

func TestQuoteAsOfControlsValidity(t *testing.T) {
	h := newHandler([]offer.Offer{{
		ID:        "of-single-day",
		Scope:     offer.ScopeGeneral,
		Kind:      offer.KindPercent,
		Value:     d("50"),
		StartDate: saleDay,
		EndDate:   saleDay,
		Active:    true,
	}})
	body := `{"asOf":"%s","lines":[{"productId":"p1","categoryId":"c1","qty":1,"unitPrice":"10.00"}]}`

	rec := postQuote(t, h, strings.Replace(body, "%s", "2025-06-15", 1))
	var resp quotePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.Lines[0].AppliedOfferID)

	rec = postQuote(t, h, strings.Replace(body, "%s", "2025-06-16", 1))
	resp = quotePayload{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp.Data.Lines[0].AppliedOfferID)
}

func TestQuoteValidation(t *testing.T) {
	h := newHandler(nil)

	rec := postQuote(t, h, `{"lines":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postQuote(t, h, `{"lines":[{"categoryId":"c1","qty":1,"unitPrice":"1.00"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp errorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "VALIDATION", errResp.Error.Code)

	rec = postQuote(t, h, `{"asOf":"next tuesday","lines":[{"productId":"p1","categoryId":"c1","qty":1,"unitPrice":"1.00"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postQuote(t, h, `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteInvalidLineRejected(t *testing.T) {
	h := newHandler(nil)
	rec := postQuote(t, h, `{"lines":[{"productId":"p1","categoryId":"c1","qty":1,"unitPrice":"-1.00"}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errResp errorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "INVALID_CART_LINE", errResp.Error.Code)
	require.Contains(t, string(errResp.Error.Details), `"lineIndex":0`)
}

func TestQuoteMalformedOfferProducesWarning(t *testing.T) {
	h := newHandler([]offer.Offer{{
		ID:        "of-bad",
		Scope:     offer.ScopeProduct,
		TargetID:  "p2",
		Kind:      offer.KindPercent,
		Value:     d("150"),
		StartDate: saleDay.AddDate(0, 0, -1),
		EndDate:   saleDay.AddDate(0, 0, 1),
		Active:    true,
	}})
	rec := postQuote(t, h, `{"lines":[
		{"productId":"p1","categoryId":"c1","qty":1,"unitPrice":"10.00"},
		{"productId":"p2","categoryId":"c2","qty":1,"unitPrice":"10.00"},
		{"productId":"p3","categoryId":"c3","qty":1,"unitPrice":"10.00"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp quotePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Lines, 3)
	require.Len(t, resp.Data.Warnings, 1)
	require.Equal(t, 1, resp.Data.Warnings[0].LineIndex)
	require.Equal(t, "of-bad", resp.Data.Warnings[0].OfferID)
	require.True(t, resp.Data.Lines[1].FinalUnitPrice.Equal(d("10.00")))
}

type failingSource struct{}

func (failingSource) Snapshot(context.Context) ([]offer.Offer, error) {
	return nil, errors.New("upstream down")
}

func TestQuoteSnapshotFailure(t *testing.T) {
	h := newHandler(nil)
	h.Offers = failingSource{}
	rec := postQuote(t, h, `{"lines":[{"productId":"p1","categoryId":"c1","qty":1,"unitPrice":"1.00"}]}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubStore struct{ products map[string]catalog.Product }

func (s stubStore) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func TestQuoteEnrichesBareLinesFromCatalog(t *testing.T) {
	h := newHandler(nil)
	h.Catalog = &catalog.Service{Store: stubStore{products: map[string]catalog.Product{
		"prod-a": {ID: "prod-a", CategoryID: "bebidas", Name: "Inca Kola 500ml", Price: d("3.50")},
	}}}

	rec := postQuote(t, h, `{"lines":[{"productId":"prod-a","qty":2}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp quotePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	line := resp.Data.Lines[0]
	require.Equal(t, "bebidas", line.CategoryID)
	require.True(t, line.UnitPrice.Equal(d("3.50")))

	rec = postQuote(t, h, `{"lines":[{"productId":"prod-missing","qty":1}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQuoteWithoutCatalogRequiresDenormalizedLines(t *testing.T) {
	h := newHandler(nil)
	rec := postQuote(t, h, `{"lines":[{"productId":"prod-a","qty":1}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
