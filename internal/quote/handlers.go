package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/NbdyKnows/backend-sivi/internal/cart"
	"github.com/NbdyKnows/backend-sivi/internal/catalog"
	"github.com/NbdyKnows/backend-sivi/internal/common"
	"github.com/NbdyKnows/backend-sivi/internal/obs"
	"github.com/NbdyKnows/backend-sivi/internal/offer"
	"github.com/NbdyKnows/backend-sivi/internal/pricing"
)

var validate = validator.New()

// Handler prices carts over HTTP. The engine underneath is pure; the handler
// owns snapshot acquisition, catalog enrichment and the clock.
type Handler struct {
	Offers   offer.Source
	Catalog  *catalog.Service
	TaxRate  decimal.Decimal
	Currency string
	Now      func() time.Time
}

type lineRequest struct {
	ProductID  string           `json:"productId" validate:"required"`
	CategoryID string           `json:"categoryId"`
	Qty        int64            `json:"qty" validate:"required,gte=1"`
	UnitPrice  *decimal.Decimal `json:"unitPrice"`
}

type quoteRequest struct {
	AsOf  string        `json:"asOf"`
	Lines []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type quoteResponse struct {
	Lines    []cart.PricedLine   `json:"lines"`
	Warnings []cart.Warning      `json:"warnings"`
	Summary  pricing.SaleSummary `json:"summary"`
	Currency string              `json:"currency"`
	AsOf     string              `json:"asOf"`
}

// Quote prices the submitted cart against the current offer snapshot and
// returns priced lines plus the receipt summary.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Offers == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "offer source not configured", nil)
		return
	}
	var payload quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid quote request", validationDetails(err))
		return
	}
	asOf, err := h.parseAsOf(payload.AsOf)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", fmt.Sprintf("invalid asOf: %v", err), nil)
		return
	}

	lines, err := h.buildLines(r, payload.Lines)
	if err != nil {
		h.writeError(w, err)
		countQuote("rejected")
		return
	}

	offers, err := h.Offers.Snapshot(r.Context())
	if err != nil {
		countSnapshot("error")
		common.JSONError(w, http.StatusServiceUnavailable, "OFFER_SOURCE_UNAVAILABLE", "unable to load offer snapshot", nil)
		countQuote("error")
		return
	}
	countSnapshot("ok")

	priced, warnings, err := cart.Price(lines, offers, asOf)
	if err != nil {
		h.writeError(w, err)
		countQuote("rejected")
		return
	}
	summary := cart.Summarize(priced, h.TaxRate)

	recordLineMetrics(priced, warnings)
	countQuote("ok")

	if warnings == nil {
		warnings = []cart.Warning{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": quoteResponse{
			Lines:    priced,
			Warnings: warnings,
			Summary:  summary,
			Currency: h.Currency,
			AsOf:     asOf.UTC().Format("2006-01-02"),
		},
	})
}

func (h *Handler) buildLines(r *http.Request, reqs []lineRequest) ([]cart.Line, error) {
	lines := make([]cart.Line, 0, len(reqs))
	for i, lr := range reqs {
		if lr.CategoryID != "" && lr.UnitPrice != nil {
			lines = append(lines, cart.Line{
				ProductID:  lr.ProductID,
				CategoryID: lr.CategoryID,
				Qty:        lr.Qty,
				UnitPrice:  *lr.UnitPrice,
			})
			continue
		}
		if h.Catalog == nil {
			return nil, &cart.InvalidLineError{LineIndex: i, Reason: "categoryId and unitPrice are required without a catalog"}
		}
		line, err := h.Catalog.BuildLine(r.Context(), lr.ProductID, lr.Qty)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, &cart.InvalidLineError{LineIndex: i, Reason: fmt.Sprintf("unknown product %s", lr.ProductID)}
			}
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var invalidLine *cart.InvalidLineError
	if errors.As(err, &invalidLine) {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_CART_LINE", invalidLine.Error(), map[string]any{
			"lineIndex": invalidLine.LineIndex,
		})
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to price cart", nil)
}

func (h *Handler) parseAsOf(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if h.Now != nil {
			return h.Now(), nil
		}
		return time.Now(), nil
	}
	if t, err := time.Parse("2006-01-02", trimmed); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, trimmed)
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, map[string]string{
			"field": fe.Namespace(),
			"rule":  fe.Tag(),
		})
	}
	return fields
}

func countQuote(result string) {
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(result).Inc()
	}
}

func countSnapshot(result string) {
	if obs.OfferSnapshotFetches != nil {
		obs.OfferSnapshotFetches.WithLabelValues(result).Inc()
	}
}

func recordLineMetrics(priced []cart.PricedLine, warnings []cart.Warning) {
	if obs.QuoteLinesPriced != nil {
		for _, pl := range priced {
			discounted := "false"
			if pl.AppliedOfferID != nil {
				discounted = "true"
			}
			obs.QuoteLinesPriced.WithLabelValues(discounted).Inc()
		}
	}
	if obs.InvalidOffersSkipped != nil {
		for range warnings {
			obs.InvalidOffersSkipped.Inc()
		}
	}
}
