package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts quote requests by outcome.
	QuoteTotal *prometheus.CounterVec
	// QuoteLinesPriced counts cart lines priced, split by whether an offer applied.
	QuoteLinesPriced *prometheus.CounterVec
	// InvalidOffersSkipped counts malformed offers ignored during pricing.
	InvalidOffersSkipped prometheus.Counter
	// OfferSnapshotFetches counts snapshot loads by source and outcome.
	OfferSnapshotFetches *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of quote requests by outcome.",
		}, []string{"result"})
		QuoteLinesPriced = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_lines_priced_total",
			Help:      "Count of cart lines priced, by whether an offer applied.",
		}, []string{"discounted"})
		InvalidOffersSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_offers_skipped_total",
			Help:      "Number of malformed offers ignored during pricing.",
		})
		OfferSnapshotFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offer_snapshot_fetch_total",
			Help:      "Count of offer snapshot loads by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteLinesPriced, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteLinesPriced = v
			}
		})
		mustRegisterCollector(reg, InvalidOffersSkipped, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				InvalidOffersSkipped = v
			}
		})
		mustRegisterCollector(reg, OfferSnapshotFetches, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OfferSnapshotFetches = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
