package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"OFFER_SOURCE":     "",
		"OFFER_SOURCE_URL": "http://offers.local",
		"TAX_RATE":         "",
		"CURRENCY":         "",
		"PORT":             "",
		"DATABASE_URL":     "",
		"REDIS_URL":        "",
	})
	require.NoError(t, err)
	require.Equal(t, OfferSourceHTTP, cfg.OfferSource)
	require.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.18")))
	require.Equal(t, "PEN", cfg.Currency)
	require.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadRequiresSourceConfig(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"OFFER_SOURCE":     "http",
		"OFFER_SOURCE_URL": "",
	})
	require.Error(t, err)

	_, err = LoadForTests(map[string]string{
		"OFFER_SOURCE": "postgres",
		"DATABASE_URL": "",
	})
	require.Error(t, err)

	_, err = LoadForTests(map[string]string{
		"OFFER_SOURCE": "carrier-pigeon",
	})
	require.Error(t, err)
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	for _, rate := range []string{"1.5", "-0.1", "dieciocho"} {
		_, err := LoadForTests(map[string]string{
			"OFFER_SOURCE_URL": "http://offers.local",
			"TAX_RATE":         rate,
		})
		require.Error(t, err, "tax rate %s must be rejected", rate)
	}
}
