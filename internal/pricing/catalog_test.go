package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFor(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("Known Pair", func(t *testing.T) {
		price, err := catalog.PriceFor("signature", "medium")
		require.NoError(t, err)
		assert.Equal(t, int64(16499), price)
	})

	t.Run("Unknown Package", func(t *testing.T) {
		_, err := catalog.PriceFor("platinum", "medium")
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("Unknown Size", func(t *testing.T) {
		_, err := catalog.PriceFor("signature", "xl")
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})
}

func TestQuote(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("Signature Medium No Addons", func(t *testing.T) {
		q, err := catalog.Quote("signature", "medium", nil)
		require.NoError(t, err)

		// 164.99 subtotal, 13% HST rounded half-up to the cent.
		assert.Equal(t, int64(16499), q.SubtotalCents)
		assert.Equal(t, int64(2145), q.TaxCents)
		assert.Equal(t, int64(18644), q.TotalCents)
		assert.InDelta(t, 186.44, q.TotalDollars(), 0.001)
		assert.Equal(t, "CAD", q.Currency)
	})

	t.Run("With Addons", func(t *testing.T) {
		q, err := catalog.Quote("select", "small", []string{"bug_tar", "tire_air"})
		require.NoError(t, err)

		assert.Equal(t, int64(8999), q.PackageCents)
		assert.Equal(t, int64(3500), q.AddonsCents)
		assert.Equal(t, int64(12499), q.SubtotalCents)
		assert.Equal(t, "Bug & Tar Removal, Tire Air Top-Up", q.AddonsLabel())
	})

	t.Run("Unknown Addon", func(t *testing.T) {
		_, err := catalog.Quote("select", "small", []string{"gold_plating"})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})
}

func TestAddonPrice(t *testing.T) {
	catalog := DefaultCatalog()

	price, err := catalog.AddonPrice("smoke_odor")
	require.NoError(t, err)
	assert.Equal(t, int64(6000), price)

	_, err = catalog.AddonPrice("unknown")
	assert.ErrorIs(t, err, ErrInvalidSelection)
}
