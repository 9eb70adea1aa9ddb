// Package pricing holds the service price table and quote arithmetic.
// All amounts are integer cents; conversion to dollars happens only at the
// edges (storage and display).
package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSelection is returned for unknown package, size or add-on keys.
// An unknown key is never priced as zero.
var ErrInvalidSelection = errors.New("invalid package/size selection")

// Addon is a fixed-price extra service.
type Addon struct {
	Key        string
	Name       string
	PriceCents int64
}

// Catalog is an immutable package × vehicle-size price matrix plus the
// add-on list and tax rate. Construct one with NewCatalog or DefaultCatalog
// and inject it; there is no package-level mutable state.
type Catalog struct {
	packages  map[string]map[string]int64
	addons    map[string]Addon
	taxRateBP int64 // basis points, e.g. 1300 = 13% HST
	currency  string
}

// Quote is a priced booking: subtotal, tax and total in cents.
type Quote struct {
	PackageCents  int64
	AddonsCents   int64
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	Currency      string
	AddonNames    []string
}

// TotalDollars returns the total as dollars with cent precision.
func (q Quote) TotalDollars() float64 {
	return float64(q.TotalCents) / 100
}

// AddonsLabel returns the human-readable add-on list for storage/display.
func (q Quote) AddonsLabel() string {
	return strings.Join(q.AddonNames, ", ")
}

// NewCatalog builds a catalog from explicit tables. taxRateBP is the tax
// rate in basis points (1300 = 13%).
func NewCatalog(packages map[string]map[string]int64, addons []Addon, taxRateBP int64, currency string) *Catalog {
	pk := make(map[string]map[string]int64, len(packages))
	for name, sizes := range packages {
		cp := make(map[string]int64, len(sizes))
		for k, v := range sizes {
			cp[k] = v
		}
		pk[name] = cp
	}

	ad := make(map[string]Addon, len(addons))
	for _, a := range addons {
		ad[a.Key] = a
	}

	return &Catalog{packages: pk, addons: ad, taxRateBP: taxRateBP, currency: currency}
}

// DefaultCatalog returns the production price table: three packages across
// three vehicle sizes, fixed-price add-ons, 13% HST, CAD.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		map[string]map[string]int64{
			"select":    {"small": 8999, "medium": 10999, "large": 12499},
			"signature": {"small": 13499, "medium": 16499, "large": 18299},
			"showroom":  {"small": 24999, "medium": 29999, "large": 33999},
		},
		[]Addon{
			{Key: "interior_rescent", Name: "Interior Re-Scent", PriceCents: 2500},
			{Key: "smoke_odor", Name: "Smoke/Odor Removal", PriceCents: 6000},
			{Key: "cabin_filter_clean", Name: "Cabin Filter Clean", PriceCents: 500},
			{Key: "engine_filter_clean", Name: "Engine Filter Clean", PriceCents: 1000},
			{Key: "windshield_wax", Name: "Windshield Wax", PriceCents: 2000},
			{Key: "bug_tar", Name: "Bug & Tar Removal", PriceCents: 3000},
			{Key: "tire_air", Name: "Tire Air Top-Up", PriceCents: 500},
			{Key: "engine_bay_clean", Name: "Engine Bay Clean", PriceCents: 5000},
		},
		1300,
		"CAD",
	)
}

// PriceFor returns the package price in cents for a package/size pair.
func (c *Catalog) PriceFor(packageKey, sizeKey string) (int64, error) {
	sizes, ok := c.packages[packageKey]
	if !ok {
		return 0, fmt.Errorf("%w: unknown package %q", ErrInvalidSelection, packageKey)
	}
	price, ok := sizes[sizeKey]
	if !ok {
		return 0, fmt.Errorf("%w: unknown vehicle size %q", ErrInvalidSelection, sizeKey)
	}
	return price, nil
}

// AddonPrice returns the price in cents for an add-on key.
func (c *Catalog) AddonPrice(key string) (int64, error) {
	a, ok := c.addons[key]
	if !ok {
		return 0, fmt.Errorf("%w: unknown add-on %q", ErrInvalidSelection, key)
	}
	return a.PriceCents, nil
}

// Quote prices a booking from catalog keys. Tax rounds half-up to the cent.
func (c *Catalog) Quote(packageKey, sizeKey string, addonKeys []string) (Quote, error) {
	base, err := c.PriceFor(packageKey, sizeKey)
	if err != nil {
		return Quote{}, err
	}

	var addonsTotal int64
	names := make([]string, 0, len(addonKeys))
	for _, key := range addonKeys {
		a, ok := c.addons[key]
		if !ok {
			return Quote{}, fmt.Errorf("%w: unknown add-on %q", ErrInvalidSelection, key)
		}
		addonsTotal += a.PriceCents
		names = append(names, a.Name)
	}

	subtotal := base + addonsTotal
	tax := (subtotal*c.taxRateBP + 5000) / 10000

	return Quote{
		PackageCents:  base,
		AddonsCents:   addonsTotal,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
		Currency:      c.currency,
		AddonNames:    names,
	}, nil
}
