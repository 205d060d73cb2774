// Package pricing resolves the unit price a caller pays for a catalog item.
//
// There is no tiered or quantity-based discounting: the price is a flat
// lookup keyed by the caller's classification. The resolver runs at
// catalog-browsing and add-to-cart time; once a line item is committed to
// the cart its unit price is frozen and never re-resolved.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gkpcrackers/storefront/internal/domain/catalog"
	"github.com/gkpcrackers/storefront/internal/domain/profile"
)

// UnitPrice returns the price of p for the given classification: dealers
// get the wholesale price, everyone else the retail price.
func UnitPrice(p catalog.Product, class profile.Classification) decimal.Decimal {
	if class == profile.Dealer {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

// ForProfile resolves the unit price for a (possibly anonymous) caller.
// A nil profile prices as retail, as does an unverified dealer.
func ForProfile(p catalog.Product, prof *profile.Profile) decimal.Decimal {
	if prof == nil {
		return p.RetailPrice
	}
	return UnitPrice(p, prof.PricingClass())
}
