// Package cart holds the in-session list of line items and its derived
// totals. A Cart is a plain value: every aggregate is computed on read from
// the current items, never stored alongside them where it could drift.
package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// LineItem is one row of the cart. UnitPrice and MRP are frozen at add
// time; a later classification change does not re-price committed lines.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Name        string          `json:"name"`
	ImageURL    string          `json:"image_url,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	MRP         decimal.Decimal `json:"mrp"`
	Quantity    int             `json:"quantity"`
}

// LineTotal returns UnitPrice * Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineSavings returns (MRP - UnitPrice) * Quantity.
func (li LineItem) LineSavings() decimal.Decimal {
	return li.MRP.Sub(li.UnitPrice).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is an ordered collection of line items. The zero value is an empty,
// usable cart. Every stored line has Quantity >= 1: mutations that would
// leave a non-positive quantity remove the line instead.
type Cart struct {
	Items []LineItem `json:"items"`
}

// AddItem appends item with the given quantity, or accumulates the quantity
// onto an existing line for the same product. A non-positive qty defaults
// to 1. No stock ceiling is enforced here.
func (c *Cart) AddItem(item LineItem, qty int) {
	if qty <= 0 {
		qty = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += qty
			return
		}
	}
	item.Quantity = qty
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets (not increments) the quantity of the line matching
// productID. A quantity of zero or less removes the line. Unknown ids are
// a no-op.
func (c *Cart) UpdateQuantity(productID string, qty int) {
	if qty <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return
		}
	}
}

// RemoveItem drops the line matching productID; no-op if absent.
func (c *Cart) RemoveItem(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalItems returns the sum of all line quantities. Zero on an empty cart.
func (c *Cart) TotalItems() int {
	total := 0
	for _, li := range c.Items {
		total += li.Quantity
	}
	return total
}

// TotalAmount returns the sum of unit price * quantity across all lines.
func (c *Cart) TotalAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.Items {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}

// TotalMRP returns the sum of MRP * quantity across all lines.
func (c *Cart) TotalMRP() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.Items {
		sum = sum.Add(li.MRP.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return sum
}

// TotalSavings returns TotalMRP - TotalAmount.
func (c *Cart) TotalSavings() decimal.Decimal {
	return c.TotalMRP().Sub(c.TotalAmount())
}

// Store persists carts keyed by an opaque session identifier. A session's
// cart is written in full after every mutation; loading a missing or
// unreadable cart yields an empty one rather than an error, so a corrupt
// blob costs the shopper their cart, never their session.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Clear(ctx context.Context, sessionID string) error
}
