package order

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gkpcrackers/storefront/internal/domain/cart"
	"github.com/shopspring/decimal"
)

const messageDivider = "━━━━━━━━━━━━━━━━"

// FormatEstimateMessage serializes a cart, customer details, and the
// computed wallet discount into the itemized text block sent over WhatsApp:
// one numbered line per item with quantity, unit price, line total, and
// MRP-vs-sale savings, followed by the subtotal / savings / discount /
// final-total summary.
func FormatEstimateMessage(c *cart.Cart, details CustomerDetails, walletDiscount decimal.Decimal) string {
	var b strings.Builder

	b.WriteString("🎆 *NEW ORDER ESTIMATE*\n\n")
	fmt.Fprintf(&b, "👤 *Customer:* %s\n", strings.TrimSpace(details.Name))
	fmt.Fprintf(&b, "📞 *Phone:* %s\n", strings.TrimSpace(details.Phone))
	fmt.Fprintf(&b, "📍 *Address:* %s\n", strings.TrimSpace(details.Address))
	if notes := strings.TrimSpace(details.Notes); notes != "" {
		fmt.Fprintf(&b, "📝 *Notes:* %s\n", notes)
	}
	b.WriteString("\n" + messageDivider + "\n")
	b.WriteString("📦 *ORDER DETAILS:*\n\n")

	for i, li := range c.Items {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, li.Name, li.ProductCode)
		fmt.Fprintf(&b, "   Qty: %d × ₹%s = ₹%s\n", li.Quantity, money(li.UnitPrice), money(li.LineTotal()))
		if savings := li.LineSavings(); savings.IsPositive() {
			fmt.Fprintf(&b, "   You save: ₹%s off MRP\n", money(savings))
		}
		b.WriteString("\n")
	}

	b.WriteString(messageDivider + "\n")
	fmt.Fprintf(&b, "📊 *TOTAL ITEMS:* %d\n", c.TotalItems())
	fmt.Fprintf(&b, "💰 *SUBTOTAL:* ₹%s\n", money(c.TotalAmount()))
	if savings := c.TotalSavings(); savings.IsPositive() {
		fmt.Fprintf(&b, "🏷 *TOTAL SAVINGS:* ₹%s\n", money(savings))
	}
	if walletDiscount.IsPositive() {
		fmt.Fprintf(&b, "👛 *WALLET DISCOUNT:* -₹%s\n", money(walletDiscount))
	}
	fmt.Fprintf(&b, "✅ *FINAL TOTAL:* ₹%s\n\n", money(c.TotalAmount().Sub(walletDiscount)))
	b.WriteString("⚠️ _This is an estimate. Final price may vary._")

	return b.String()
}

// WhatsAppLink builds a wa.me deep link that opens a chat with the store
// number pre-filled with the given message.
func WhatsAppLink(storeNumber, message string) string {
	return "https://wa.me/" + digitsOnly(storeNumber) + "?text=" + url.QueryEscape(message)
}

// money renders a decimal with two fraction digits.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// digitsOnly strips everything but digits from a phone number, the format
// wa.me expects.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
