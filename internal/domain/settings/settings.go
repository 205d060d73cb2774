// Package settings holds the site-wide configuration bag. Every field is
// enumerated and validated individually rather than carried as an open
// dictionary; persistence is one key/value row per field so the admin panel
// can upsert fields independently.
package settings

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Settings is the full site configuration. The zero value is not useful;
// call Defaults for a valid starting point.
type Settings struct {
	StoreName     string `json:"store_name"`
	StoreTagline  string `json:"store_tagline"`
	StoreEmail    string `json:"store_email"`
	StorePhone    string `json:"store_phone"`
	StoreWhatsApp string `json:"store_whatsapp"`
	StoreAddress  string `json:"store_address"`
	StoreTimings  string `json:"store_timings"`

	// Minimum order values are classification-specific floors below which
	// order submission is blocked.
	MinOrderValue       decimal.Decimal `json:"min_order_value"`
	MinOrderValueDealer decimal.Decimal `json:"min_order_value_dealer"`

	DeliveryCharge    decimal.Decimal `json:"delivery_charge"`
	FreeDeliveryAbove decimal.Decimal `json:"free_delivery_above"`

	// Referral bonuses credited to referrer and referred user on claim.
	ReferralBonus         decimal.Decimal `json:"referral_bonus"`
	ReferralBonusReferred decimal.Decimal `json:"referral_bonus_referred"`

	EnableNotifications bool `json:"enable_notifications"`
	EnableReferrals     bool `json:"enable_referrals"`
	EnableWallet        bool `json:"enable_wallet"`
	MaintenanceMode     bool `json:"maintenance_mode"`
}

// Defaults returns the settings used before an admin has saved anything.
func Defaults() Settings {
	return Settings{
		StoreName:             "GKP Crackers",
		StoreTagline:          "Premium Crackers at Best Prices",
		StoreEmail:            "info@gkpcrackers.com",
		StorePhone:            "+91 98765 43210",
		StoreWhatsApp:         "+91 98765 43210",
		StoreAddress:          "123 Main Street, Chennai, Tamil Nadu 600001",
		StoreTimings:          "9:00 AM - 9:00 PM",
		MinOrderValue:         decimal.NewFromInt(500),
		MinOrderValueDealer:   decimal.NewFromInt(1000),
		DeliveryCharge:        decimal.NewFromInt(50),
		FreeDeliveryAbove:     decimal.NewFromInt(2000),
		ReferralBonus:         decimal.NewFromInt(50),
		ReferralBonusReferred: decimal.NewFromInt(25),
		EnableNotifications:   true,
		EnableReferrals:       true,
		EnableWallet:          true,
	}
}

// FieldError reports which settings field failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "invalid setting " + e.Field + ": " + e.Reason
}

// Validate checks every field independently and returns the first failure.
func (s *Settings) Validate() error {
	if s.StoreName == "" {
		return &FieldError{Field: "store_name", Reason: "must not be empty"}
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"min_order_value", s.MinOrderValue},
		{"min_order_value_dealer", s.MinOrderValueDealer},
		{"delivery_charge", s.DeliveryCharge},
		{"free_delivery_above", s.FreeDeliveryAbove},
		{"referral_bonus", s.ReferralBonus},
		{"referral_bonus_referred", s.ReferralBonusReferred},
	} {
		if f.value.IsNegative() {
			return &FieldError{Field: f.name, Reason: "must not be negative"}
		}
	}
	return nil
}

// MinOrderFor returns the minimum-order threshold applicable to the given
// pricing classification. Callers pass the resolved class ("retail" unless
// a verified dealer), so unverified dealers get the retail floor.
func (s *Settings) MinOrderFor(dealer bool) decimal.Decimal {
	if dealer {
		return s.MinOrderValueDealer
	}
	return s.MinOrderValue
}

// ErrUnknownKey is returned when loading encounters a key that maps to no
// known settings field. Unknown keys are skipped, not fatal; the sentinel
// exists for tests and tooling.
var ErrUnknownKey = errors.New("unknown settings key")

// Repository persists settings as individual key/value rows.
type Repository interface {
	// Load materializes all stored rows over Defaults; missing rows keep
	// their default values.
	Load(ctx context.Context) (*Settings, error)
	// Save upserts every field as its own row.
	Save(ctx context.Context, s *Settings) error
}
