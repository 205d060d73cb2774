package profile

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested profile does not exist.
var ErrNotFound = errors.New("profile not found")

// Classification distinguishes retail customers from wholesale dealers.
type Classification string

const (
	// Retail is the default customer classification.
	Retail Classification = "retail"
	// Dealer is the wholesale classification, subject to admin verification.
	Dealer Classification = "dealer"
)

// Valid reports whether c is a known classification.
func (c Classification) Valid() bool {
	return c == Retail || c == Dealer
}

// Profile is a customer account. WalletBalance is authoritative in the
// database; code holding a Profile treats the field as a read-only snapshot.
type Profile struct {
	ID             string
	FullName       string
	Phone          string
	Email          string
	Address        string
	Classification Classification
	BusinessName   string
	GSTNumber      string
	Verified       bool
	ReferralCode   string
	WalletBalance  decimal.Decimal
}

// PricingClass returns the classification used for price resolution.
// Unverified dealers buy at retail prices until an admin verifies them.
func (p *Profile) PricingClass() Classification {
	if p.Classification == Dealer && p.Verified {
		return Dealer
	}
	return Retail
}

// Repository defines persistence operations for customer profiles.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	SetVerified(ctx context.Context, id string, verified bool) error
}
