// Package referral models the refer-a-friend program: a record links a
// referrer to a referred signup and carries a bonus that is released into
// both wallets when claimed.
package referral

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for referral operations.
var (
	ErrNotFound       = errors.New("referral not found")
	ErrAlreadyClaimed = errors.New("referral already claimed")
)

// Referral links a referrer to a referred user.
type Referral struct {
	ID           string
	ReferrerID   string
	ReferredID   string
	ReferredName string
	BonusAmount  decimal.Decimal
	Claimed      bool
	CreatedAt    time.Time
}

// Summary aggregates a referrer's records for display.
type Summary struct {
	Total    int             `json:"total"`
	Claimed  int             `json:"claimed"`
	Pending  int             `json:"pending"`
	Earnings decimal.Decimal `json:"earnings"`
}

// Summarize computes counts and claimed earnings over the given records.
// Pure aggregation: an empty slice yields a zero summary.
func Summarize(records []Referral) Summary {
	s := Summary{Earnings: decimal.Zero}
	for _, r := range records {
		s.Total++
		if r.Claimed {
			s.Claimed++
			s.Earnings = s.Earnings.Add(r.BonusAmount)
		}
	}
	s.Pending = s.Total - s.Claimed
	return s
}

// Repository defines persistence operations for referrals.
type Repository interface {
	ListByReferrer(ctx context.Context, referrerID string) ([]Referral, error)
	List(ctx context.Context) ([]Referral, error)
	GetByID(ctx context.Context, id string) (*Referral, error)
	// Claim marks the referral claimed and credits both parties' wallets
	// in one transaction. Claiming twice returns ErrAlreadyClaimed.
	Claim(ctx context.Context, id string, referrerBonus, referredBonus decimal.Decimal) error
}
