package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gkpcrackers/storefront/internal/domain/referral"
	"github.com/gkpcrackers/storefront/internal/domain/wallet"
)

const (
	referralColumns = `r.id, r.referrer_id, COALESCE(r.referred_id::text, ''),
		COALESCE(p.full_name, ''), r.bonus_amount, r.is_claimed, r.created_at`

	listReferralsByReferrerSQL = `SELECT ` + referralColumns + `
		FROM referrals r LEFT JOIN profiles p ON p.id = r.referred_id
		WHERE r.referrer_id = $1 ORDER BY r.created_at DESC`

	listReferralsSQL = `SELECT ` + referralColumns + `
		FROM referrals r LEFT JOIN profiles p ON p.id = r.referred_id
		ORDER BY r.created_at DESC`

	getReferralByIDSQL = `SELECT ` + referralColumns + `
		FROM referrals r LEFT JOIN profiles p ON p.id = r.referred_id
		WHERE r.id = $1`

	claimReferralSQL = `UPDATE referrals SET is_claimed = TRUE, bonus_amount = $2
		WHERE id = $1 AND is_claimed = FALSE`
)

var _ referral.Repository = (*ReferralRepository)(nil)

// ReferralRepository implements referral.Repository backed by PostgreSQL.
type ReferralRepository struct {
	pool *pgxpool.Pool
}

// NewReferralRepository returns a ReferralRepository that uses the given pool.
func NewReferralRepository(pool *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{pool: pool}
}

// ListByReferrer returns a user's referral records, newest first.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]referral.Referral, error) {
	rows, err := r.pool.Query(ctx, listReferralsByReferrerSQL, referrerID)
	if err != nil {
		return nil, fmt.Errorf("listing referrals for %q: %w", referrerID, err)
	}
	return pgx.CollectRows(rows, scanReferral)
}

// List returns every referral record for the admin panel.
func (r *ReferralRepository) List(ctx context.Context) ([]referral.Referral, error) {
	rows, err := r.pool.Query(ctx, listReferralsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing referrals: %w", err)
	}
	return pgx.CollectRows(rows, scanReferral)
}

// GetByID returns a single referral record.
func (r *ReferralRepository) GetByID(ctx context.Context, id string) (*referral.Referral, error) {
	rows, err := r.pool.Query(ctx, getReferralByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting referral %q: %w", id, err)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanReferral)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, referral.ErrNotFound
		}
		return nil, fmt.Errorf("getting referral %q: %w", id, err)
	}
	return &rec, nil
}

// Claim marks the referral claimed and credits both the referrer and the
// referred user in one transaction. Claiming an already-claimed referral
// returns referral.ErrAlreadyClaimed without touching any balance.
func (r *ReferralRepository) Claim(ctx context.Context, id string, referrerBonus, referredBonus decimal.Decimal) error {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Claimed {
		return referral.ErrAlreadyClaimed
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx, claimReferralSQL, id, referrerBonus)
	if err != nil {
		return fmt.Errorf("claiming referral %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return referral.ErrAlreadyClaimed
	}

	credits := []struct {
		userID string
		amount decimal.Decimal
		desc   string
	}{
		{rec.ReferrerID, referrerBonus, "Referral bonus"},
		{rec.ReferredID, referredBonus, "Welcome referral bonus"},
	}
	for _, c := range credits {
		if c.userID == "" || !c.amount.IsPositive() {
			continue
		}
		if _, err := tx.Exec(ctx, creditBalanceSQL, c.userID, c.amount); err != nil {
			return fmt.Errorf("crediting referral bonus to %q: %w", c.userID, err)
		}
		_, err := tx.Exec(ctx, `INSERT INTO wallet_transactions (user_id, amount, transaction_type, description)
			VALUES ($1, $2, $3, $4)`,
			c.userID, c.amount, string(wallet.Credit), c.desc)
		if err != nil {
			return fmt.Errorf("recording referral bonus for %q: %w", c.userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing referral claim: %w", err)
	}
	return nil
}

func scanReferral(row pgx.CollectableRow) (referral.Referral, error) {
	var rec referral.Referral
	err := row.Scan(&rec.ID, &rec.ReferrerID, &rec.ReferredID, &rec.ReferredName,
		&rec.BonusAmount, &rec.Claimed, &rec.CreatedAt)
	return rec, err
}
