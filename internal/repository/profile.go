package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gkpcrackers/storefront/internal/domain/profile"
)

const (
	profileColumns = `id, full_name, phone, email, address, user_type, business_name,
		gst_number, is_verified, COALESCE(referral_code, ''), wallet_balance`

	getProfileByIDSQL = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	listProfilesSQL = `SELECT ` + profileColumns + ` FROM profiles ORDER BY full_name`

	setVerifiedSQL = `UPDATE profiles SET is_verified = $2 WHERE id = $1`
)

var _ profile.Repository = (*ProfileRepository)(nil)

// ProfileRepository implements profile.Repository backed by PostgreSQL.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a ProfileRepository that uses the given pool.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetByID returns a single profile by its identifier.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	rows, err := r.pool.Query(ctx, getProfileByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting profile %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProfile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrNotFound
		}
		return nil, fmt.Errorf("getting profile %q: %w", id, err)
	}
	return &p, nil
}

// List returns every customer profile ordered by name.
func (r *ProfileRepository) List(ctx context.Context) ([]profile.Profile, error) {
	rows, err := r.pool.Query(ctx, listProfilesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return pgx.CollectRows(rows, scanProfile)
}

// SetVerified flips dealer verification for a profile.
func (r *ProfileRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	tag, err := r.pool.Exec(ctx, setVerifiedSQL, id, verified)
	if err != nil {
		return fmt.Errorf("setting verification for profile %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.CollectableRow) (profile.Profile, error) {
	var (
		p        profile.Profile
		userType string
	)
	err := row.Scan(
		&p.ID, &p.FullName, &p.Phone, &p.Email, &p.Address, &userType,
		&p.BusinessName, &p.GSTNumber, &p.Verified, &p.ReferralCode, &p.WalletBalance,
	)
	p.Classification = profileClass(userType)
	return p, err
}

// profileClass maps a stored user_type column to a Classification, falling
// back to retail for anything unexpected.
func profileClass(userType string) profile.Classification {
	c := profile.Classification(userType)
	if !c.Valid() {
		return profile.Retail
	}
	return c
}
