package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gkpcrackers/storefront/internal/domain/announcement"
)

const (
	announcementColumns = `id, title, body, active, starts_at, ends_at, created_at`

	listAnnouncementsSQL = `SELECT ` + announcementColumns + `
		FROM announcements ORDER BY created_at DESC`

	listActiveAnnouncementsSQL = `SELECT ` + announcementColumns + `
		FROM announcements
		WHERE active
		  AND (starts_at IS NULL OR starts_at <= $1)
		  AND (ends_at IS NULL OR ends_at >= $1)
		ORDER BY created_at DESC`

	insertAnnouncementSQL = `INSERT INTO announcements (title, body, active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	updateAnnouncementSQL = `UPDATE announcements
		SET title = $2, body = $3, active = $4, starts_at = $5, ends_at = $6
		WHERE id = $1`

	deleteAnnouncementSQL = `DELETE FROM announcements WHERE id = $1`
)

var _ announcement.Repository = (*AnnouncementRepository)(nil)

// AnnouncementRepository persists storefront banner announcements.
type AnnouncementRepository struct {
	pool *pgxpool.Pool
}

// NewAnnouncementRepository returns an AnnouncementRepository that uses the given pool.
func NewAnnouncementRepository(pool *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{pool: pool}
}

func (r *AnnouncementRepository) List(ctx context.Context) ([]announcement.Announcement, error) {
	rows, err := r.pool.Query(ctx, listAnnouncementsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing announcements: %w", err)
	}
	return pgx.CollectRows(rows, scanAnnouncement)
}

// ListActive returns announcements that are enabled and inside their
// display window at the given time.
func (r *AnnouncementRepository) ListActive(ctx context.Context, now time.Time) ([]announcement.Announcement, error) {
	rows, err := r.pool.Query(ctx, listActiveAnnouncementsSQL, now)
	if err != nil {
		return nil, fmt.Errorf("listing active announcements: %w", err)
	}
	return pgx.CollectRows(rows, scanAnnouncement)
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *announcement.Announcement) error {
	err := r.pool.QueryRow(ctx, insertAnnouncementSQL,
		a.Title, a.Body, a.Active, a.StartsAt, a.EndsAt,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating announcement: %w", err)
	}
	return nil
}

func (r *AnnouncementRepository) Update(ctx context.Context, a *announcement.Announcement) error {
	tag, err := r.pool.Exec(ctx, updateAnnouncementSQL,
		a.ID, a.Title, a.Body, a.Active, a.StartsAt, a.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("updating announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return announcement.ErrNotFound
	}
	return nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteAnnouncementSQL, id)
	if err != nil {
		return fmt.Errorf("deleting announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return announcement.ErrNotFound
	}
	return nil
}

func scanAnnouncement(row pgx.CollectableRow) (announcement.Announcement, error) {
	var a announcement.Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Body, &a.Active, &a.StartsAt, &a.EndsAt, &a.CreatedAt)
	return a, err
}
