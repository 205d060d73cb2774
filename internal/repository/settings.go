package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gkpcrackers/storefront/internal/domain/settings"
)

const (
	listSettingsSQL  = `SELECT key, value FROM site_settings`
	upsertSettingSQL = `INSERT INTO site_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository stores site settings as one JSONB value per key. The
// key set mirrors the Settings struct's JSON field names, so loading is a
// matter of reassembling the rows into one object and unmarshaling it over
// the defaults.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Load materializes stored rows over the defaults. Unknown keys are
// ignored; missing keys keep their default values.
func (r *SettingsRepository) Load(ctx context.Context) (*settings.Settings, error) {
	rows, err := r.pool.Query(ctx, listSettingsSQL)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	type kv struct {
		Key   string
		Value []byte
	}
	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (kv, error) {
		var p kv
		err := row.Scan(&p.Key, &p.Value)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning settings: %w", err)
	}

	merged := make(map[string]json.RawMessage, len(pairs))
	for _, p := range pairs {
		merged[p.Key] = json.RawMessage(p.Value)
	}
	blob, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("assembling settings: %w", err)
	}

	s := settings.Defaults()
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &s, nil
}

// Save upserts every field as its own key/value row so the admin panel can
// see and edit fields independently.
func (r *SettingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(blob, &fields); err != nil {
		return fmt.Errorf("splitting settings: %w", err)
	}

	batch := &pgx.Batch{}
	for key, value := range fields {
		batch.Queue(upsertSettingSQL, key, []byte(value))
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
