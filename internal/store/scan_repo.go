// Package store caches accepted recognition results in Postgres so a
// re-submitted photo does not pay for another provider round.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"idscan/internal/fields"
)

var ErrNotFound = sql.ErrNoRows

type ScanRepo struct{ DB *sql.DB }

func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{DB: db} }

// Row is a cached recognition.
type Row struct {
	ID        int64
	CreatedAt time.Time
	ImageHash string
	Source    string
	Model     string
	Fields    fields.IdentityFields
}

// EnsureSchema creates the cache table when it does not exist yet.
func (r *ScanRepo) EnsureSchema(ctx context.Context) error {
	const q = `
create table if not exists recognitions (
  id           bigserial primary key,
  created_at   timestamptz not null default now(),
  image_hash   text not null unique,
  source       text not null,
  model        text not null default '',
  curp         text not null default '',
  full_name    text not null default '',
  result_json  jsonb not null
)`
	_, err := r.DB.ExecContext(ctx, q)
	return err
}

// FindByHash returns the newest cached result for an image hash. A maxAge
// of zero ignores freshness.
func (r *ScanRepo) FindByHash(ctx context.Context, imageHash string, maxAge time.Duration) (*Row, error) {
	const q = `
select id, created_at, image_hash, source, coalesce(model,'') as model, result_json
from recognitions
where image_hash = $1
order by created_at desc
limit 1`
	row := r.DB.QueryRowContext(ctx, q, imageHash)

	var (
		id     int64
		ts     time.Time
		hash   string
		source string
		model  string
		js     []byte
	)
	if err := row.Scan(&id, &ts, &hash, &source, &model, &js); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return nil, ErrNotFound
	}
	var f fields.IdentityFields
	if err := json.Unmarshal(js, &f); err != nil {
		// broken JSON counts as absent
		return nil, ErrNotFound
	}
	return &Row{ID: id, CreatedAt: ts, ImageHash: hash, Source: source, Model: model, Fields: f}, nil
}

// Upsert stores an accepted recognition, replacing any prior entry for the
// same image hash.
func (r *ScanRepo) Upsert(ctx context.Context, imageHash, model string, f fields.IdentityFields) error {
	js, _ := json.Marshal(f)
	const q = `
insert into recognitions (image_hash, source, model, curp, full_name, result_json)
values ($1,$2,$3,$4,$5,$6)
on conflict (image_hash) do update
set created_at = now(),
    source = excluded.source,
    model = excluded.model,
    curp = excluded.curp,
    full_name = excluded.full_name,
    result_json = excluded.result_json`
	_, err := r.DB.ExecContext(ctx, q, imageHash, string(f.Source), model, f.CURP, f.FullName, js)
	return err
}

// PurgeOlderThan trims stale cache entries.
func (r *ScanRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from recognitions where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
