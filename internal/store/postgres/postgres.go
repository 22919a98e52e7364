// Package postgres stores contacts and countries in PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/contactimport/internal/core"
)

// PoolOptions tunes the connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Open parses url, applies opts and verifies the connection with a ping.
func Open(ctx context.Context, url string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		cfg.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the countries and contacts tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS countries (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS contacts (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  street TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  zip TEXT NOT NULL DEFAULT '',
  country_id BIGINT REFERENCES countries(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS contacts_email_idx ON contacts (email);`

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create contact tables: %w", err)
	}
	return nil
}

// Store implements core.ContactStore and core.CountryDirectory.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ core.ContactStore     = (*Store)(nil)
	_ core.CountryDirectory = (*Store)(nil)
)

// NewStore wraps an existing pool. Call EnsureSchema before using it.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// FindByEmail returns the oldest contact with exactly this email, or nil.
func (s *Store) FindByEmail(ctx context.Context, email string) (*core.ContactRecord, error) {
	const query = `
SELECT id, name, email, phone, street, city, zip, country_id
FROM contacts
WHERE email = $1
ORDER BY id
LIMIT 1`

	var (
		rec     core.ContactRecord
		country pgtype.Int8
	)
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&rec.ID,
		&rec.Name,
		&rec.Email,
		&rec.Phone,
		&rec.Street,
		&rec.City,
		&rec.Zip,
		&country,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select contact: %w", err)
	}
	if country.Valid {
		id := country.Int64
		rec.CountryID = &id
	}
	return &rec, nil
}

// Create inserts a new contact.
func (s *Store) Create(ctx context.Context, fields core.ContactFields) (*core.ContactRecord, error) {
	const query = `
INSERT INTO contacts (name, email, phone, street, city, zip, country_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	rec := &core.ContactRecord{ContactFields: fields}
	err := s.pool.QueryRow(ctx, query,
		fields.Name,
		fields.Email,
		fields.Phone,
		fields.Street,
		fields.City,
		fields.Zip,
		countryParam(fields.CountryID),
	).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return rec, nil
}

// Update overwrites every field of existing.
func (s *Store) Update(ctx context.Context, existing *core.ContactRecord, fields core.ContactFields) error {
	const query = `
UPDATE contacts SET
  name = $2,
  email = $3,
  phone = $4,
  street = $5,
  city = $6,
  zip = $7,
  country_id = $8,
  updated_at = now()
WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		existing.ID,
		fields.Name,
		fields.Email,
		fields.Phone,
		fields.Street,
		fields.City,
		fields.Zip,
		countryParam(fields.CountryID),
	)
	if err != nil {
		return fmt.Errorf("update contact %d: %w", existing.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update contact %d: record no longer exists", existing.ID)
	}
	existing.ContactFields = fields
	return nil
}

// FindCountryByName resolves an exact country name.
func (s *Store) FindCountryByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM countries WHERE name = $1 ORDER BY id LIMIT 1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select country: %w", err)
	}
	return id, true, nil
}

// AddCountry registers a country name, returning its id. Adding an existing
// name returns the existing id.
func (s *Store) AddCountry(ctx context.Context, name string) (int64, error) {
	const query = `
INSERT INTO countries (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

	var id int64
	if err := s.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert country: %w", err)
	}
	return id, nil
}

func countryParam(id *int64) pgtype.Int8 {
	if id == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *id, Valid: true}
}
