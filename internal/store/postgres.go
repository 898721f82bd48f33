package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ashureev/pricewatch/internal/domain"
)

// PostgresStore implements Watchlist using Postgres via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed watchlist from a DSN.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS watchlist (
		id BIGSERIAL PRIMARY KEY,
		owner TEXT NOT NULL,
		url TEXT NOT NULL,
		site TEXT NOT NULL,
		last_price NUMERIC(20,6) NOT NULL,
		currency TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_watchlist_owner ON watchlist(owner);
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const pgSelectCols = `id, owner, url, site, last_price::text, currency, created_at, updated_at`

// ListAll retrieves every tracked item across all owners.
func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.TrackedItem, error) {
	return s.list(ctx, `SELECT `+pgSelectCols+` FROM watchlist ORDER BY id`)
}

// ListByOwner retrieves the tracked items belonging to one owner.
func (s *PostgresStore) ListByOwner(ctx context.Context, owner string) ([]domain.TrackedItem, error) {
	return s.list(ctx, `SELECT `+pgSelectCols+` FROM watchlist WHERE owner = $1 ORDER BY id`, owner)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...interface{}) ([]domain.TrackedItem, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %v: %w", err, domain.ErrPersistence)
	}
	defer rows.Close()

	var items []domain.TrackedItem
	for rows.Next() {
		var item domain.TrackedItem
		var priceText string
		var createdAt, updatedAt time.Time

		if err := rows.Scan(
			&item.ID, &item.Owner, &item.URL, &item.Site,
			&priceText, &item.Currency, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %v: %w", err, domain.ErrPersistence)
		}

		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("decode stored price %q: %v: %w", priceText, err, domain.ErrPersistence)
		}
		item.LastPrice = price
		item.CreatedAt = createdAt
		item.UpdatedAt = updatedAt
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %v: %w", err, domain.ErrPersistence)
	}
	return items, nil
}

// Insert creates a tracked item and returns its assigned id.
func (s *PostgresStore) Insert(ctx context.Context, owner, url, site string, price decimal.Decimal, currency string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO watchlist (owner, url, site, last_price, currency)
		VALUES ($1, $2, $3, $4::numeric, $5) RETURNING id`,
		owner, url, site, price.String(), currency,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert item: %v: %w", err, domain.ErrPersistence)
	}
	return id, nil
}

// UpdatePrice overwrites the stored price and currency for an item and
// returns the owning identifier.
func (s *PostgresStore) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal, currency string) (string, error) {
	var owner string
	err := s.pool.QueryRow(ctx, `
		UPDATE watchlist SET last_price = $1::numeric, currency = $2, updated_at = now()
		WHERE id = $3 RETURNING owner`,
		price.String(), currency, id,
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("item %d not found: %w", id, domain.ErrPersistence)
	}
	if err != nil {
		return "", fmt.Errorf("update price: %v: %w", err, domain.ErrPersistence)
	}
	return owner, nil
}

// DeleteByID removes one item if it belongs to owner.
func (s *PostgresStore) DeleteByID(ctx context.Context, owner string, id int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM watchlist WHERE owner = $1 AND id = $2`, owner, id)
	if err != nil {
		return 0, fmt.Errorf("delete item: %v: %w", err, domain.ErrPersistence)
	}
	return tag.RowsAffected(), nil
}

// DeleteByOwner removes all items belonging to owner.
func (s *PostgresStore) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM watchlist WHERE owner = $1`, owner)
	if err != nil {
		return 0, fmt.Errorf("delete owner items: %v: %w", err, domain.ErrPersistence)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of tracked items.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM watchlist`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %v: %w", err, domain.ErrPersistence)
	}
	return count, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
