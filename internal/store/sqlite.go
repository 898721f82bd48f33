package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/ashureev/pricewatch/internal/domain"
)

// SQLiteStore implements Watchlist using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed watchlist.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	// Prices are stored as decimal text so values round-trip exactly.
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS watchlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		url TEXT NOT NULL,
		site TEXT NOT NULL,
		last_price TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_watchlist_owner ON watchlist(owner);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListAll retrieves every tracked item across all owners.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.TrackedItem, error) {
	return s.list(ctx, `
		SELECT id, owner, url, site, last_price, currency, created_at, updated_at
		FROM watchlist ORDER BY id`)
}

// ListByOwner retrieves the tracked items belonging to one owner.
func (s *SQLiteStore) ListByOwner(ctx context.Context, owner string) ([]domain.TrackedItem, error) {
	return s.list(ctx, `
		SELECT id, owner, url, site, last_price, currency, created_at, updated_at
		FROM watchlist WHERE owner = ? ORDER BY id`, owner)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...interface{}) ([]domain.TrackedItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %v: %w", err, domain.ErrPersistence)
	}
	defer rows.Close()

	var items []domain.TrackedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %v: %w", err, domain.ErrPersistence)
	}
	return items, nil
}

func scanItem(rows *sql.Rows) (domain.TrackedItem, error) {
	var item domain.TrackedItem
	var priceText string
	var createdAt, updatedAt int64

	if err := rows.Scan(
		&item.ID, &item.Owner, &item.URL, &item.Site,
		&priceText, &item.Currency, &createdAt, &updatedAt,
	); err != nil {
		return domain.TrackedItem{}, fmt.Errorf("scan watchlist row: %v: %w", err, domain.ErrPersistence)
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return domain.TrackedItem{}, fmt.Errorf("decode stored price %q: %v: %w", priceText, err, domain.ErrPersistence)
	}
	item.LastPrice = price
	item.CreatedAt = time.Unix(createdAt, 0)
	item.UpdatedAt = time.Unix(updatedAt, 0)
	return item, nil
}

// Insert creates a tracked item and returns its assigned id.
func (s *SQLiteStore) Insert(ctx context.Context, owner, url, site string, price decimal.Decimal, currency string) (int64, error) {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO watchlist (owner, url, site, last_price, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		owner, url, site, price.String(), currency, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert item: %v: %w", err, domain.ErrPersistence)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert item id: %v: %w", err, domain.ErrPersistence)
	}
	return id, nil
}

// UpdatePrice overwrites the stored price and currency for an item and
// returns the owning identifier.
func (s *SQLiteStore) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal, currency string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `
		UPDATE watchlist SET last_price = ?, currency = ?, updated_at = ?
		WHERE id = ? RETURNING owner`,
		price.String(), currency, time.Now().Unix(), id,
	).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("item %d not found: %w", id, domain.ErrPersistence)
	}
	if err != nil {
		return "", fmt.Errorf("update price: %v: %w", err, domain.ErrPersistence)
	}
	return owner, nil
}

// DeleteByID removes one item if it belongs to owner.
func (s *SQLiteStore) DeleteByID(ctx context.Context, owner string, id int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM watchlist WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return 0, fmt.Errorf("delete item: %v: %w", err, domain.ErrPersistence)
	}
	return rowsAffected(result)
}

// DeleteByOwner removes all items belonging to owner.
func (s *SQLiteStore) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM watchlist WHERE owner = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("delete owner items: %v: %w", err, domain.ErrPersistence)
	}
	return rowsAffected(result)
}

// Count returns the total number of tracked items.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM watchlist`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %v: %w", err, domain.ErrPersistence)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func rowsAffected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %v: %w", err, domain.ErrPersistence)
	}
	return rows, nil
}
