// Package store provides watchlist persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ashureev/pricewatch/internal/domain"
)

// Watchlist defines the narrow persistence interface the engine consumes.
type Watchlist interface {
	// ListAll retrieves every tracked item across all owners.
	ListAll(ctx context.Context) ([]domain.TrackedItem, error)

	// ListByOwner retrieves the tracked items belonging to one owner.
	ListByOwner(ctx context.Context, owner string) ([]domain.TrackedItem, error)

	// Insert creates a tracked item and returns its assigned id.
	Insert(ctx context.Context, owner, url, site string, price decimal.Decimal, currency string) (int64, error)

	// UpdatePrice overwrites the stored price and currency for an item
	// and returns the owning identifier.
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal, currency string) (string, error)

	// DeleteByID removes one item if it belongs to owner; returns the
	// number of rows removed.
	DeleteByID(ctx context.Context, owner string, id int64) (int64, error)

	// DeleteByOwner removes all items belonging to owner; returns the
	// number of rows removed.
	DeleteByOwner(ctx context.Context, owner string) (int64, error)

	// Count returns the total number of tracked items.
	Count(ctx context.Context) (int64, error)

	// Ping verifies connectivity to the backing database.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
