// Package domain contains core domain types for the pricewatch engine.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrackedItem is one watched product page belonging to an owner.
// LastPrice always holds the most recent successfully parsed value;
// it is mutated only by the polling loop.
type TrackedItem struct {
	ID        int64           `json:"id"`
	Owner     string          `json:"owner"`
	URL       string          `json:"url"`
	Site      string          `json:"site"`
	LastPrice decimal.Decimal `json:"last_price"`
	Currency  string          `json:"currency,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PriceReading is a freshly extracted price for one page. It is never
// persisted directly, only folded into a TrackedItem.
type PriceReading struct {
	Price    decimal.Decimal
	Currency string
}
