// Package notify decides whether a fresh reading warrants a store write
// and a user-facing alert.
package notify

import (
	"fmt"

	"github.com/ashureev/pricewatch/internal/domain"
)

// Decision is the outcome of comparing a fresh reading to the stored price.
type Decision struct {
	Persist bool
	Notify  bool
}

// Evaluate compares a fresh reading against the stored item.
//
// An unchanged price short-circuits to no write and no alert; without
// this, stable prices would re-notify on every firing. Any differing
// price persists, including a drop to zero. Only a strict decrease
// notifies; increases persist silently.
func Evaluate(item domain.TrackedItem, reading domain.PriceReading) Decision {
	if reading.Price.Equal(item.LastPrice) {
		return Decision{}
	}
	return Decision{
		Persist: true,
		Notify:  reading.Price.LessThan(item.LastPrice),
	}
}

// DropMessage formats the alert for a price decrease. It carries the
// URL, the old price with its currency and the new price with its.
func DropMessage(item domain.TrackedItem, reading domain.PriceReading) string {
	return fmt.Sprintf("Price drop!\n%s\n%s %s → %s %s",
		item.URL,
		item.LastPrice, item.Currency,
		reading.Price, reading.Currency,
	)
}
