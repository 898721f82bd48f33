// Package poll drives the scheduled price-checking pass over the watchlist.
package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ashureev/pricewatch/internal/domain"
	"github.com/ashureev/pricewatch/internal/notify"
	"github.com/ashureev/pricewatch/internal/store"
)

// PageFetcher retrieves product-page markup.
type PageFetcher interface {
	Page(ctx context.Context, url string) (string, error)
}

// Extractor turns markup into a price reading for a site.
type Extractor interface {
	Extract(markup, site string) (domain.PriceReading, error)
}

// Notifier delivers a user-facing alert to an owner.
type Notifier interface {
	Notify(ctx context.Context, owner, text string) error
}

// Outcome records what happened to one item during a firing.
type Outcome struct {
	Item     domain.TrackedItem
	Updated  bool
	Notified bool
	Err      error
}

// Scheduler runs the polling pass on a cron schedule. Items within a
// firing are processed concurrently and failures are contained per item.
type Scheduler struct {
	watchlist   store.Watchlist
	fetcher     PageFetcher
	extractor   Extractor
	notifier    Notifier
	itemTimeout time.Duration
	cron        *cron.Cron
}

// New creates a scheduler. itemTimeout bounds each item's fetch+parse.
func New(watchlist store.Watchlist, fetcher PageFetcher, extractor Extractor, notifier Notifier, itemTimeout time.Duration) *Scheduler {
	if itemTimeout <= 0 {
		itemTimeout = 30 * time.Second
	}
	return &Scheduler{
		watchlist:   watchlist,
		fetcher:     fetcher,
		extractor:   extractor,
		notifier:    notifier,
		itemTimeout: itemTimeout,
	}
}

// Start registers the firing on the given cron expression and starts
// the timer. The pass itself runs with the provided base context.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	slog.Info("Polling scheduler started", "schedule", spec)
	return nil
}

// Stop halts the cron timer and waits for a running firing to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	slog.Info("Polling scheduler stopped")
}

// RunOnce executes a single firing over the full watchlist and returns
// the per-item outcomes. All items are launched concurrently and joined
// before returning, so isolation is observable by the caller.
func (s *Scheduler) RunOnce(ctx context.Context) []Outcome {
	firingID := uuid.NewString()
	log := slog.With("firing_id", firingID)

	items, err := s.watchlist.ListAll(ctx)
	if err != nil {
		log.Error("Failed to load watchlist", "error", err)
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	log.Info("Polling pass started", "items", len(items))

	outcomes := make([]Outcome, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item domain.TrackedItem) {
			defer wg.Done()
			updated, notified, err := s.checkItem(ctx, log, item)
			outcomes[i] = Outcome{Item: item, Updated: updated, Notified: notified, Err: err}
		}(i, item)
	}
	wg.Wait()

	var updated, notified, failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		if o.Updated {
			updated++
		}
		if o.Notified {
			notified++
		}
	}
	log.Info("Polling pass finished",
		"items", len(items), "updated", updated, "notified", notified, "failed", failed)

	return outcomes
}

// checkItem fetches, extracts and persists one item. Errors are
// returned to the join point and logged; they never abort siblings.
// There is no per-item retry: the next firing is the retry.
func (s *Scheduler) checkItem(ctx context.Context, log *slog.Logger, item domain.TrackedItem) (updated, notified bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	defer cancel()

	markup, err := s.fetcher.Page(ctx, item.URL)
	if err != nil {
		log.Warn("Item fetch failed, skipping until next firing",
			"item_id", item.ID, "url", item.URL, "error", err)
		return false, false, err
	}

	reading, err := s.extractor.Extract(markup, item.Site)
	if err != nil {
		log.Warn("Item extraction failed, skipping until next firing",
			"item_id", item.ID, "site", item.Site, "error", err)
		return false, false, err
	}

	decision := notify.Evaluate(item, reading)
	if !decision.Persist {
		return false, false, nil
	}

	owner, err := s.watchlist.UpdatePrice(ctx, item.ID, reading.Price, reading.Currency)
	if err != nil {
		log.Error("Item price update failed", "item_id", item.ID, "error", err)
		return false, false, err
	}
	log.Info("Price updated",
		"item_id", item.ID, "old", item.LastPrice.String(), "new", reading.Price.String())

	if decision.Notify {
		if err := s.notifier.Notify(ctx, owner, notify.DropMessage(item, reading)); err != nil {
			// The row is already updated; a failed delivery is logged,
			// not surfaced as an item failure.
			log.Warn("Alert delivery failed", "item_id", item.ID, "owner", owner, "error", err)
		} else {
			notified = true
		}
	}
	return true, notified, nil
}
