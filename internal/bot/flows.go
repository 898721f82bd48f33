package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ashureev/pricewatch/internal/domain"
)

// addItem confirms the page is readable before anything is persisted:
// an item only enters the watchlist with a successfully parsed reading.
func (r *Router) addItem(ctx context.Context, owner, url, site string) {
	markup, err := r.fetcher.Page(ctx, url)
	if err != nil {
		slog.Warn("Add flow fetch failed", "owner", owner, "url", url, "error", err)
		r.reply(ctx, owner, "Couldn't reach that page, please check the URL")
		return
	}

	reading, err := r.extractor.Extract(markup, site)
	switch {
	case errors.Is(err, domain.ErrUnsupportedSite):
		r.reply(ctx, owner, fmt.Sprintf("Site %q isn't supported. Known sites: %s",
			site, strings.Join(r.registry.Sites(), ", ")))
		return
	case err != nil:
		slog.Warn("Add flow extraction failed", "owner", owner, "site", site, "error", err)
		r.reply(ctx, owner, "Couldn't find a price on that page")
		return
	}

	id, err := r.watchlist.Insert(ctx, owner, url, site, reading.Price, reading.Currency)
	if err != nil {
		slog.Error("Add flow insert failed", "owner", owner, "error", err)
		r.reply(ctx, owner, "Something went wrong, please try again")
		return
	}

	slog.Info("Item added", "owner", owner, "item_id", id, "site", site)
	r.reply(ctx, owner, fmt.Sprintf("Tracking #%d: %s — current price %s %s",
		id, url, reading.Price, reading.Currency))
}

func (r *Router) removeItem(ctx context.Context, owner, rawID string) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		r.reply(ctx, owner, fmt.Sprintf("%q is not an item id — see /list", rawID))
		return
	}

	affected, err := r.watchlist.DeleteByID(ctx, owner, id)
	if err != nil {
		slog.Error("Remove flow delete failed", "owner", owner, "item_id", id, "error", err)
		r.reply(ctx, owner, "Something went wrong, please try again")
		return
	}
	if affected == 0 {
		r.reply(ctx, owner, fmt.Sprintf("No item #%d in your watchlist", id))
		return
	}
	r.reply(ctx, owner, fmt.Sprintf("Removed #%d", id))
}

func (r *Router) listItems(ctx context.Context, owner string) {
	items, err := r.watchlist.ListByOwner(ctx, owner)
	if err != nil {
		slog.Error("List failed", "owner", owner, "error", err)
		r.reply(ctx, owner, "Something went wrong, please try again")
		return
	}
	if len(items) == 0 {
		r.reply(ctx, owner, "Your watchlist is empty. Add an item with /add")
		return
	}

	var b strings.Builder
	b.WriteString("Your watchlist:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "#%d %s — %s %s\n", item.ID, item.URL, item.LastPrice, item.Currency)
	}
	r.reply(ctx, owner, strings.TrimRight(b.String(), "\n"))
}

func (r *Router) clearItems(ctx context.Context, owner string) {
	affected, err := r.watchlist.DeleteByOwner(ctx, owner)
	if err != nil {
		slog.Error("Clear failed", "owner", owner, "error", err)
		r.reply(ctx, owner, "Something went wrong, please try again")
		return
	}
	r.reply(ctx, owner, fmt.Sprintf("Removed %d item(s)", affected))
}

// Notify implements the scheduler's notifier over the chat transport.
func (r *Router) Notify(ctx context.Context, owner, text string) error {
	return r.sender.Send(ctx, owner, text)
}
