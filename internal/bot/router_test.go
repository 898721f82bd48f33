package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ashureev/pricewatch/internal/domain"
	"github.com/ashureev/pricewatch/internal/extract"
	"github.com/ashureev/pricewatch/internal/session"
	"github.com/ashureev/pricewatch/internal/transport"
)

type fakeWatchlist struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.TrackedItem
}

func newFakeWatchlist() *fakeWatchlist {
	return &fakeWatchlist{items: make(map[int64]domain.TrackedItem)}
}

func (f *fakeWatchlist) ListAll(context.Context) ([]domain.TrackedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TrackedItem, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeWatchlist) ListByOwner(ctx context.Context, owner string) ([]domain.TrackedItem, error) {
	all, _ := f.ListAll(ctx)
	var out []domain.TrackedItem
	for _, item := range all {
		if item.Owner == owner {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeWatchlist) Insert(_ context.Context, owner, url, site string, price decimal.Decimal, currency string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.items[f.nextID] = domain.TrackedItem{
		ID: f.nextID, Owner: owner, URL: url, Site: site, LastPrice: price, Currency: currency,
	}
	return f.nextID, nil
}

func (f *fakeWatchlist) UpdatePrice(_ context.Context, id int64, price decimal.Decimal, currency string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return "", fmt.Errorf("item %d not found: %w", id, domain.ErrPersistence)
	}
	item.LastPrice = price
	item.Currency = currency
	f.items[id] = item
	return item.Owner, nil
}

func (f *fakeWatchlist) DeleteByID(_ context.Context, owner string, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok && item.Owner == owner {
		delete(f.items, id)
		return 1, nil
	}
	return 0, nil
}

func (f *fakeWatchlist) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, item := range f.items {
		if item.Owner == owner {
			delete(f.items, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeWatchlist) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

func (f *fakeWatchlist) Ping(context.Context) error { return nil }
func (f *fakeWatchlist) Close() error               { return nil }

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Page(_ context.Context, url string) (string, error) {
	markup, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("get %s: no such page: %w", url, domain.ErrFetch)
	}
	return markup, nil
}

type recordingSender struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSender) Send(_ context.Context, owner, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, owner+"|"+text)
	return nil
}

func (s *recordingSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1]
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type fixture struct {
	router    *Router
	watchlist *fakeWatchlist
	sender    *recordingSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := extract.NewRegistry()
	if err := reg.Register("shopexample", extract.SelectorSpec{
		Price: ".price", Currency: ".currency",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	wl := newFakeWatchlist()
	sender := &recordingSender{}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://shop.example/p/1": `<span class="price">4,990.00</span><span class="currency">EUR</span>`,
	}}

	router := New(wl, session.NewMemoryStore(0), reg, fetcher, extract.NewPipeline(reg, "$"), sender)
	return &fixture{router: router, watchlist: wl, sender: sender}
}

func (fx *fixture) send(owner, text string) {
	fx.router.Handle(context.Background(), transport.Message{Owner: owner, Text: text})
}

func TestDirectAddInsertsWithExtractedReading(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/add https://shop.example/p/1 shopexample")

	items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:1")
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].LastPrice.String() != "499000" {
		t.Errorf("Expected stripped price 499000, got %s", items[0].LastPrice)
	}
	if items[0].Currency != "EUR" {
		t.Errorf("Expected currency EUR, got %q", items[0].Currency)
	}
	if !strings.Contains(fx.sender.last(), "Tracking #1") {
		t.Errorf("Expected tracking confirmation, got %q", fx.sender.last())
	}
}

func TestGuidedAddFlow(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/add")
	if !strings.Contains(fx.sender.last(), "url - site") {
		t.Fatalf("Expected guided prompt, got %q", fx.sender.last())
	}

	fx.send("tg:1", "https://shop.example/p/1 - shopexample")

	items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:1")
	if len(items) != 1 {
		t.Fatalf("Expected 1 item after guided add, got %d", len(items))
	}
}

func TestMalformedGuidedPayloadClearsSession(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/add")
	fx.send("tg:1", "no separator here")

	if !strings.Contains(fx.sender.last(), "doesn't look right") {
		t.Fatalf("Expected format error, got %q", fx.sender.last())
	}

	// The session was consumed even though the payload was malformed:
	// further plain text is ignored, not re-parsed.
	before := fx.sender.count()
	fx.send("tg:1", "https://shop.example/p/1 - shopexample")
	if fx.sender.count() != before {
		t.Error("Expected plain text after a consumed session to be ignored")
	}
	if items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:1"); len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
}

func TestPlainTextWithoutSessionIgnored(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "hello there")
	if fx.sender.count() != 0 {
		t.Errorf("Expected no reply to plain chat, got %q", fx.sender.last())
	}
}

func TestSessionsAreKeyedPerOwner(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/add")
	// Another owner's text must not consume owner 1's session.
	fx.send("tg:2", "https://shop.example/p/1 - shopexample")
	if items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:2"); len(items) != 0 {
		t.Error("Owner 2 had no session; text should be ignored")
	}

	fx.send("tg:1", "https://shop.example/p/1 - shopexample")
	if items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:1"); len(items) != 1 {
		t.Error("Owner 1's guided add should still complete")
	}
}

func TestLaterCommandSupersedesPendingSession(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/add https://shop.example/p/1 shopexample")
	fx.send("tg:1", "/add")
	fx.send("tg:1", "/remove")
	// The pending step is now remove, not add.
	fx.send("tg:1", "1")

	if items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:1"); len(items) != 0 {
		t.Errorf("Expected item removed via guided remove, got %d items", len(items))
	}
}

func TestUnsupportedSiteNeverInserts(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/add https://shop.example/p/1 mysteryshop")

	if items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:1"); len(items) != 0 {
		t.Fatalf("Expected no insert for unsupported site, got %d items", len(items))
	}
	last := fx.sender.last()
	if !strings.Contains(last, "mysteryshop") || !strings.Contains(last, "shopexample") {
		t.Errorf("Expected error naming the site and listing known sites, got %q", last)
	}
}

func TestUnreachablePageNeverInserts(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/add https://gone.example shopexample")

	if items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:1"); len(items) != 0 {
		t.Error("Expected no insert when the page cannot be fetched")
	}
	if !strings.Contains(fx.sender.last(), "Couldn't reach") {
		t.Errorf("Expected fetch error message, got %q", fx.sender.last())
	}
}

func TestRemoveDirectAndErrors(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/add https://shop.example/p/1 shopexample")

	fx.send("tg:1", "/remove abc")
	if !strings.Contains(fx.sender.last(), "not an item id") {
		t.Errorf("Expected id parse error, got %q", fx.sender.last())
	}

	fx.send("tg:1", "/remove 99")
	if !strings.Contains(fx.sender.last(), "No item #99") {
		t.Errorf("Expected missing-item message, got %q", fx.sender.last())
	}

	fx.send("tg:1", "/remove 1")
	if !strings.Contains(fx.sender.last(), "Removed #1") {
		t.Errorf("Expected removal confirmation, got %q", fx.sender.last())
	}
}

func TestListAndClear(t *testing.T) {
	fx := newFixture(t)

	fx.send("tg:1", "/list")
	if !strings.Contains(fx.sender.last(), "empty") {
		t.Errorf("Expected empty-watchlist message, got %q", fx.sender.last())
	}

	fx.send("tg:1", "/add https://shop.example/p/1 shopexample")
	fx.send("tg:1", "/list")
	last := fx.sender.last()
	if !strings.Contains(last, "#1") || !strings.Contains(last, "https://shop.example/p/1") ||
		!strings.Contains(last, "499000") {
		t.Errorf("Expected listing with id, url and price, got %q", last)
	}

	fx.send("tg:1", "/clear")
	if !strings.Contains(fx.sender.last(), "Removed 1 item") {
		t.Errorf("Expected clear confirmation, got %q", fx.sender.last())
	}
	if items, _ := fx.watchlist.ListByOwner(context.Background(), "tg:1"); len(items) != 0 {
		t.Error("Expected watchlist cleared")
	}
}

func TestStartAndHelpShowMenu(t *testing.T) {
	fx := newFixture(t)

	for _, cmd := range []string{"/start", "/help"} {
		fx.send("tg:1", cmd)
		if !strings.Contains(fx.sender.last(), "/add <url> <site>") {
			t.Errorf("%s: expected command menu, got %q", cmd, fx.sender.last())
		}
	}
}
