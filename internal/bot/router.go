// Package bot interprets inbound chat messages: slash commands, the
// guided multi-step flows, and the per-owner conversation state machine
// that tells the two apart.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ashureev/pricewatch/internal/domain"
	"github.com/ashureev/pricewatch/internal/extract"
	"github.com/ashureev/pricewatch/internal/session"
	"github.com/ashureev/pricewatch/internal/store"
	"github.com/ashureev/pricewatch/internal/transport"
)

// PageFetcher retrieves product-page markup.
type PageFetcher interface {
	Page(ctx context.Context, url string) (string, error)
}

// Extractor turns markup into a price reading for a site.
type Extractor interface {
	Extract(markup, site string) (domain.PriceReading, error)
}

const helpText = `Commands:
/add <url> <site> — track a product page
/add — guided add (send "url - site" next)
/list — show your watchlist
/remove <id> — stop tracking an item
/remove — guided remove (send the id next)
/clear — remove all your items
/help — this message`

// Router dispatches inbound messages to commands and guided flows.
type Router struct {
	watchlist store.Watchlist
	sessions  session.Store
	registry  *extract.Registry
	fetcher   PageFetcher
	extractor Extractor
	sender    transport.Sender
}

// New creates a command router.
func New(watchlist store.Watchlist, sessions session.Store, registry *extract.Registry, fetcher PageFetcher, extractor Extractor, sender transport.Sender) *Router {
	return &Router{
		watchlist: watchlist,
		sessions:  sessions,
		registry:  registry,
		fetcher:   fetcher,
		extractor: extractor,
		sender:    sender,
	}
}

// Handle processes one inbound message. Errors are surfaced to the
// sending owner as human-readable text and never cross owners.
func (r *Router) Handle(ctx context.Context, msg transport.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		command, args, _ := strings.Cut(text[1:], " ")
		r.handleCommand(ctx, msg.Owner, strings.ToLower(command), strings.TrimSpace(args))
		return
	}

	r.handleFreeText(ctx, msg.Owner, text)
}

func (r *Router) handleCommand(ctx context.Context, owner, command, args string) {
	// Any explicit command supersedes a pending guided step.
	if _, _, err := r.sessions.Consume(ctx, owner); err != nil {
		slog.Warn("Session consume failed", "owner", owner, "error", err)
	}

	switch command {
	case "start", "help":
		r.reply(ctx, owner, helpText)
	case "add":
		if args == "" {
			r.beginSession(ctx, owner, domain.StepAwaitingAddPayload,
				`Send the item as "url - site", e.g. "https://shop.example/p/1 - shopexample"`)
			return
		}
		fields := strings.Fields(args)
		if len(fields) != 2 {
			r.reply(ctx, owner, "Usage: /add <url> <site>")
			return
		}
		r.addItem(ctx, owner, fields[0], fields[1])
	case "list":
		r.listItems(ctx, owner)
	case "remove":
		if args == "" {
			r.beginSession(ctx, owner, domain.StepAwaitingRemoveID,
				"Send the id of the item to remove (see /list)")
			return
		}
		r.removeItem(ctx, owner, args)
	case "clear":
		r.clearItems(ctx, owner)
	default:
		r.reply(ctx, owner, "Unknown command. Try /help")
	}
}

// handleFreeText resolves plain text against the owner's pending
// session. The session is consumed unconditionally: a malformed payload
// still clears it, and without a session plain chat is ignored.
func (r *Router) handleFreeText(ctx context.Context, owner, text string) {
	step, ok, err := r.sessions.Consume(ctx, owner)
	if err != nil {
		slog.Warn("Session consume failed", "owner", owner, "error", err)
		return
	}
	if !ok {
		return
	}

	switch step {
	case domain.StepAwaitingAddPayload:
		// Split on the spaced separator; URLs themselves contain hyphens.
		url, site, found := strings.Cut(text, " - ")
		url, site = strings.TrimSpace(url), strings.TrimSpace(site)
		if !found || url == "" || site == "" {
			r.reply(ctx, owner, `That doesn't look right — expected "url - site". Start over with /add`)
			return
		}
		r.addItem(ctx, owner, url, site)
	case domain.StepAwaitingRemoveID:
		r.removeItem(ctx, owner, text)
	default:
		// Unreachable unless the session store holds a step this build
		// does not know. Programming invariant, not a user error.
		slog.Error("Unknown session step", "owner", owner, "step", step,
			"error", domain.ErrUnknownSessionStep)
	}
}

func (r *Router) beginSession(ctx context.Context, owner string, step domain.SessionStep, prompt string) {
	if err := r.sessions.Begin(ctx, owner, step); err != nil {
		slog.Warn("Session begin failed", "owner", owner, "error", err)
		r.reply(ctx, owner, "Something went wrong, please try again")
		return
	}
	r.reply(ctx, owner, prompt)
}

func (r *Router) reply(ctx context.Context, owner, text string) {
	if err := r.sender.Send(ctx, owner, text); err != nil {
		slog.Warn("Reply delivery failed", "owner", owner, "error", err)
	}
}
