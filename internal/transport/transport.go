// Package transport defines the narrow chat-transport surface the
// engine consumes. Adapters live in subpackages.
package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Message is one inbound chat message. Owner is the opaque identifier
// the watchlist and sessions are keyed by; adapters prefix it with
// their scheme ("tg:", "ws:") so outbound sends route back correctly.
type Message struct {
	Owner string
	Text  string
}

// Handler consumes inbound messages.
type Handler interface {
	Handle(ctx context.Context, msg Message)
}

// Sender delivers outbound text to an owner.
type Sender interface {
	Send(ctx context.Context, owner, text string) error
}

// Mux routes outbound sends to the adapter owning the identifier's
// scheme prefix.
type Mux struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

// NewMux creates an empty sender mux.
func NewMux() *Mux {
	return &Mux{senders: make(map[string]Sender)}
}

// RegisterSender binds a scheme prefix (for example "tg") to a sender.
func (m *Mux) RegisterSender(scheme string, s Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[scheme] = s
}

// Send routes text to the adapter for owner's scheme.
func (m *Mux) Send(ctx context.Context, owner, text string) error {
	scheme, _, ok := strings.Cut(owner, ":")
	if !ok {
		return fmt.Errorf("owner %q has no transport scheme", owner)
	}

	m.mu.RLock()
	sender, found := m.senders[scheme]
	m.mu.RUnlock()
	if !found {
		return fmt.Errorf("no transport registered for scheme %q", scheme)
	}
	return sender.Send(ctx, owner, text)
}
