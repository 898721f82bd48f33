// Package ws provides a websocket dev console speaking the same
// transport interface as the telegram adapter. It lets the engine run
// end to end without a bot token: connect, type commands, read replies.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/ashureev/pricewatch/internal/transport"
)

// Scheme prefixes console connection identifiers in owner strings.
const Scheme = "ws"

// Console accepts websocket connections and bridges text frames to the
// message handler. One connection is one owner.
type Console struct {
	handler transport.Handler

	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

// NewConsole creates a console bound to the given handler.
func NewConsole(handler transport.Handler) *Console {
	return &Console{
		handler: handler,
		conns:   make(map[string]*websocket.Conn),
	}
}

// ServeHTTP upgrades the request and pumps inbound frames until the
// client disconnects.
func (c *Console) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("Console websocket accept failed", "error", err)
		return
	}

	owner := Scheme + ":" + uuid.NewString()
	c.register(owner, conn)
	defer func() {
		c.unregister(owner)
		_ = conn.Close(websocket.StatusNormalClosure, "console closed")
	}()

	slog.Info("Console session opened", "owner", owner)
	_ = conn.Write(r.Context(), websocket.MessageText,
		[]byte("connected as "+owner+" — type /help"))

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			if websocket.CloseStatus(err) == -1 && r.Context().Err() == nil {
				slog.Warn("Console read failed", "owner", owner, "error", err)
			}
			slog.Info("Console session closed", "owner", owner)
			return
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		c.handler.Handle(r.Context(), transport.Message{Owner: owner, Text: text})
	}
}

// Send implements transport.Sender for "ws:" owners.
func (c *Console) Send(ctx context.Context, owner, text string) error {
	c.mu.RLock()
	conn, ok := c.conns[owner]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("console session %q is gone", owner)
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		return fmt.Errorf("console send to %s: %w", owner, err)
	}
	return nil
}

func (c *Console) register(owner string, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[owner] = conn
}

func (c *Console) unregister(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, owner)
}
