// Package telegram adapts the Telegram Bot API to the engine's
// transport interface. It only bridges updates and sends; command
// interpretation lives in the bot router.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ashureev/pricewatch/internal/transport"
)

// Scheme prefixes telegram chat identifiers in owner strings.
const Scheme = "tg"

// Adapter bridges a telegram bot to a transport.Handler.
type Adapter struct {
	bot *tgbotapi.BotAPI
}

// New authenticates against the Bot API with the given token.
func New(token string) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	slog.Info("Telegram transport ready", "username", bot.Self.UserName)
	return &Adapter{bot: bot}, nil
}

// Run pumps inbound updates into handler until ctx is canceled.
func (a *Adapter) Run(ctx context.Context, handler transport.Handler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := a.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			msg := transport.Message{
				Owner: ownerID(update.Message.Chat.ID),
				Text:  stripBotMention(update.Message.Text, a.bot.Self.UserName),
			}
			handler.Handle(ctx, msg)
		}
	}
}

// Send implements transport.Sender for "tg:" owners.
func (a *Adapter) Send(_ context.Context, owner, text string) error {
	raw, ok := strings.CutPrefix(owner, Scheme+":")
	if !ok {
		return fmt.Errorf("owner %q is not a telegram identifier", owner)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("owner %q: bad chat id: %w", owner, err)
	}

	if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send to %s: %w", owner, err)
	}
	return nil
}

func ownerID(chatID int64) string {
	return Scheme + ":" + strconv.FormatInt(chatID, 10)
}

// stripBotMention drops a trailing @botname from slash commands so
// "/add@pricewatch_bot url site" parses like "/add url site".
func stripBotMention(text, username string) string {
	if username == "" || !strings.HasPrefix(text, "/") {
		return text
	}
	cmd, rest, _ := strings.Cut(text, " ")
	cmd = strings.TrimSuffix(cmd, "@"+username)
	if rest == "" {
		return cmd
	}
	return cmd + " " + rest
}
