// Package notifier delivers signal and backtest reports to a Telegram chat.
// Delivery is outbound-only; the bot accepts no commands.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Telegram sends messages to one configured chat. A nil *Telegram is a valid
// no-op notifier, so callers need no token-is-set branching.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// New connects to the Telegram Bot API. Returns nil when token is empty:
// notifications are optional and their absence is not an error.
func New(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	logger := log.With().Str("component", "notifier").Logger()
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier connected")

	return &Telegram{bot: bot, chatID: chatID, log: logger}, nil
}

// Send delivers one message with bounded retries. Failures are logged and
// returned; callers treat delivery as best effort.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if t == nil {
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, text)

	operation := func() error {
		_, err := t.bot.Send(msg)
		return err
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		t.log.Error().Err(err).Int64("chat_id", t.chatID).Msg("failed to deliver message")
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}
