// Package notify delivers finished alert text to Telegram, falling back to
// a log-only sink when no credentials are configured.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sentinel/models"
)

// Telegram sends each alert as one plain-text message to a fixed chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notify").Logger(),
	}, nil
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	t.logger.Debug().Int64("chat_id", t.chatID).Msg("alert delivered")
	return nil
}

// LogSink is the no-credentials fallback: alerts land in the log instead of
// a chat, and the scanner keeps running.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{logger: log.With().Str("component", "notify").Logger()}
}

func (l *LogSink) Send(_ context.Context, text string) error {
	l.logger.Info().Str("alert", text).Msg("notification (delivery disabled)")
	return nil
}

// FromCredentials picks the Telegram notifier when both pieces are present,
// the log sink otherwise. A bad token degrades to the sink as well: missing
// delivery must never take the process down.
func FromCredentials(token string, chatID int64) models.Notifier {
	if token == "" || chatID == 0 {
		log.Warn().Msg("telegram credentials not set, alerts will only be logged")
		return NewLogSink()
	}
	tg, err := NewTelegram(token, chatID)
	if err != nil {
		log.Error().Err(err).Msg("telegram init failed, falling back to log-only alerts")
		return NewLogSink()
	}
	return tg
}
