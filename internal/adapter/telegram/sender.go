// Package telegram adapts the Telegram Bot API to the relay: it routes
// inbound updates, dispatches slash-commands, and sends outbound messages
// with Markdown-to-plain fallback.
package telegram

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
)

// api is the slice of the Telegram Bot API the adapter uses. *telego.Bot
// satisfies it; tests swap in fakes.
type api interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendChatAction(ctx context.Context, params *telego.SendChatActionParams) error
}

// Sender delivers outbound messages. Markdown rendering may be rejected by
// Telegram on malformed markup, so every send is retried in plain text
// before the failure is reported to the caller.
type Sender struct {
	bot    api
	logger *zap.Logger
}

// NewSender creates a Sender over bot.
func NewSender(bot *telego.Bot, logger *zap.Logger) *Sender {
	return &Sender{
		bot:    bot,
		logger: logger,
	}
}

// SendText sends text to a chat, trying Markdown first and falling back to
// plain text. The returned error is the plain-text failure; the Markdown
// rejection is only logged.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeMarkdown,
	})
	if err == nil {
		return nil
	}

	s.logger.Debug("markdown send rejected, retrying as plain text",
		zap.Int64("chat_id", chatID),
		zap.Error(err))

	_, err = s.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendTyping signals the "typing..." indicator for a chat.
func (s *Sender) SendTyping(ctx context.Context, chatID int64) error {
	return s.bot.SendChatAction(ctx, &telego.SendChatActionParams{
		ChatID: telego.ChatID{ID: chatID},
		Action: telego.ChatActionTyping,
	})
}
