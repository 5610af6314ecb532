package telegram

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
)

const (
	deniedNotice     = "⛔ Access denied. You are not authorized to use this bot."
	attachmentNotice = "📎 File received. File uploads are not supported yet."
)

// Messenger is the outbound surface shared by the router and the command
// dispatcher. *Sender satisfies it.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendTyping(ctx context.Context, chatID int64) error
}

// AgentFlow handles free-text messages bound for the agent.
type AgentFlow interface {
	HandleMessage(ctx context.Context, chatID, userID int64, text string)
}

// CommandRunner handles slash-command messages. *Dispatcher satisfies it.
type CommandRunner interface {
	Dispatch(ctx context.Context, chatID, userID int64, text string)
}

// Handler routes inbound Telegram updates: allow-list gate first, then
// command dispatch or the agent flow.
type Handler struct {
	allowed  map[int64]bool
	sender   Messenger
	commands CommandRunner
	flow     AgentFlow
	logger   *zap.Logger
}

// NewHandler creates a Handler. allowedUsers is fixed for the process
// lifetime.
func NewHandler(allowedUsers []int64, sender Messenger, commands CommandRunner, flow AgentFlow, logger *zap.Logger) *Handler {
	allowed := make(map[int64]bool, len(allowedUsers))
	for _, id := range allowedUsers {
		allowed[id] = true
	}
	return &Handler{
		allowed:  allowed,
		sender:   sender,
		commands: commands,
		flow:     flow,
		logger:   logger,
	}
}

// Run consumes updates until the channel closes. Each message is handled in
// its own goroutine so a slow agent call never blocks other users.
func (h *Handler) Run(ctx context.Context, updates <-chan telego.Update) {
	for update := range updates {
		if update.Message == nil {
			continue
		}
		msg := update.Message
		go h.handle(ctx, msg)
	}
}

// handle processes one inbound message. A panic is logged and dropped; it
// must never take down the update loop.
func (h *Handler) handle(ctx context.Context, msg *telego.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic while handling message",
				zap.Any("panic", rec),
				zap.Stack("stack"))
		}
	}()

	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !h.allowed[userID] {
		h.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", userID),
			zap.String("username", msg.From.Username))
		if err := h.sender.SendText(ctx, chatID, deniedNotice); err != nil {
			h.logger.Warn("failed to send denial notice", zap.Error(err))
		}
		return
	}

	text := msg.Text
	if text == "" {
		if msg.Document != nil {
			if err := h.sender.SendText(ctx, chatID, attachmentNotice); err != nil {
				h.logger.Warn("failed to acknowledge attachment", zap.Error(err))
			}
		}
		return
	}

	h.logger.Info("message received",
		zap.Int64("user_id", userID),
		zap.String("preview", preview(text, 100)))

	if strings.HasPrefix(text, "/") {
		h.commands.Dispatch(ctx, chatID, userID, text)
		return
	}

	h.flow.HandleMessage(ctx, chatID, userID, text)
}

// preview returns text truncated to maxLen with "..." suffix for log lines.
func preview(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
