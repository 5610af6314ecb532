// Package relay drives the lifecycle of one free-text message: typing
// keepalive, session continuity, the gateway call, and chunked delivery of
// the reply.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katitusi/clawbot/internal/domain/session"
	"github.com/katitusi/clawbot/internal/infrastructure/gateway"
	"github.com/katitusi/clawbot/pkg/chunker"
)

// typingInterval is how often the typing indicator is refreshed while a
// gateway call is in flight.
const typingInterval = 4 * time.Second

const emptyReplyText = "Received an empty response from the agent."

const (
	authErrorNotice = "🔐 *Authorization error*\n\n" +
		"Check CLAWBOT\\_GATEWAY\\_TOKEN in your .env file."
	unreachableNotice = "🔌 *Gateway unavailable*\n\n" +
		"Start it with:\n`docker compose up -d openclaw-gateway`"
	timeoutNotice = "⏱ *Timeout*\n\n" +
		"The operation took too long. Try splitting the task into smaller parts."
)

// Gateway is the slice of the gateway client the relay needs.
type Gateway interface {
	Chat(ctx context.Context, sessionID, message string, chatCtx gateway.ChatContext) (*gateway.ChatResult, error)
}

// Messenger is the outbound chat platform surface the relay needs.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendTyping(ctx context.Context, chatID int64) error
}

// Relay handles free-text messages bound for the agent.
type Relay struct {
	store          *session.Store
	gateway        Gateway
	messenger      Messenger
	chunks         *chunker.Engine
	workspace      string
	typingInterval time.Duration
	logger         *zap.Logger
}

// New creates a Relay. workspace is reported to the gateway as the agent's
// working directory for this chat.
func New(store *session.Store, gw Gateway, messenger Messenger, chunks *chunker.Engine, workspace string, logger *zap.Logger) *Relay {
	return &Relay{
		store:          store,
		gateway:        gw,
		messenger:      messenger,
		chunks:         chunks,
		workspace:      workspace,
		typingInterval: typingInterval,
		logger:         logger,
	}
}

// HandleMessage runs the full flow for one inbound free-text message. It
// never returns an error: every failure is reported to the user as a
// diagnostic notice and the flow ends. There is no retry.
func (r *Relay) HandleMessage(ctx context.Context, chatID, userID int64, text string) {
	logger := r.logger.With(
		zap.String("message_id", uuid.NewString()),
		zap.Int64("user_id", userID),
	)

	stopTyping := r.startTypingKeepalive(ctx, chatID, logger)
	defer stopTyping()

	sess := r.store.GetOrCreate(userID)

	result, err := r.gateway.Chat(ctx, sess.RemoteID(), text, gateway.ChatContext{
		Source:    "telegram",
		UserID:    userID,
		Workspace: r.workspace,
	})
	stopTyping()
	if err != nil {
		r.reportFailure(ctx, chatID, err, logger)
		return
	}

	if result.SessionID != "" {
		sess.SetRemoteID(result.SessionID)
	}
	sess.Append(text, result.Response)

	reply := result.Response
	if reply == "" {
		reply = emptyReplyText
	}

	logger.Info("agent reply received", zap.Int("reply_len", len(reply)))

	err = r.chunks.Deliver(ctx, reply, func(ctx context.Context, content string) error {
		return r.messenger.SendText(ctx, chatID, content)
	})
	if err != nil {
		logger.Warn("reply delivery interrupted", zap.Error(err))
	}
}

// startTypingKeepalive signals one typing indicator immediately and then
// refreshes it on a ticker until the returned stop function is called. Stop
// is idempotent so the success path may cancel early while the deferred call
// still covers failure and panic paths. Indicator failures are logged and
// never abort the flow.
func (r *Relay) startTypingKeepalive(ctx context.Context, chatID int64, logger *zap.Logger) func() {
	typingCtx, cancel := context.WithCancel(ctx)

	if err := r.messenger.SendTyping(typingCtx, chatID); err != nil {
		logger.Debug("typing indicator failed", zap.Error(err))
	}

	go func() {
		ticker := time.NewTicker(r.typingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-typingCtx.Done():
				return
			case <-ticker.C:
				if err := r.messenger.SendTyping(typingCtx, chatID); err != nil {
					logger.Debug("typing indicator failed", zap.Error(err))
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}
}

// reportFailure sends exactly one user-visible diagnostic per error kind.
func (r *Relay) reportFailure(ctx context.Context, chatID int64, err error, logger *zap.Logger) {
	logger.Error("gateway chat failed", zap.Error(err))

	var notice string
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		switch gwErr.Kind {
		case gateway.KindAuth:
			notice = authErrorNotice
		case gateway.KindUnreachable:
			notice = unreachableNotice
		case gateway.KindTimeout:
			notice = timeoutNotice
		default:
			notice = fmt.Sprintf("❌ Error: %s", gwErr.Message)
		}
	} else {
		notice = fmt.Sprintf("❌ Error: %s", err)
	}

	if sendErr := r.messenger.SendText(ctx, chatID, notice); sendErr != nil {
		logger.Warn("failed to send error notice", zap.Error(sendErr))
	}
}
