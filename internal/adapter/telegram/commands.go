package telegram

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/katitusi/clawbot/internal/domain/session"
	"github.com/katitusi/clawbot/internal/infrastructure/gateway"
)

const welcomeText = "🤖 *Clawbot* is ready!\n\n" +
	"I am an AI agent with access to:\n" +
	"• 📁 The filesystem (your projects)\n" +
	"• 💻 The terminal\n" +
	"• 🌐 A browser\n" +
	"• 🔧 Various tools\n\n" +
	"Just tell me what to do!\n\n" +
	"*Commands:*\n" +
	"/status — system status\n" +
	"/skills — available skills\n" +
	"/projects — project list\n" +
	"/reset — reset the session\n" +
	"/help — help"

const helpText = "📚 *Clawbot help*\n\n" +
	"*Example requests:*\n" +
	"• \"Show the structure of the projects folder\"\n" +
	"• \"Create a new Python project called myapp\"\n" +
	"• \"Find all TODOs in the code\"\n" +
	"• \"Run the tests in project X\"\n" +
	"• \"Open example.com and take a screenshot\"\n" +
	"• \"Analyze this code and find the bugs\"\n\n" +
	"*Working directories:*\n" +
	"`/home/node/projects` — your projects\n" +
	"`/home/node/workspace` — the working area\n\n" +
	"*Security:*\n" +
	"Dangerous operations run in a sandbox."

const builtinSkillsText = "🔧 *Skills*\n\n" +
	"The built-in skills are active:\n" +
	"• 📁 Filesystem\n" +
	"• 💻 Terminal\n" +
	"• 🌐 Web browser\n" +
	"• 📝 Code editing\n\n" +
	"Additional skills can be installed via clawhub."

const projectsFallbackText = "📁 *Projects*\n\n" +
	"Could not fetch the list.\n" +
	"Check that the projects folder is mounted in docker-compose.yml"

// GatewayAPI is the slice of the gateway client the commands need. All of
// these are read-only calls; a failure renders a fallback message instead of
// an error.
type GatewayAPI interface {
	Health(ctx context.Context) (*gateway.HealthInfo, error)
	Skills(ctx context.Context) ([]string, error)
	Chat(ctx context.Context, sessionID, message string, chatCtx gateway.ChatContext) (*gateway.ChatResult, error)
}

// Dispatcher routes slash-commands to their handlers.
type Dispatcher struct {
	gateway   GatewayAPI
	store     *session.Store
	sender    Messenger
	workspace string
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(gw GatewayAPI, store *session.Store, sender Messenger, workspace string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		gateway:   gw,
		store:     store,
		sender:    sender,
		workspace: workspace,
		logger:    logger,
	}
}

// Dispatch handles one slash-command message. The command word is matched
// case-insensitively; anything after the first space is ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID, userID int64, text string) {
	command := text
	if idx := strings.Index(text, " "); idx != -1 {
		command = text[:idx]
	}

	switch strings.ToLower(command) {
	case "/start":
		d.reply(ctx, chatID, welcomeText)

	case "/status":
		d.status(ctx, chatID)

	case "/skills":
		d.skills(ctx, chatID)

	case "/projects":
		d.projects(ctx, chatID)

	case "/reset":
		d.store.Delete(userID)
		d.reply(ctx, chatID, "🔄 Session reset. Starting with a clean slate!")

	case "/help":
		d.reply(ctx, chatID, helpText)

	case "/id":
		d.reply(ctx, chatID, fmt.Sprintf("🆔 Your user ID: `%d`", userID))

	default:
		d.reply(ctx, chatID, fmt.Sprintf("❓ Unknown command: %s\n\nUse /help for the command list.", command))
	}
}

// status renders the gateway health check.
func (d *Dispatcher) status(ctx context.Context, chatID int64) {
	d.typing(ctx, chatID)

	info, err := d.gateway.Health(ctx)
	if err != nil {
		d.logger.Warn("status check failed", zap.Error(err))
		d.reply(ctx, chatID, fmt.Sprintf(
			"❌ *Gateway unavailable*\n\nError: %s\n\nTry:\n`docker compose up -d openclaw-gateway`", err))
		return
	}

	version := info.Version
	if version == "" {
		version = "unknown"
	}
	uptime := "unknown"
	if info.Uptime > 0 {
		uptime = fmt.Sprintf("%d min", int64(info.Uptime)/60)
	}
	memory := "unknown"
	if info.Memory.HeapUsed > 0 {
		memory = fmt.Sprintf("%d MB", info.Memory.HeapUsed/1024/1024)
	}

	d.reply(ctx, chatID, fmt.Sprintf(
		"✅ *System status*\n\n🟢 Gateway: Online\n📦 Version: %s\n⏱ Uptime: %s\n💾 Memory: %s",
		version, uptime, memory))
}

// skills renders the gateway's installed skills, or the built-in set when
// the list is empty or the call fails.
func (d *Dispatcher) skills(ctx context.Context, chatID int64) {
	d.typing(ctx, chatID)

	skills, err := d.gateway.Skills(ctx)
	if err != nil {
		d.logger.Warn("skills list failed", zap.Error(err))
		d.reply(ctx, chatID, "🔧 *Built-in skills:*\n\n• 📁 File handling\n• 💻 Command execution\n• 🌐 Web browser\n• 📝 Code editing")
		return
	}

	if len(skills) == 0 {
		d.reply(ctx, chatID, builtinSkillsText)
		return
	}

	lines := make([]string, 0, len(skills))
	for _, skill := range skills {
		lines = append(lines, "• "+skill)
	}
	d.reply(ctx, chatID, "🔧 *Available skills:*\n\n"+strings.Join(lines, "\n"))
}

// projects asks the agent for a directory listing of the workspace.
func (d *Dispatcher) projects(ctx context.Context, chatID int64) {
	d.typing(ctx, chatID)

	query := fmt.Sprintf("List all directories in %s. Show only folder names, one per line.", d.workspace)
	result, err := d.gateway.Chat(ctx, "", query, gateway.ChatContext{
		Source: "telegram",
		Quick:  true,
	})
	if err != nil {
		d.logger.Warn("projects list failed", zap.Error(err))
		d.reply(ctx, chatID, projectsFallbackText)
		return
	}

	listing := result.Response
	if listing == "" {
		listing = "The projects folder is empty or unavailable."
	}
	d.reply(ctx, chatID, "📁 *Projects:*\n\n"+listing)
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.sender.SendText(ctx, chatID, text); err != nil {
		d.logger.Warn("failed to send command reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) typing(ctx context.Context, chatID int64) {
	if err := d.sender.SendTyping(ctx, chatID); err != nil {
		d.logger.Debug("typing indicator failed", zap.Error(err))
	}
}
