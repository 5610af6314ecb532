package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"

	"github.com/katitusi/clawbot/internal/adapter/config"
	"github.com/katitusi/clawbot/internal/adapter/telegram"
	"github.com/katitusi/clawbot/internal/application/relay"
	"github.com/katitusi/clawbot/internal/domain/session"
	"github.com/katitusi/clawbot/internal/infrastructure/gateway"
	"github.com/katitusi/clawbot/pkg/chunker"
	"github.com/katitusi/clawbot/pkg/health"
)

// shutdownGrace is how long in-flight deliveries get to finish after the
// update loop and health server have stopped.
const shutdownGrace = 1 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	bot, err := telego.NewBot(cfg.TelegramToken, telego.WithDiscardLogger())
	if err != nil {
		logger.Fatal("failed to create telegram bot", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := buildDependencies(cfg, bot, logger)

	go func() {
		if err := deps.healthServer.Start(); err != nil {
			logger.Error("health server failed", zap.Error(err))
		}
	}()

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		logger.Fatal("failed to start long polling", zap.Error(err))
	}

	logger.Info("clawbot is running",
		zap.Int("allowed_users", len(cfg.AllowedUsers)),
		zap.String("gateway_url", cfg.GatewayURL),
		zap.Int("health_port", cfg.HealthPort))

	go deps.handler.Run(ctx, updates)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel() // stops long polling; the update channel closes

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := deps.healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown failed", zap.Error(err))
	}

	time.Sleep(shutdownGrace)
}

// Dependencies holds the wired application components.
type Dependencies struct {
	handler      *telegram.Handler
	healthServer *health.Server
}

// buildDependencies wires the application, leaves first.
func buildDependencies(cfg *config.Config, bot *telego.Bot, logger *zap.Logger) *Dependencies {
	store := session.NewStore()
	gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewayToken, logger.Named("gateway"))
	sender := telegram.NewSender(bot, logger.Named("sender"))
	engine := chunker.New(logger.Named("chunker"))

	flow := relay.New(store, gw, sender, engine, cfg.Workspace, logger.Named("relay"))
	dispatcher := telegram.NewDispatcher(gw, store, sender, cfg.Workspace, logger.Named("commands"))
	handler := telegram.NewHandler(cfg.AllowedUsers, sender, dispatcher, flow, logger.Named("router"))

	healthServer := health.NewServer(cfg.HealthPort, store.Count, len(cfg.AllowedUsers), logger.Named("health"))

	return &Dependencies{
		handler:      handler,
		healthServer: healthServer,
	}
}

// buildLogger creates the process logger at the configured level.
func buildLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = atomicLevel
	return zapCfg.Build()
}
