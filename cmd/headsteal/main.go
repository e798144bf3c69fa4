package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/headsteal/internal/config"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/notify"
	banboxrepo "github.com/KirkDiggler/headsteal/internal/repositories/banbox"
	"github.com/KirkDiggler/headsteal/internal/services"
)

func main() {
	if err := run(); err != nil {
		logger.Log.WithError(err).Error("Host stopped with error")
		os.Exit(1)
	}
}

func run() error {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if envErr != nil {
		logger.Log.Debug("No .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := banboxrepo.Open(ctx, banboxrepo.StoreConfig{
		RedisURL:   cfg.Store.RedisURL,
		RedisKey:   cfg.Store.RedisKey,
		SQLitePath: cfg.Store.SQLitePath,
	})
	if err != nil {
		logger.Log.WithError(err).Warn("Falling back to in-memory BanBox store")
		store, _ = banboxrepo.Open(ctx, banboxrepo.StoreConfig{})
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Log.WithError(closeErr).Warn("Failed to close BanBox store")
		}
	}()
	logger.Log.WithField("backend", store.Backend).Info("BanBox store ready")

	providerConfig := &services.ProviderConfig{
		Config:     cfg,
		Repository: store,
	}

	var relay *notify.Discord
	if cfg.Discord.Enabled() {
		dg, dgErr := discordgo.New("Bot " + cfg.Discord.Token)
		if dgErr != nil {
			return apperr.Wrap(dgErr, "failed to create discord session")
		}
		relay = notify.NewDiscord(&notify.DiscordConfig{
			Session:   dg,
			ChannelID: cfg.Discord.ChannelID,
			QueueSize: cfg.Discord.QueueSize,
		})
		providerConfig.Notifiers = append(providerConfig.Notifiers, relay)
		logger.Log.WithField("channel_id", cfg.Discord.ChannelID).Info("Relaying BanBox broadcasts to Discord")
	}

	provider, err := services.NewProvider(providerConfig)
	if err != nil {
		return err
	}
	if err := provider.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := provider.Scheduler.Run(gctx, cfg.Host.TickInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return provider.Gateway.Serve(gctx) })
	g.Go(func() error { return provider.BanBox.RunPersister(gctx) })
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	logger.Log.WithFields(logrus.Fields{
		"gateway": cfg.Host.GatewayAddr,
		"tick":    cfg.Host.TickInterval,
	}).Info("HeadSteal host is now running. Press CTRL-C to exit.")

	runErr := g.Wait()
	logger.Log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := provider.Stop(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Failed to flush BanBox records")
	}

	return runErr
}
