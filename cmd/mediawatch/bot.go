package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MediaWatch/internal/config"
	"github.com/vadimtrunov/MediaWatch/internal/dashboard"
	"github.com/vadimtrunov/MediaWatch/internal/frontend/telegram"
)

// newBotCmd returns the "bot" subcommand that runs the dashboard loop.
func newBotCmd() *cobra.Command {
	var (
		dashboardInterval time.Duration
		presenceInterval  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the dashboard bot",
		Long: "Start the MediaWatch bot: it polls the media server on a schedule,\n" +
			"publishes the dashboard message, and serves admin commands on Telegram.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot(dashboardInterval, presenceInterval)
		},
	}

	cmd.Flags().DurationVar(&dashboardInterval, "dashboard-interval", time.Minute, "how often the dashboard message is refreshed")
	cmd.Flags().DurationVar(&presenceInterval, "presence-interval", 5*time.Minute, "how often the presence text is refreshed")

	return cmd
}

func runBot(dashboardInterval, presenceInterval time.Duration) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel, cfg.App.LogFile)

	client, err := initStatusClient(cfg, logger)
	if err != nil {
		return err
	}

	bot, err := telegram.New(
		cfg.Telegram.BotToken,
		cfg.Telegram.ChannelID,
		cfg.Telegram.AdminIDs,
		logger,
	)
	if err != nil {
		return err
	}

	service := dashboard.NewService(client, bot, cfg, configPath, dashboard.Options{
		Downloads: initDownloads(cfg, logger),
		Uptime:    initUptime(cfg, logger),
		Logger:    logger,
	})
	bot.SetAdminOps(service)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hot reload: swap the config into the running service on file change.
	go func() {
		err := config.Watch(ctx, configPath, logger, service.ReplaceConfig)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("config watcher stopped", slog.String("error", err.Error()))
		}
	}()

	botErrCh := make(chan error, 1)
	go func() {
		botErrCh <- bot.Start(ctx)
	}()

	logger.Info("mediawatch starting",
		slog.String("backend", cfg.Backend),
		slog.Duration("dashboard_interval", dashboardInterval),
		slog.Duration("presence_interval", presenceInterval),
	)

	scheduler := dashboard.NewScheduler(service, presenceInterval, dashboardInterval, logger)
	scheduler.Run(ctx)
	cancel()

	if botErr := <-botErrCh; botErr != nil && !errors.Is(botErr, context.Canceled) {
		return botErr
	}
	return nil
}
