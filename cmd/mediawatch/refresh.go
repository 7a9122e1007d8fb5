package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MediaWatch/internal/config"
	"github.com/vadimtrunov/MediaWatch/internal/dashboard"
	"github.com/vadimtrunov/MediaWatch/internal/frontend/telegram"
)

// newRefreshCmd returns the "refresh" subcommand that publishes one
// dashboard update and exits.
func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Publish a dashboard update once",
		Long: "Run a single dashboard cycle: poll the media server, rebuild the\n" +
			"statistics, and publish the message. Useful from cron or for testing.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRefresh()
		},
	}
}

func runRefresh() error {
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := service.ForceRefresh(ctx); err != nil {
		return fmt.Errorf("dashboard refresh: %w", err)
	}

	fmt.Println(styleSuccess.Render("✓ Dashboard updated"))
	return nil
}
