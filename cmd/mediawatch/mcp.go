package main

import (
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MediaWatch/internal/config"
	"github.com/vadimtrunov/MediaWatch/internal/dashboard"
	"github.com/vadimtrunov/MediaWatch/internal/frontend/telegram"
	mcpserver "github.com/vadimtrunov/MediaWatch/internal/mcp"
)

// newMCPServeCmd returns the hidden "mcp-serve" subcommand. It exposes the
// dashboard operations as MCP tools over stdin/stdout.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start MCP server over stdio (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			srv := mcpserver.NewServer(mcpserver.Deps{Dashboard: service}, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
