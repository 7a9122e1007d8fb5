package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MediaWatch/internal/config"
	"github.com/vadimtrunov/MediaWatch/internal/dashboard"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the media server status",
		Long:  "Query the configured media server once and print its state and active streams.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel, cfg.App.LogFile)

	client, err := initStatusClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := client.Authenticate(ctx); err != nil {
		fmt.Println(styleError.Render(fmt.Sprintf("✗ %s is offline or rejected the credentials", client.Name())))
		return err
	}

	system, err := client.FetchSystemInfo(ctx)
	if err != nil {
		return fmt.Errorf("fetch system info: %w", err)
	}

	fmt.Println(styleHeader.Render(fmt.Sprintf("%s (%s)", system.Name, client.Name())))
	fmt.Printf("  %s %s\n", styleInfo.Render("Version:"), system.Version)
	fmt.Printf("  %s %s\n", styleInfo.Render("OS:     "), system.OS)
	fmt.Println(styleSuccess.Render("  ● Online"))
	fmt.Println()

	sessions, err := client.FetchSessions(ctx)
	if err != nil {
		return fmt.Errorf("fetch sessions: %w", err)
	}

	active := 0
	for _, s := range sessions {
		if s.NowPlaying != nil {
			active++
		}
	}
	if active == 0 {
		fmt.Println(styleDim.Render("No active streams."))
		return nil
	}

	fmt.Println(styleHeader.Render(fmt.Sprintf("%d active stream(s)", active)))
	idx := 0
	for _, s := range sessions {
		line, err := dashboard.FormatSession(s, idx, cfg.UserNames)
		if err != nil {
			continue
		}
		idx++
		fmt.Println(line)
	}
	return nil
}
