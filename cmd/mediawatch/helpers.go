package main

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/MediaWatch/internal/config"
	"github.com/vadimtrunov/MediaWatch/internal/core"
	"github.com/vadimtrunov/MediaWatch/internal/extras/sabnzbd"
	"github.com/vadimtrunov/MediaWatch/internal/extras/uptimekuma"
	"github.com/vadimtrunov/MediaWatch/internal/mediaserver/jellyfin"
	"github.com/vadimtrunov/MediaWatch/internal/mediaserver/plex"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// initStatusClient creates the media server client for the configured backend.
func initStatusClient(cfg *config.Config, logger *slog.Logger) (core.StatusClient, error) {
	switch cfg.Backend {
	case "jellyfin":
		client := jellyfin.New(
			cfg.Jellyfin.URL, cfg.Jellyfin.APIKey,
			cfg.Jellyfin.Username, cfg.Jellyfin.Password,
			logger,
		)
		logger.Info("jellyfin backend initialized", slog.String("url", sanitizeURL(cfg.Jellyfin.URL)))
		return client, nil
	case "plex":
		client := plex.New(cfg.Plex.URL, cfg.Plex.Token, logger)
		logger.Info("plex backend initialized", slog.String("url", sanitizeURL(cfg.Plex.URL)))
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// initDownloads creates a SABnzbd client if configured, or returns nil.
func initDownloads(cfg *config.Config, logger *slog.Logger) core.DownloadsProvider {
	if cfg.SABnzbd == nil {
		return nil
	}
	client := sabnzbd.New(cfg.SABnzbd.URL, cfg.SABnzbd.APIKey, cfg.SABnzbd.Keywords, logger)
	logger.Info("sabnzbd client initialized", slog.String("url", sanitizeURL(cfg.SABnzbd.URL)))
	return client
}

// initUptime creates an Uptime Kuma client if configured, or returns nil.
func initUptime(cfg *config.Config, logger *slog.Logger) core.UptimeProvider {
	if cfg.UptimeKuma == nil {
		return nil
	}
	client := uptimekuma.New(cfg.UptimeKuma.URL, cfg.UptimeKuma.Slug, cfg.UptimeKuma.MonitorID, logger)
	logger.Info("uptime kuma client initialized", slog.String("url", sanitizeURL(cfg.UptimeKuma.URL)))
	return client
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
