package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	// Backend selects the media server to poll: "jellyfin" or "plex"
	Backend string `yaml:"backend"`

	// Media servers
	Jellyfin *JellyfinConfig `yaml:"jellyfin,omitempty"`
	Plex     *PlexConfig     `yaml:"plex,omitempty"`

	// Frontends
	Telegram TelegramConfig `yaml:"telegram"`

	// Dashboard rendering and caching
	Dashboard DashboardConfig `yaml:"dashboard"`

	// Optional companion services
	SABnzbd    *SABnzbdConfig    `yaml:"sabnzbd,omitempty"`
	UptimeKuma *UptimeKumaConfig `yaml:"uptime_kuma,omitempty"`

	// UserNames maps backend account names to display names
	UserNames map[string]string `yaml:"user_names,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// JellyfinConfig holds Jellyfin connection settings. APIKey is preferred;
// Username/Password is the fallback credential mode.
type JellyfinConfig struct {
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// PlexConfig holds Plex connection settings
type PlexConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken  string  `yaml:"bot_token"`
	ChannelID int64   `yaml:"channel_id"`
	AdminIDs  []int64 `yaml:"admin_ids,omitempty"`
}

// DashboardConfig holds dashboard display settings
type DashboardConfig struct {
	// Name is the dashboard branding shown in the message title
	Name string `yaml:"name"`
	// ShowAll includes libraries without an explicit section entry
	ShowAll bool `yaml:"show_all"`
	// Sections maps library IDs to their display configuration
	Sections map[string]SectionConfig `yaml:"sections,omitempty"`
	// CacheTTLSeconds bounds the staleness of library statistics
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	Presence PresenceConfig `yaml:"presence"`
}

// SectionConfig is the display configuration for one library section
type SectionConfig struct {
	DisplayName  string `yaml:"display_name"`
	Emoji        string `yaml:"emoji"`
	Color        string `yaml:"color,omitempty"`
	ShowEpisodes bool   `yaml:"show_episodes"`
}

// PresenceConfig holds the presence text templates. StreamText supports
// {count} and {s} placeholders.
type PresenceConfig struct {
	OfflineText string            `yaml:"offline_text"`
	StreamText  string            `yaml:"stream_text"`
	Sections    []PresenceSection `yaml:"sections,omitempty"`
}

// PresenceSection names a library whose item count rotates through the
// idle presence text.
type PresenceSection struct {
	SectionID   string `yaml:"section_id"`
	DisplayName string `yaml:"display_name"`
	Emoji       string `yaml:"emoji"`
}

// SABnzbdConfig holds SABnzbd configuration. Keywords trim release tags
// from download names before display.
type SABnzbdConfig struct {
	URL      string   `yaml:"url"`
	APIKey   string   `yaml:"api_key"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// UptimeKumaConfig holds Uptime Kuma status page settings
type UptimeKumaConfig struct {
	URL       string `yaml:"url"`
	Slug      string `yaml:"slug"`
	MonitorID int64  `yaml:"monitor_id"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"`          // "debug", "info", "warn", "error"
	LogFile  string `yaml:"log_file,omitempty"` // rotating log file, stdout when empty
	DataDir  string `yaml:"data_dir"`           // directory for dashboard state
}

// DefaultSABnzbdKeywords trim common release tags from download names.
var DefaultSABnzbdKeywords = []string{"AC3", "DL", "German", "1080p", "2160p", "4K", "GERMAN"}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration back to disk. The write goes through a
// temporary file and a rename so admin mutations never leave a torn file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MEDIAWATCH_BACKEND"); v != "" {
		c.Backend = v
	}

	// Jellyfin
	if c.Jellyfin != nil {
		if v := os.Getenv("MEDIAWATCH_JELLYFIN_URL"); v != "" {
			c.Jellyfin.URL = v
		}
		if v := os.Getenv("MEDIAWATCH_JELLYFIN_API_KEY"); v != "" {
			c.Jellyfin.APIKey = v
		}
		if v := os.Getenv("MEDIAWATCH_JELLYFIN_USERNAME"); v != "" {
			c.Jellyfin.Username = v
		}
		if v := os.Getenv("MEDIAWATCH_JELLYFIN_PASSWORD"); v != "" {
			c.Jellyfin.Password = v
		}
	}

	// Plex
	if c.Plex != nil {
		if v := os.Getenv("MEDIAWATCH_PLEX_URL"); v != "" {
			c.Plex.URL = v
		}
		if v := os.Getenv("MEDIAWATCH_PLEX_TOKEN"); v != "" {
			c.Plex.Token = v
		}
	}

	// Telegram
	if v := os.Getenv("MEDIAWATCH_TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("MEDIAWATCH_TELEGRAM_CHANNEL_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChannelID = id
		}
	}

	// SABnzbd
	if c.SABnzbd != nil {
		if v := os.Getenv("MEDIAWATCH_SABNZBD_URL"); v != "" {
			c.SABnzbd.URL = v
		}
		if v := os.Getenv("MEDIAWATCH_SABNZBD_API_KEY"); v != "" {
			c.SABnzbd.APIKey = v
		}
	}

	// App
	if v := os.Getenv("MEDIAWATCH_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("MEDIAWATCH_DATA_DIR"); v != "" {
		c.App.DataDir = v
	}
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	switch c.Backend {
	case "jellyfin":
		if c.Jellyfin == nil {
			return fmt.Errorf("backend is 'jellyfin' but no jellyfin section is configured")
		}
		if c.Jellyfin.URL == "" {
			return fmt.Errorf("jellyfin.url is required")
		}
		if c.Jellyfin.APIKey == "" && (c.Jellyfin.Username == "" || c.Jellyfin.Password == "") {
			return fmt.Errorf("jellyfin requires api_key or username/password")
		}
	case "plex":
		if c.Plex == nil {
			return fmt.Errorf("backend is 'plex' but no plex section is configured")
		}
		if c.Plex.URL == "" {
			return fmt.Errorf("plex.url is required")
		}
		if c.Plex.Token == "" {
			return fmt.Errorf("plex.token is required")
		}
	case "":
		return fmt.Errorf("backend is required ('jellyfin' or 'plex')")
	default:
		return fmt.Errorf("backend must be 'jellyfin' or 'plex', got '%s'", c.Backend)
	}

	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChannelID == 0 {
		return fmt.Errorf("telegram.channel_id is required")
	}

	if c.UptimeKuma != nil {
		if c.UptimeKuma.URL == "" || c.UptimeKuma.Slug == "" {
			return fmt.Errorf("uptime_kuma requires url and slug")
		}
	}

	// Set defaults
	if c.Dashboard.Name == "" {
		c.Dashboard.Name = "MediaWatch Dashboard"
	}
	if c.Dashboard.CacheTTLSeconds <= 0 {
		c.Dashboard.CacheTTLSeconds = 900
	}
	if c.Dashboard.Presence.OfflineText == "" {
		c.Dashboard.Presence.OfflineText = "🔴 Server Offline!"
	}
	if c.Dashboard.Presence.StreamText == "" {
		c.Dashboard.Presence.StreamText = "{count} active Stream{s} 🟢"
	}
	if c.SABnzbd != nil && len(c.SABnzbd.Keywords) == 0 {
		c.SABnzbd.Keywords = DefaultSABnzbdKeywords
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		c.App.DataDir = filepath.Join(homeDir, ".mediawatch")
	}

	return nil
}
