package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vadimtrunov/MediaWatch/internal/config"
	"github.com/vadimtrunov/MediaWatch/internal/core"
)

// Service owns the dashboard pipeline: it assembles status snapshots from
// the backend, renders them, and hands the result to the reconciler. It
// also carries the admin operations the command layer exposes.
type Service struct {
	client     core.StatusClient
	cache      *Cache
	reconciler *Reconciler
	publisher  core.Publisher
	downloads  core.DownloadsProvider
	uptime     core.UptimeProvider
	logger     *slog.Logger

	cfgMu   sync.Mutex
	cfg     *config.Config
	cfgPath string

	stateMu      sync.Mutex
	startTime    time.Time // first successful connect, zeroed while offline
	offlineSince time.Time

	cycleInFlight atomic.Bool
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Downloads core.DownloadsProvider
	Uptime    core.UptimeProvider
	Logger    *slog.Logger
}

// NewService wires the dashboard pipeline together. cfgPath is where admin
// mutations persist the configuration back to.
func NewService(client core.StatusClient, publisher core.Publisher, cfg *config.Config, cfgPath string, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache := NewCache(client, time.Duration(cfg.Dashboard.CacheTTLSeconds)*time.Second, logger)
	store := NewStateStore(cfg.App.DataDir)

	return &Service{
		client:     client,
		cache:      cache,
		reconciler: NewReconciler(publisher, store, logger),
		publisher:  publisher,
		downloads:  opts.Downloads,
		uptime:     opts.Uptime,
		logger:     logger,
		cfg:        cfg,
		cfgPath:    cfgPath,
	}
}

// ReplaceConfig swaps in a new configuration, used by hot reload. The
// cache is invalidated so new section settings take effect next cycle.
func (s *Service) ReplaceConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	s.cache.Invalidate()
}

func (s *Service) configSnapshot() *config.Config {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	return s.cfg
}

// Snapshot assembles the backend-agnostic status view for one cycle. A
// backend that cannot be reached or authenticated yields an offline
// snapshot rather than an error; only context cancellation aborts.
func (s *Service) Snapshot(ctx context.Context) core.ServerInfo {
	cfg := s.configSnapshot()

	if err := s.client.Authenticate(ctx); err != nil {
		if ctx.Err() != nil {
			return core.ServerInfo{}
		}
		s.logger.Warn("backend unreachable", "backend", s.client.Name(), "error", err)
		return s.offlineInfo()
	}

	system, err := s.client.FetchSystemInfo(ctx)
	if err != nil {
		s.logger.Warn("system info fetch failed", "error", err)
		return s.offlineInfo()
	}

	sessions, err := s.client.FetchSessions(ctx)
	if err != nil {
		s.logger.Warn("session fetch failed", "error", err)
		return s.offlineInfo()
	}

	// A failed refresh already logged inside the cache; stale stats are
	// still worth showing.
	stats, _ := s.cache.Stats(ctx, false, cfg.Dashboard.Sections, cfg.Dashboard.ShowAll)

	s.stateMu.Lock()
	s.offlineSince = time.Time{}
	if s.startTime.IsZero() {
		s.startTime = time.Now()
	}
	uptime := time.Since(s.startTime)
	s.stateMu.Unlock()

	return core.ServerInfo{
		Online:      true,
		System:      system,
		Uptime:      uptime,
		StreamCount: countActive(sessions),
		Libraries:   stats,
		Sessions:    sessions,
	}
}

// offlineInfo tracks the first moment the server was observed offline and
// reuses it until connectivity returns.
func (s *Service) offlineInfo() core.ServerInfo {
	s.stateMu.Lock()
	if s.offlineSince.IsZero() {
		s.offlineSince = time.Now()
	}
	since := s.offlineSince
	s.startTime = time.Time{}
	s.stateMu.Unlock()

	return core.ServerInfo{
		Online:       false,
		OfflineSince: since,
	}
}

// RunCycle executes one full fetch, render, reconcile pass. A cycle that
// would overlap a still-running one is skipped, keeping a single
// reconciliation in flight.
func (s *Service) RunCycle(ctx context.Context) error {
	if !s.cycleInFlight.CompareAndSwap(false, true) {
		s.logger.Debug("dashboard cycle already in flight, skipping")
		return nil
	}
	defer s.cycleInFlight.Store(false)

	cfg := s.configSnapshot()
	info := s.Snapshot(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	extras := s.fetchExtras(ctx)
	doc := Render(info, extras, cfg.Dashboard.Name, cfg.UserNames, time.Now())

	if err := s.reconciler.Publish(ctx, doc); err != nil {
		return fmt.Errorf("publish dashboard: %w", err)
	}
	return nil
}

// fetchExtras collects the optional companion summaries. Providers are
// best-effort; a failing one just drops its section for this cycle.
func (s *Service) fetchExtras(ctx context.Context) Extras {
	var extras Extras
	if s.downloads != nil {
		summary, err := s.downloads.FetchDownloads(ctx)
		if err != nil {
			s.logger.Warn("downloads fetch failed", "error", err)
		} else {
			extras.Downloads = summary
		}
	}
	if s.uptime != nil {
		summary, err := s.uptime.FetchUptime(ctx)
		if err != nil {
			s.logger.Warn("uptime fetch failed", "error", err)
		} else {
			extras.Uptime = summary
		}
	}
	return extras
}

// UpdatePresence refreshes the lightweight status indicator. It fetches
// only the session list, not the full pipeline.
func (s *Service) UpdatePresence(ctx context.Context) error {
	cfg := s.configSnapshot()
	presence := cfg.Dashboard.Presence

	text := presence.OfflineText
	if err := s.client.Authenticate(ctx); err == nil {
		sessions, err := s.client.FetchSessions(ctx)
		if err != nil {
			return fmt.Errorf("fetch sessions: %w", err)
		}
		if count := countActive(sessions); count > 0 {
			text = expandPresence(presence.StreamText, count)
		} else {
			text = s.idlePresence(ctx, cfg)
		}
	} else if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := s.publisher.SetPresence(ctx, text); err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	s.logger.Debug("presence updated", "text", text)
	return nil
}

// idlePresence rotates the configured library counts into the presence
// line when nothing is playing.
func (s *Service) idlePresence(ctx context.Context, cfg *config.Config) string {
	stats, _ := s.cache.Stats(ctx, false, cfg.Dashboard.Sections, cfg.Dashboard.ShowAll)

	var parts []string
	for _, section := range cfg.Dashboard.Presence.Sections {
		stat, ok := stats[section.SectionID]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", GroupThousands(stat.ItemCount), section.DisplayName, section.Emoji))
	}
	if len(parts) == 0 {
		return "No streams or sections configured"
	}
	return strings.Join(parts, " | ")
}

// expandPresence fills the {count} and {s} placeholders of a presence
// template.
func expandPresence(template string, count int) string {
	out := strings.ReplaceAll(template, "{count}", strconv.Itoa(count))
	return strings.ReplaceAll(out, "{s}", plural(count))
}

func countActive(sessions []core.Session) int {
	n := 0
	for _, s := range sessions {
		if s.NowPlaying != nil {
			n++
		}
	}
	return n
}

// RefreshLibraryConfig re-enumerates the backend's libraries and rebuilds
// the section configuration, keeping existing customizations and assigning
// emoji to new libraries by name keyword. The result is persisted and the
// cache invalidated.
func (s *Service) RefreshLibraryConfig(ctx context.Context) (string, error) {
	if err := s.client.Authenticate(ctx); err != nil {
		return "", fmt.Errorf("connect to %s: %w", s.client.Name(), err)
	}
	libs, err := s.client.FetchLibraries(ctx)
	if err != nil {
		return "", fmt.Errorf("enumerate libraries: %w", err)
	}

	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	sections := make(map[string]config.SectionConfig, len(libs))
	for _, lib := range libs {
		kind, emoji := ClassifyLibrary(lib.Name)
		section := config.SectionConfig{
			DisplayName:  lib.Name,
			Emoji:        emoji,
			ShowEpisodes: EpisodesByDefault(kind),
		}
		if existing, ok := s.cfg.Dashboard.Sections[lib.ID]; ok {
			section = existing
		}
		sections[lib.ID] = section
	}

	s.cfg.Dashboard.Sections = sections
	s.cfg.Dashboard.ShowAll = false

	if err := s.cfg.Save(s.cfgPath); err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}
	s.cache.Invalidate()

	return fmt.Sprintf("Updated library configuration with %d section%s.", len(sections), plural(len(sections))), nil
}

// ToggleEpisodeDisplay flips the episode display flag on every configured
// section and persists the result.
func (s *Service) ToggleEpisodeDisplay(ctx context.Context) (string, error) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	if len(s.cfg.Dashboard.Sections) == 0 {
		return "", errors.New("no library sections configured")
	}

	enabled := 0
	for id, section := range s.cfg.Dashboard.Sections {
		section.ShowEpisodes = !section.ShowEpisodes
		s.cfg.Dashboard.Sections[id] = section
		if section.ShowEpisodes {
			enabled++
		}
	}

	if err := s.cfg.Save(s.cfgPath); err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}
	s.cache.Invalidate()

	return fmt.Sprintf("Episode display toggled: now enabled for %d of %d sections.", enabled, len(s.cfg.Dashboard.Sections)), nil
}

// ForceRefresh invalidates the cache and runs one full dashboard cycle
// immediately.
func (s *Service) ForceRefresh(ctx context.Context) error {
	s.cache.Invalidate()
	return s.RunCycle(ctx)
}

// LibraryStats exposes the current (possibly cached) statistics, used by
// the status command and the MCP tools.
func (s *Service) LibraryStats(ctx context.Context, force bool) (map[string]core.LibraryStat, error) {
	cfg := s.configSnapshot()
	return s.cache.Stats(ctx, force, cfg.Dashboard.Sections, cfg.Dashboard.ShowAll)
}
