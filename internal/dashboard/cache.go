package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimtrunov/MediaWatch/internal/config"
	"github.com/vadimtrunov/MediaWatch/internal/core"
)

// Cache holds per-library item counts behind a TTL window so the expensive
// count queries run at most once per interval. A failed refresh keeps the
// previous statistics: stale data beats an empty dashboard.
type Cache struct {
	client core.StatusClient
	ttl    time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	stats       map[string]core.LibraryStat
	lastRefresh time.Time
}

// NewCache creates a library statistics cache over the given backend.
func NewCache(client core.StatusClient, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Stats returns the library statistics, refreshing them when the TTL has
// expired or force is set. sections and showAll are the display
// configuration snapshot for this call. On refresh failure the last good
// statistics are returned alongside the error; the caller decides whether
// staleness is acceptable.
func (c *Cache) Stats(ctx context.Context, force bool, sections map[string]config.SectionConfig, showAll bool) (map[string]core.LibraryStat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.stats != nil && time.Since(c.lastRefresh) <= c.ttl {
		return c.snapshot(), nil
	}

	fresh, err := c.refresh(ctx, sections, showAll)
	if err != nil {
		c.logger.Warn("library refresh failed, serving stale stats", "error", err)
		return c.snapshot(), err
	}

	c.stats = fresh
	c.lastRefresh = time.Now()
	c.logger.Info("library stats refreshed", "libraries", len(fresh), "ttl", c.ttl)
	return c.snapshot(), nil
}

// Invalidate forces the next Stats call to refresh. Admin mutations call
// this after changing the section configuration.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRefresh = time.Time{}
}

// refresh enumerates libraries and counts their items. Any fetch failure
// aborts the whole refresh so the cache is never partially overwritten.
func (c *Cache) refresh(ctx context.Context, sections map[string]config.SectionConfig, showAll bool) (map[string]core.LibraryStat, error) {
	libs, err := c.client.FetchLibraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate libraries: %w", err)
	}

	stats := make(map[string]core.LibraryStat, len(libs))
	for _, lib := range libs {
		section, configured := sections[lib.ID]
		if !configured {
			if !showAll {
				continue
			}
			section = config.SectionConfig{
				DisplayName: lib.Name,
				Emoji:       defaultEmoji,
			}
		}

		counts, err := c.client.CountItems(ctx, lib, section.ShowEpisodes)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", lib.Name, err)
		}

		stats[lib.ID] = core.LibraryStat{
			ID:           lib.ID,
			DisplayName:  section.DisplayName,
			Emoji:        section.Emoji,
			ItemCount:    counts.Items,
			EpisodeCount: counts.Episodes,
			ShowEpisodes: section.ShowEpisodes,
		}
	}
	return stats, nil
}

// snapshot copies the cached map so callers never see a later refresh
// mutate what they hold.
func (c *Cache) snapshot() map[string]core.LibraryStat {
	out := make(map[string]core.LibraryStat, len(c.stats))
	for id, stat := range c.stats {
		out[id] = stat
	}
	return out
}
