package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vadimtrunov/MediaWatch/internal/config"
	"github.com/vadimtrunov/MediaWatch/internal/core"
)

func newTestService(t *testing.T, client *fakeClient, pub *fakePublisher) (*Service, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Backend:  "jellyfin",
		Jellyfin: &config.JellyfinConfig{URL: "http://localhost:8096", APIKey: "k"},
		Telegram: config.TelegramConfig{BotToken: "t", ChannelID: 1},
		Dashboard: config.DashboardConfig{
			Name:            "Test Dashboard",
			ShowAll:         true,
			CacheTTLSeconds: 900,
			Presence: config.PresenceConfig{
				OfflineText: "🔴 Server Offline!",
				StreamText:  "{count} active Stream{s} 🟢",
			},
		},
		App: config.AppConfig{LogLevel: "info", DataDir: dir},
	}
	svc := NewService(client, pub, cfg, filepath.Join(dir, "config.yaml"), Options{Logger: testLogger()})
	return svc, cfg
}

func TestSnapshotOnline(t *testing.T) {
	client := newFakeLibraryClient()
	client.system = core.SystemInfo{Name: "Server", Version: "1.0"}
	client.sessions = []core.Session{episodeSession(), {User: "idle"}}
	svc, _ := newTestService(t, client, &fakePublisher{})

	info := svc.Snapshot(context.Background())
	if !info.Online {
		t.Fatal("expected online snapshot")
	}
	if info.System.Name != "Server" {
		t.Errorf("unexpected system info: %+v", info.System)
	}
	if info.StreamCount != 1 {
		t.Errorf("idle sessions must not count as streams, got %d", info.StreamCount)
	}
	if len(info.Libraries) == 0 {
		t.Error("expected library stats")
	}
}

func TestSnapshotTracksOfflineSince(t *testing.T) {
	client := newFakeLibraryClient()
	client.authErr = &core.FetchError{Kind: core.FetchUnreachable, Op: "auth"}
	svc, _ := newTestService(t, client, &fakePublisher{})
	ctx := context.Background()

	first := svc.Snapshot(ctx)
	if first.Online {
		t.Fatal("expected offline snapshot")
	}
	if first.OfflineSince.IsZero() {
		t.Fatal("offline moment must be recorded")
	}

	second := svc.Snapshot(ctx)
	if !second.OfflineSince.Equal(first.OfflineSince) {
		t.Error("offline moment must be stable across cycles")
	}

	client.mu.Lock()
	client.authErr = nil
	client.mu.Unlock()

	recovered := svc.Snapshot(ctx)
	if !recovered.Online {
		t.Fatal("expected recovery")
	}
	if !recovered.OfflineSince.IsZero() {
		t.Error("recovery must clear the offline moment")
	}

	client.mu.Lock()
	client.authErr = errors.New("down again")
	client.mu.Unlock()

	again := svc.Snapshot(ctx)
	if again.OfflineSince.Equal(first.OfflineSince) {
		t.Error("a new outage must get a new offline moment")
	}
}

func TestRunCyclePublishes(t *testing.T) {
	client := newFakeLibraryClient()
	pub := &fakePublisher{}
	svc, _ := newTestService(t, client, pub)

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.sendCalls != 1 {
		t.Errorf("expected one published message, got %d", pub.sendCalls)
	}
	if pub.lastDoc.Title != "Test Dashboard" {
		t.Errorf("unexpected document title: %q", pub.lastDoc.Title)
	}
}

func TestUpdatePresenceStreams(t *testing.T) {
	client := newFakeLibraryClient()
	client.sessions = []core.Session{episodeSession(), episodeSession()}
	pub := &fakePublisher{}
	svc, _ := newTestService(t, client, pub)

	if err := svc.UpdatePresence(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pub.lastPresence(); got != "2 active Streams 🟢" {
		t.Errorf("unexpected presence: %q", got)
	}
}

func TestUpdatePresenceSingularStream(t *testing.T) {
	client := newFakeLibraryClient()
	client.sessions = []core.Session{episodeSession()}
	pub := &fakePublisher{}
	svc, _ := newTestService(t, client, pub)

	svc.UpdatePresence(context.Background())
	if got := pub.lastPresence(); got != "1 active Stream 🟢" {
		t.Errorf("unexpected presence: %q", got)
	}
}

func TestUpdatePresenceOffline(t *testing.T) {
	client := newFakeLibraryClient()
	client.authErr = errors.New("down")
	pub := &fakePublisher{}
	svc, _ := newTestService(t, client, pub)

	if err := svc.UpdatePresence(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pub.lastPresence(); got != "🔴 Server Offline!" {
		t.Errorf("unexpected presence: %q", got)
	}
}

func TestUpdatePresenceIdleRotation(t *testing.T) {
	client := newFakeLibraryClient()
	pub := &fakePublisher{}
	svc, cfg := newTestService(t, client, pub)
	cfg.Dashboard.Presence.Sections = []config.PresenceSection{
		{SectionID: "lib-movies", DisplayName: "Movies", Emoji: "🎥"},
	}

	if err := svc.UpdatePresence(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := pub.lastPresence()
	if !strings.Contains(got, "1.200 Movies 🎥") {
		t.Errorf("unexpected idle presence: %q", got)
	}
}

func TestRefreshLibraryConfig(t *testing.T) {
	client := &fakeClient{
		libraries: []core.RawLibrary{
			{ID: "lib-1", Name: "Anime Movies"},
			{ID: "lib-2", Name: "TV Shows"},
			{ID: "lib-3", Name: "Home Videos"},
		},
	}
	svc, cfg := newTestService(t, client, &fakePublisher{})
	cfg.Dashboard.Sections = map[string]config.SectionConfig{
		"lib-2": {DisplayName: "Serien", Emoji: "🌟", ShowEpisodes: false},
	}

	msg, err := svc.RefreshLibraryConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg, "3 sections") {
		t.Errorf("unexpected result message: %q", msg)
	}

	sections := cfg.Dashboard.Sections
	if sections["lib-1"].Emoji != "🎌" {
		t.Errorf("anime library must get the anime emoji, got %q", sections["lib-1"].Emoji)
	}
	if !sections["lib-1"].ShowEpisodes {
		t.Error("anime library should default to episode display")
	}
	if sections["lib-2"].DisplayName != "Serien" || sections["lib-2"].Emoji != "🌟" {
		t.Errorf("existing customization must be kept, got %+v", sections["lib-2"])
	}
	if sections["lib-3"].Emoji != defaultEmoji {
		t.Errorf("unclassified library must get the default emoji, got %q", sections["lib-3"].Emoji)
	}
	if cfg.Dashboard.ShowAll {
		t.Error("refresh must switch to explicit section mode")
	}
}

func TestRefreshLibraryConfigConnectFailure(t *testing.T) {
	client := &fakeClient{authErr: errors.New("down")}
	svc, _ := newTestService(t, client, &fakePublisher{})

	if _, err := svc.RefreshLibraryConfig(context.Background()); err == nil {
		t.Fatal("expected error when backend is unreachable")
	}
}

func TestToggleEpisodeDisplay(t *testing.T) {
	client := newFakeLibraryClient()
	svc, cfg := newTestService(t, client, &fakePublisher{})
	cfg.Dashboard.Sections = map[string]config.SectionConfig{
		"lib-movies": {DisplayName: "Movies", ShowEpisodes: false},
		"lib-shows":  {DisplayName: "Shows", ShowEpisodes: true},
	}

	msg, err := svc.ToggleEpisodeDisplay(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg, "1 of 2") {
		t.Errorf("unexpected result message: %q", msg)
	}
	if !cfg.Dashboard.Sections["lib-movies"].ShowEpisodes {
		t.Error("movies flag must flip on")
	}
	if cfg.Dashboard.Sections["lib-shows"].ShowEpisodes {
		t.Error("shows flag must flip off")
	}
}

func TestToggleEpisodeDisplayNoSections(t *testing.T) {
	svc, _ := newTestService(t, newFakeLibraryClient(), &fakePublisher{})
	if _, err := svc.ToggleEpisodeDisplay(context.Background()); err == nil {
		t.Fatal("expected error with no configured sections")
	}
}

func TestForceRefreshBypassesCache(t *testing.T) {
	client := newFakeLibraryClient()
	pub := &fakePublisher{}
	svc, _ := newTestService(t, client, pub)
	ctx := context.Background()

	svc.RunCycle(ctx)
	enumerations := client.librariesCalls

	if err := svc.ForceRefresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.librariesCalls != enumerations+1 {
		t.Errorf("force refresh must bypass the TTL, got %d enumerations", client.librariesCalls)
	}
	if pub.sendCalls+pub.editCalls != 2 {
		t.Errorf("expected two publishes, got %d", pub.sendCalls+pub.editCalls)
	}
}

func TestReplaceConfigInvalidatesCache(t *testing.T) {
	client := newFakeLibraryClient()
	svc, cfg := newTestService(t, client, &fakePublisher{})
	ctx := context.Background()

	svc.LibraryStats(ctx, false)
	svc.ReplaceConfig(cfg)
	svc.LibraryStats(ctx, false)

	if client.librariesCalls != 2 {
		t.Errorf("config replacement must invalidate the cache, got %d enumerations", client.librariesCalls)
	}
}

func TestSnapshotUptime(t *testing.T) {
	client := newFakeLibraryClient()
	svc, _ := newTestService(t, client, &fakePublisher{})
	ctx := context.Background()

	first := svc.Snapshot(ctx)
	time.Sleep(5 * time.Millisecond)
	second := svc.Snapshot(ctx)

	if second.Uptime <= first.Uptime {
		t.Error("uptime must grow between online snapshots")
	}
}
