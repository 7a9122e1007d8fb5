package plex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vadimtrunov/MediaWatch/internal/core"
	"github.com/vadimtrunov/MediaWatch/internal/httpclient"
	"github.com/vadimtrunov/MediaWatch/internal/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastHTTP() *httpclient.Client {
	cfg := httpclient.Config{
		Retry: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Millisecond,
			MaxDelay:    10 * time.Millisecond,
		},
		ConnectTimeout: time.Second,
		Timeout:        5 * time.Second,
	}
	return httpclient.New(cfg, testLogger())
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &Client{
		baseURL: server.URL,
		token:   "plex-token",
		http:    fastHTTP(),
		logger:  testLogger(),
	}
}

func TestAuthenticate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/identity" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Plex-Token") != "plex-token" {
			t.Errorf("expected token header, got %q", r.Header.Get("X-Plex-Token"))
		}
		json.NewEncoder(w).Encode(plexIdentityResponse{
			MediaContainer: plexIdentity{MachineIdentifier: "abc123"},
		})
	}))

	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := client.Authenticate(context.Background())
	if !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateNoToken(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())
	client.token = ""

	if err := client.Authenticate(context.Background()); err == nil {
		t.Fatal("expected error when no token is configured")
	}
}

func TestFetchSystemInfo(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(plexRootResponse{
			MediaContainer: plexRoot{
				FriendlyName: "Living Room",
				Version:      "1.40.1",
				Platform:     "Linux",
			},
		})
	}))

	info, err := client.FetchSystemInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "Living Room" || info.Version != "1.40.1" || info.OS != "Linux" {
		t.Errorf("unexpected system info: %+v", info)
	}
}

func TestFetchSessionsNormalization(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status/sessions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(plexSessionsResponse{
			MediaContainer: plexSessionContainer{
				Size: 2,
				Metadata: []plexMetadata{
					{
						Title:            "The Beginning",
						Type:             "episode",
						GrandparentTitle: "Foo",
						ParentIndex:      2,
						Index:            5,
						ViewOffset:       600_000,
						Duration:         1_200_000,
						User:             plexUser{Title: "alice"},
						Player:           plexPlayer{Product: "Plex Web", State: "paused"},
						Media: []plexMedia{
							{Width: 1920, Height: 1080, Bitrate: 8000, VideoResolution: "1080"},
						},
						TranscodeSession: &plexTranscodeSession{VideoDecision: "transcode"},
					},
					{
						Title:      "Big Film",
						Type:       "movie",
						ViewOffset: 60_000,
						Duration:   6_000_000,
						User:       plexUser{Title: "bob"},
						Player:     plexPlayer{Product: "Plex for TV", State: "playing"},
					},
				},
			},
		})
	}))

	sessions, err := client.FetchSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	s := sessions[0]
	if s.User != "alice" || s.Player != "Plex Web" {
		t.Errorf("unexpected session identity: %+v", s)
	}
	np := s.NowPlaying
	if np == nil {
		t.Fatal("expected now-playing item")
	}
	if np.Type != "Episode" || np.SeriesName != "Foo" || np.Season != 2 || np.Episode != 5 {
		t.Errorf("unexpected episode fields: %+v", np)
	}
	if np.PositionTicks != core.MillisecondsToTicks(600_000) {
		t.Errorf("view offset must convert to ticks, got %d", np.PositionTicks)
	}
	if got := np.Progress(); got != 50.0 {
		t.Errorf("expected 50%% progress, got %.1f", got)
	}
	if np.Width != 1920 || np.Height != 1080 || np.Resolution != "1080" {
		t.Errorf("unexpected video fields: %+v", np)
	}
	if np.Bitrate != 8_000_000 {
		t.Errorf("kbps bitrate must convert to bps, got %d", np.Bitrate)
	}
	if !np.Paused || !np.Transcode {
		t.Errorf("expected paused transcode session, got %+v", np)
	}

	movie := sessions[1].NowPlaying
	if movie == nil || movie.Type != "Movie" || movie.Paused || movie.Transcode {
		t.Errorf("unexpected movie session: %+v", movie)
	}
}

func TestFetchLibraries(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/library/sections" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(plexSectionsResponse{
			MediaContainer: plexSectionContainer{
				Directory: []plexDirectory{
					{Key: "1", Title: "Movies", Type: "movie"},
					{Key: "2", Title: "Shows", Type: "show"},
				},
			},
		})
	}))

	libs, err := client.FetchLibraries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(libs) != 2 {
		t.Fatalf("expected 2 libraries, got %d", len(libs))
	}
	if libs[0].ID != "1" || libs[0].Name != "Movies" || libs[0].Type != "movie" {
		t.Errorf("unexpected library: %+v", libs[0])
	}
}

func TestCountItemsSkipsEpisodesUnlessRequested(t *testing.T) {
	var episodeQueries int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/library/sections/2/all" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("X-Plex-Container-Size") != "0" {
			t.Errorf("counting must request zero items, got %q", r.URL.Query().Get("X-Plex-Container-Size"))
		}
		total := 42
		if r.URL.Query().Get("type") == "4" {
			episodeQueries++
			total = 870
		}
		json.NewEncoder(w).Encode(plexCountResponse{
			MediaContainer: plexCountContainer{TotalSize: total},
		})
	}))

	lib := core.RawLibrary{ID: "2", Name: "Shows"}

	counts, err := client.CountItems(context.Background(), lib, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Items != 42 || counts.Episodes != 0 {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if episodeQueries != 0 {
		t.Fatalf("episode query must be skipped, got %d", episodeQueries)
	}

	counts, err = client.CountItems(context.Background(), lib, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Items != 42 || counts.Episodes != 870 {
		t.Errorf("unexpected counts with episodes: %+v", counts)
	}
	if episodeQueries != 1 {
		t.Fatalf("expected exactly one episode query, got %d", episodeQueries)
	}
}

func TestUnreachableAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := &Client{
		baseURL: url,
		token:   "plex-token",
		http:    fastHTTP(),
		logger:  testLogger(),
	}

	_, err := client.FetchSystemInfo(context.Background())
	var fe *core.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Kind != core.FetchUnreachable {
		t.Errorf("expected unreachable after exhausted retries, got %s", fe.Kind)
	}
}
