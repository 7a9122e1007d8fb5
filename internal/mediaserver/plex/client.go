package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/vadimtrunov/MediaWatch/internal/core"
	"github.com/vadimtrunov/MediaWatch/internal/httpclient"
)

const maxErrorBodyBytes = 4096

// Client implements core.StatusClient for Plex Media Server.
type Client struct {
	baseURL string
	token   string
	http    *httpclient.Client
	logger  *slog.Logger
}

var _ core.StatusClient = (*Client)(nil)

// New creates a new Plex client authenticated by an X-Plex-Token.
func New(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpclient.New(httpclient.DefaultConfig(), logger),
		logger:  logger,
	}
}

// Name returns the backend name.
func (c *Client) Name() string { return "plex" }

// Authenticate verifies the token against the /identity endpoint.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.token == "" {
		return errors.New("plex: no token configured")
	}
	var identity plexIdentityResponse
	if err := c.get(ctx, "/identity", nil, &identity); err != nil {
		return err
	}
	if identity.MediaContainer.MachineIdentifier == "" {
		return errors.New("plex: identity response missing machine identifier")
	}
	return nil
}

// FetchSystemInfo retrieves the Plex server identity from the root document.
func (c *Client) FetchSystemInfo(ctx context.Context) (core.SystemInfo, error) {
	var root plexRootResponse
	if err := c.get(ctx, "/", nil, &root); err != nil {
		return core.SystemInfo{}, err
	}
	return core.SystemInfo{
		Name:    root.MediaContainer.FriendlyName,
		Version: root.MediaContainer.Version,
		OS:      root.MediaContainer.Platform,
	}, nil
}

// FetchSessions lists active playback sessions, normalized for the formatter.
func (c *Client) FetchSessions(ctx context.Context) ([]core.Session, error) {
	var resp plexSessionsResponse
	if err := c.get(ctx, "/status/sessions", nil, &resp); err != nil {
		return nil, err
	}

	sessions := make([]core.Session, 0, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		sessions = append(sessions, toSession(m))
	}
	return sessions, nil
}

// FetchLibraries enumerates the server's library sections.
func (c *Client) FetchLibraries(ctx context.Context) ([]core.RawLibrary, error) {
	var resp plexSectionsResponse
	if err := c.get(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, err
	}

	libs := make([]core.RawLibrary, 0, len(resp.MediaContainer.Directory))
	for _, d := range resp.MediaContainer.Directory {
		libs = append(libs, core.RawLibrary{
			ID:   d.Key,
			Name: d.Title,
			Type: d.Type,
		})
	}
	return libs, nil
}

// CountItems counts top-level items in a section. Episode counts need a
// second query with the episode type filter and are skipped unless
// requested.
func (c *Client) CountItems(ctx context.Context, lib core.RawLibrary, includeEpisodes bool) (core.ItemCounts, error) {
	items, err := c.countSection(ctx, lib.ID, "")
	if err != nil {
		return core.ItemCounts{}, err
	}

	counts := core.ItemCounts{Items: items}
	if includeEpisodes {
		// type=4 selects episodes in the Plex library API.
		episodes, err := c.countSection(ctx, lib.ID, "4")
		if err != nil {
			return core.ItemCounts{}, err
		}
		counts.Episodes = episodes
	}
	return counts, nil
}

// countSection asks for zero items so the container only carries totalSize.
func (c *Client) countSection(ctx context.Context, key, itemType string) (int, error) {
	params := url.Values{
		"X-Plex-Container-Start": {"0"},
		"X-Plex-Container-Size":  {"0"},
	}
	if itemType != "" {
		params.Set("type", itemType)
	}
	var resp plexCountResponse
	if err := c.get(ctx, "/library/sections/"+key+"/all", params, &resp); err != nil {
		return 0, err
	}
	return resp.MediaContainer.TotalSize, nil
}

// get performs an authenticated GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportErr("plex "+path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if result != nil {
			return json.NewDecoder(resp.Body).Decode(result)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("plex %s: %w", path, core.ErrInvalidCredentials)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("plex API error %d: %s", resp.StatusCode, string(body))
	}
}

// classifyTransportErr maps transport failures onto the fetch taxonomy:
// exhausted retries become Unreachable, everything else stays transient.
func classifyTransportErr(op string, err error) error {
	var exhausted *httpclient.ExhaustedError
	if errors.As(err, &exhausted) {
		return core.NewFetchError(op, core.FetchUnreachable, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return core.NewFetchError(op, core.FetchConnection, err)
}

// toSession converts Plex session metadata to the normalized shape. Plex
// reports playback positions in milliseconds and stream bitrates in kbps.
func toSession(m plexMetadata) core.Session {
	out := core.Session{
		User:   m.User.Title,
		Player: m.Player.Product,
	}
	if m.Title == "" {
		return out
	}

	np := &core.NowPlaying{
		Title:         m.Title,
		SeriesName:    m.GrandparentTitle,
		Season:        m.ParentIndex,
		Episode:       m.Index,
		PositionTicks: core.MillisecondsToTicks(m.ViewOffset),
		RuntimeTicks:  core.MillisecondsToTicks(m.Duration),
		Paused:        m.Player.State == "paused",
		Transcode:     m.TranscodeSession != nil,
	}
	if m.Type == "episode" {
		np.Type = "Episode"
	} else {
		np.Type = "Movie"
	}

	if len(m.Media) > 0 {
		media := m.Media[0]
		np.Width = media.Width
		np.Height = media.Height
		np.Bitrate = media.Bitrate * 1000
		np.Resolution = media.VideoResolution
	}

	out.NowPlaying = np
	return out
}
