package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/vadimtrunov/MediaWatch/internal/core"
	"github.com/vadimtrunov/MediaWatch/internal/httpclient"
)

const maxErrorBodyBytes = 4096

// authorizationHeader identifies this client to the Jellyfin server.
const authorizationHeader = `MediaBrowser Client="MediaWatch", Device="MediaWatch", DeviceId="mediawatch-bot", Version="1.0.0"`

// Client implements core.StatusClient for Jellyfin.
type Client struct {
	baseURL  string
	apiKey   string
	username string
	password string
	http     *httpclient.Client
	logger   *slog.Logger

	mu           sync.Mutex
	sessionToken string // obtained via AuthenticateByName when no API key works
}

var _ core.StatusClient = (*Client)(nil)

// New creates a new Jellyfin client. Either apiKey or username/password
// must be provided; the API key is preferred.
func New(baseURL, apiKey, username, password string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		username: username,
		password: password,
		http:     httpclient.New(httpclient.DefaultConfig(), logger),
		logger:   logger,
	}
}

// Name returns the backend name.
func (c *Client) Name() string { return "jellyfin" }

// Authenticate verifies the API key against /System/Info, falling back to
// a username/password exchange when the key is absent or rejected.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.apiKey != "" {
		err := c.get(ctx, "/System/Info", nil, nil)
		if err == nil {
			return nil
		}
		if !errors.Is(err, core.ErrInvalidCredentials) {
			return err
		}
		if c.username == "" {
			return fmt.Errorf("jellyfin: api key rejected: %w", core.ErrInvalidCredentials)
		}
		c.logger.Warn("jellyfin api key rejected, falling back to username/password")
	}

	if c.username == "" || c.password == "" {
		return errors.New("jellyfin: no authentication method configured")
	}
	return c.authenticateByName(ctx)
}

// authenticateByName exchanges username/password for a session token.
// This is a POST and deliberately bypasses transport retries.
func (c *Client) authenticateByName(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"Username": c.username,
		"Pw":       c.password,
	})
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	u := c.baseURL + "/Users/AuthenticateByName"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Emby-Authorization", authorizationHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportErr("jellyfin authenticate", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var auth jellyfinAuthResponse
		if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
			return fmt.Errorf("decode auth response: %w", err)
		}
		c.mu.Lock()
		c.sessionToken = auth.AccessToken
		c.mu.Unlock()
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("jellyfin: %w", core.ErrInvalidCredentials)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("jellyfin auth error %d: %s", resp.StatusCode, string(body))
	}
}

// FetchSystemInfo retrieves the Jellyfin server identity.
func (c *Client) FetchSystemInfo(ctx context.Context) (core.SystemInfo, error) {
	var info jellyfinSystemInfo
	if err := c.get(ctx, "/System/Info", nil, &info); err != nil {
		return core.SystemInfo{}, err
	}
	return core.SystemInfo{
		Name:    info.ServerName,
		Version: info.Version,
		OS:      info.OperatingSystem,
	}, nil
}

// FetchSessions lists active sessions, normalized for the formatter.
func (c *Client) FetchSessions(ctx context.Context) ([]core.Session, error) {
	var raw []jellyfinSession
	if err := c.get(ctx, "/Sessions", nil, &raw); err != nil {
		return nil, err
	}

	sessions := make([]core.Session, 0, len(raw))
	for _, s := range raw {
		sessions = append(sessions, toSession(s))
	}
	return sessions, nil
}

// FetchLibraries enumerates the server's virtual folders.
func (c *Client) FetchLibraries(ctx context.Context) ([]core.RawLibrary, error) {
	var folders []jellyfinVirtualFolder
	if err := c.get(ctx, "/Library/VirtualFolders", nil, &folders); err != nil {
		return nil, err
	}

	libs := make([]core.RawLibrary, 0, len(folders))
	for _, f := range folders {
		libs = append(libs, core.RawLibrary{
			ID:   f.ItemID,
			Name: f.Name,
			Type: f.CollectionType,
		})
	}
	return libs, nil
}

// CountItems counts movies and series in a library; episode counts need a
// second query and are skipped unless requested.
func (c *Client) CountItems(ctx context.Context, lib core.RawLibrary, includeEpisodes bool) (core.ItemCounts, error) {
	items, err := c.countByType(ctx, lib.ID, "Movie,Series")
	if err != nil {
		return core.ItemCounts{}, err
	}

	counts := core.ItemCounts{Items: items}
	if includeEpisodes {
		episodes, err := c.countByType(ctx, lib.ID, "Episode")
		if err != nil {
			return core.ItemCounts{}, err
		}
		counts.Episodes = episodes
	}
	return counts, nil
}

func (c *Client) countByType(ctx context.Context, parentID, itemTypes string) (int, error) {
	params := url.Values{
		"ParentId":         {parentID},
		"Recursive":        {"true"},
		"IncludeItemTypes": {itemTypes},
		"Limit":            {"0"},
	}
	var resp jellyfinItemsResponse
	if err := c.get(ctx, "/Items", params, &resp); err != nil {
		return 0, err
	}
	return resp.TotalRecordCount, nil
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
	req.Header.Set("X-Emby-Token", c.token())
	req.Header.Set("X-Emby-Authorization", authorizationHeader)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportErr("jellyfin "+path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if result != nil {
			return json.NewDecoder(resp.Body).Decode(result)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("jellyfin %s: %w", path, core.ErrInvalidCredentials)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("jellyfin API error %d: %s", resp.StatusCode, string(body))
	}
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionToken != "" {
		return c.sessionToken
	}
	return c.apiKey
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

// toSession converts a Jellyfin session to the normalized shape.
func toSession(s jellyfinSession) core.Session {
	out := core.Session{
		User:   s.UserName,
		Player: s.Client,
	}
	if s.NowPlayingItem == nil {
		return out
	}

	np := &core.NowPlaying{
		Title:         s.NowPlayingItem.Name,
		Type:          s.NowPlayingItem.Type,
		SeriesName:    s.NowPlayingItem.SeriesName,
		Season:        s.NowPlayingItem.ParentIndexNumber,
		Episode:       s.NowPlayingItem.IndexNumber,
		PositionTicks: s.PlayState.PositionTicks,
		RuntimeTicks:  s.NowPlayingItem.RunTimeTicks,
		Paused:        s.PlayState.IsPaused,
		Transcode:     s.TranscodingInfo != nil || s.PlayState.PlayMethod == "Transcode",
	}

	for _, stream := range s.NowPlayingItem.MediaStreams {
		if stream.Type == "Video" {
			np.Width = stream.Width
			np.Height = stream.Height
			np.Bitrate = stream.BitRate
			break
		}
	}
	if s.TranscodingInfo != nil && s.TranscodingInfo.Bitrate > 0 {
		np.Bitrate = s.TranscodingInfo.Bitrate
	}

	out.NowPlaying = np
	return out
}
