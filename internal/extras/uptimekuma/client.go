// Package uptimekuma reads historical uptime from an Uptime Kuma status
// page and summarizes it for the dashboard extras.
package uptimekuma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/vadimtrunov/MediaWatch/internal/core"
)

// Client queries the heartbeat API of a public Uptime Kuma status page.
type Client struct {
	baseURL   string
	slug      string
	monitorID int64
	http      *retryablehttp.Client
	logger    *slog.Logger
	now       func() time.Time
}

var _ core.UptimeProvider = (*Client)(nil)

// New creates an Uptime Kuma client for the monitor on the given status page.
func New(baseURL, slug string, monitorID int64, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.HTTPClient.Timeout = 10 * time.Second
	httpClient.Logger = nil

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		slug:      slug,
		monitorID: monitorID,
		http:      httpClient,
		logger:    logger,
		now:       time.Now,
	}
}

type heartbeatResponse struct {
	HeartbeatList map[string][]heartbeat `json:"heartbeatList"`
}

// Uptime Kuma heartbeat status values: 0 down, 1 up, 2 pending,
// 3 maintenance.
type heartbeat struct {
	Status int    `json:"status"`
	Time   string `json:"time"`
}

// heartbeat timestamps come without a zone and with optional fractional
// seconds.
var beatTimeLayouts = []string{
	"2006-01-02 15:04:05.999",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseBeatTime(s string) (time.Time, error) {
	for _, layout := range beatTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized heartbeat time %q", s)
}

// FetchUptime returns uptime percentages and accumulated online time for
// the 24h, 7d and 30d windows, plus the last observed outage.
func (c *Client) FetchUptime(ctx context.Context) (*core.UptimeSummary, error) {
	u := fmt.Sprintf("%s/api/status-page/heartbeat/%s", c.baseURL, c.slug)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build uptime kuma request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.NewFetchError("uptime kuma heartbeat", core.FetchConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.NewFetchError("uptime kuma heartbeat", core.FetchServer,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var parsed heartbeatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode uptime kuma heartbeat: %w", err)
	}

	beats, ok := parsed.HeartbeatList[strconv.FormatInt(c.monitorID, 10)]
	if !ok {
		return nil, fmt.Errorf("monitor %d not on status page %q", c.monitorID, c.slug)
	}

	summary := summarize(beats, c.now())
	c.logger.Debug("fetched uptime kuma heartbeats", slog.Int("beats", len(beats)))
	return summary, nil
}

var uptimeWindows = []struct {
	label string
	span  time.Duration
}{
	{"24h", 24 * time.Hour},
	{"7d", 7 * 24 * time.Hour},
	{"30d", 30 * 24 * time.Hour},
}

// summarize computes per-window uptime from the heartbeat history. Online
// time assumes beats spread evenly over the window they fall into.
func summarize(beats []heartbeat, now time.Time) *core.UptimeSummary {
	summary := &core.UptimeSummary{}

	var lastOffline time.Time
	for _, w := range uptimeWindows {
		cutoff := now.Add(-w.span)

		var total, up int
		for _, b := range beats {
			ts, err := parseBeatTime(b.Time)
			if err != nil || ts.Before(cutoff) {
				continue
			}
			total++
			if b.Status == 1 {
				up++
			} else if b.Status == 0 && ts.After(lastOffline) {
				lastOffline = ts
			}
		}

		window := core.UptimeWindow{Label: w.label}
		if total > 0 {
			window.Percent = float64(up) / float64(total) * 100
			window.Online = time.Duration(float64(w.span) * float64(up) / float64(total))
		}
		summary.Windows = append(summary.Windows, window)
	}

	if !lastOffline.IsZero() {
		summary.LastOffline = lastOffline.Format("02.01.2006 15:04")
	}
	return summary
}
