// Package sabnzbd fetches the download queue from a SABnzbd instance and
// summarizes it for the dashboard extras.
package sabnzbd

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

const maxNameLength = 40

// Client queries the SABnzbd JSON API.
type Client struct {
	baseURL  string
	apiKey   string
	keywords []string
	http     *retryablehttp.Client
	logger   *slog.Logger
}

var _ core.DownloadsProvider = (*Client)(nil)

// New creates a SABnzbd client. Keywords mark the start of release tags
// that get trimmed from download names before display.
func New(baseURL, apiKey string, keywords []string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.HTTPClient.Timeout = 10 * time.Second
	httpClient.Logger = nil

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		keywords: keywords,
		http:     httpClient,
		logger:   logger,
	}
}

type queueResponse struct {
	Queue queueData `json:"queue"`
}

type queueData struct {
	Slots          []queueSlot `json:"slots"`
	KBPerSec       string      `json:"kbpersec"`
	DiskSpace1     string      `json:"diskspace1"`
	DiskSpaceTotal string      `json:"diskspacetotal1"`
}

type queueSlot struct {
	Filename   string `json:"filename"`
	Percentage string `json:"percentage"`
	TimeLeft   string `json:"timeleft"`
	Size       string `json:"size"`
}

// FetchDownloads returns the current queue with cleaned names and
// human-readable sizes and speeds.
func (c *Client) FetchDownloads(ctx context.Context) (*core.DownloadsSummary, error) {
	u := fmt.Sprintf("%s/api?apikey=%s&output=json&mode=queue", c.baseURL, c.apiKey)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build sabnzbd request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.NewFetchError("sabnzbd queue", core.FetchConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.NewFetchError("sabnzbd queue", core.FetchServer,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var parsed queueResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode sabnzbd queue: %w", err)
	}

	queue := parsed.Queue
	summary := &core.DownloadsSummary{
		DiskFree:  formatDiskSpace(queue.DiskSpace1, "GB"),
		DiskTotal: formatDiskSpace(queue.DiskSpaceTotal, "TB"),
	}

	speed := formatSpeedFromKbps(queue.KBPerSec)
	for _, slot := range queue.Slots {
		progress, err := strconv.ParseFloat(slot.Percentage, 64)
		if err != nil {
			progress = 0
		}
		summary.Downloads = append(summary.Downloads, core.Download{
			Name:     c.cleanName(slot.Filename),
			Progress: progress,
			TimeLeft: slot.TimeLeft,
			Speed:    speed,
			Size:     formatSize(slot.Size),
		})
	}

	c.logger.Debug("fetched sabnzbd queue", slog.Int("downloads", len(summary.Downloads)))
	return summary, nil
}

// cleanName cuts the release-tag tail off a download name. The earliest
// keyword occurrence wins, then the result is capped at maxNameLength.
func (c *Client) cleanName(name string) string {
	if name == "" {
		return "Unknown"
	}
	cut := len(name)
	for _, kw := range c.keywords {
		if idx := strings.Index(name, kw); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	name = strings.TrimSpace(name[:cut])
	if len(name) > maxNameLength {
		name = name[:maxNameLength-3] + "..."
	}
	return name
}

// formatSize renders a byte count with the largest unit below 1024.
// Non-numeric input, like SABnzbd's pre-formatted "1.4 GB", passes through.
func formatSize(size string) string {
	v, err := strconv.ParseFloat(size, 64)
	if err != nil {
		return size
	}
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.2f TB", v)
}

// formatSpeedFromKbps renders the queue speed, which SABnzbd reports in KB/s.
func formatSpeedFromKbps(kbps string) string {
	v, err := strconv.ParseFloat(kbps, 64)
	if err != nil {
		return kbps + " KB/s"
	}
	for _, unit := range []string{"KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.2f %s/s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.2f TB/s", v)
}

// formatDiskSpace renders a disk space value reported in GB into the
// requested unit.
func formatDiskSpace(size, unit string) string {
	v, err := strconv.ParseFloat(size, 64)
	if err != nil {
		return size
	}
	if unit == "TB" {
		v /= 1024
	}
	return fmt.Sprintf("%.2f%s", v, unit)
}
