package core

import "time"

// tickDuration is the length of one playback tick (100ns), matching the
// Jellyfin wire format. The Plex adapter converts its millisecond offsets
// into the same unit so the formatter never cares which backend produced
// a session.
const tickDuration = 100 * time.Nanosecond

// SystemInfo holds the backend server identity as reported by its API.
type SystemInfo struct {
	Name    string // server display name
	Version string // server software version
	OS      string // operating system / platform
}

// ServerInfo is the backend-agnostic status snapshot assembled once per
// poll cycle. It is never persisted.
type ServerInfo struct {
	Online       bool
	System       SystemInfo
	Uptime       time.Duration
	OfflineSince time.Time // zero unless Online is false
	StreamCount  int
	Libraries    map[string]LibraryStat
	Sessions     []Session
}

// LibraryStat describes one library section for display.
// EpisodeCount is meaningful only when ShowEpisodes is true.
type LibraryStat struct {
	ID           string
	DisplayName  string
	Emoji        string
	ItemCount    int
	EpisodeCount int
	ShowEpisodes bool
}

// RawLibrary is a library section as enumerated by the backend, before any
// display configuration is applied.
type RawLibrary struct {
	ID   string
	Name string
	Type string // backend-specific: "movies", "tvshows", "movie", "show", ...
}

// ItemCounts holds the result of counting a single library.
type ItemCounts struct {
	Items    int
	Episodes int
}

// Session is one active playback instance, normalized from either backend
// schema. It lives for a single formatting pass.
type Session struct {
	User       string
	Player     string
	NowPlaying *NowPlaying // nil when the session is idle
}

// NowPlaying describes the item a session is currently playing.
// Missing fields stay at their zero value; the formatter substitutes
// "Unknown" placeholders at display time.
type NowPlaying struct {
	Title      string
	Type       string // "Episode", "Movie", ...
	SeriesName string
	Season     int
	Episode    int

	PositionTicks int64 // playback position in 100ns ticks
	RuntimeTicks  int64 // total runtime in 100ns ticks

	Width      int
	Height     int
	Resolution string // label such as "1080" or "4k" when the backend reports one
	Bitrate    int64  // bits per second, 0 when unknown
	Transcode  bool
	Paused     bool
}

// IsEpisode reports whether the item should be titled as a series episode.
func (n *NowPlaying) IsEpisode() bool {
	return n.Type == "Episode" || n.SeriesName != ""
}

// Position returns the playback position as a duration.
func (n *NowPlaying) Position() time.Duration {
	return time.Duration(n.PositionTicks) * tickDuration
}

// Runtime returns the total runtime as a duration.
func (n *NowPlaying) Runtime() time.Duration {
	return time.Duration(n.RuntimeTicks) * tickDuration
}

// Progress returns the playback progress in percent, clamped to 0 when the
// runtime is unknown.
func (n *NowPlaying) Progress() float64 {
	if n.RuntimeTicks <= 0 {
		return 0
	}
	return float64(n.PositionTicks) / float64(n.RuntimeTicks) * 100
}

// MillisecondsToTicks converts a millisecond offset (Plex wire format) into
// 100ns ticks.
func MillisecondsToTicks(ms int64) int64 {
	return ms * int64(time.Millisecond/tickDuration)
}

// Document is a structured dashboard message, rendered by the frontend into
// whatever markup the chat platform supports.
type Document struct {
	Title       string
	Description string
	Color       string // hex color hint, frontends may ignore it
	Fields      []Field
	Footer      string
	Timestamp   time.Time
}

// Field is one titled block inside a Document.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Download is one entry in a download queue summary.
type Download struct {
	Name     string
	Progress float64 // percent
	TimeLeft string
	Speed    string
	Size     string
}

// DownloadsSummary is the opaque summary a downloads provider contributes
// to the dashboard extras.
type DownloadsSummary struct {
	Downloads []Download
	DiskFree  string
	DiskTotal string
}

// UptimeWindow is one historical uptime measurement window.
type UptimeWindow struct {
	Label   string // "24h", "7d", "30d"
	Percent float64
	Online  time.Duration
}

// UptimeSummary is the opaque summary an uptime-history provider
// contributes to the dashboard extras.
type UptimeSummary struct {
	Windows     []UptimeWindow
	LastOffline string // human-readable timestamp, empty when never observed
}
