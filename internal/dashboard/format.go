package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/vadimtrunov/MediaWatch/internal/core"
)

// FormatSession renders one playback session as a multi-line stream
// descriptor. Missing fields degrade to "Unknown" placeholders; only a
// session with no now-playing item at all is rejected, and callers skip it
// rather than aborting the batch.
func FormatSession(s core.Session, idx int, userNames map[string]string) (string, error) {
	np := s.NowPlaying
	if np == nil {
		return "", &core.FormatError{Reason: "no item playing"}
	}

	user := s.User
	if user == "" {
		user = "Unknown"
	}
	if mapped, ok := userNames[user]; ok {
		user = mapped
	}

	player := s.Player
	if player == "" {
		player = "Unknown"
	}
	player = strings.ReplaceAll(player, "Plex for ", "")
	player = strings.ReplaceAll(player, "Infuse-Library", "Infuse")

	title := sessionTitle(np)
	progress := progressDisplay(np)
	position := formatPlaybackTime(np.Position(), np.Runtime())
	runtime := formatPlaybackTime(np.Runtime(), np.Runtime())

	transcodeMarker := "⏯️"
	if np.Transcode {
		transcodeMarker = "🔄"
	}

	quality := qualityDisplay(np)
	bitrate := ""
	if np.Bitrate > 0 {
		bitrate = fmt.Sprintf(" %.1f Mbps", float64(np.Bitrate)/1_000_000)
	}

	return fmt.Sprintf(
		"%d. %s | %s\n└─ %s | %s/%s\n └─ %s %s%s | %s",
		idx, title, user, progress, position, runtime, transcodeMarker, quality, bitrate, player,
	), nil
}

// sessionTitle renders an episode as "Series - S01E02 - Episode", anything
// else by its plain name.
func sessionTitle(np *core.NowPlaying) string {
	if !np.IsEpisode() {
		if np.Title == "" {
			return "Unknown"
		}
		return np.Title
	}

	series := np.SeriesName
	if series == "" {
		series = "Unknown Series"
	}
	episode := np.Title
	if episode == "" {
		episode = "Unknown Episode"
	}
	return fmt.Sprintf("%s - S%02dE%02d - %s", series, np.Season, np.Episode, episode)
}

// progressDisplay renders a ten-segment progress bar, or a pause marker for
// a paused session.
func progressDisplay(np *core.NowPlaying) string {
	if np.Paused {
		return "⏸️"
	}

	percent := np.Progress()
	filled := int(percent / 10)
	if filled > 10 {
		filled = 10
	}
	bar := strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
	return fmt.Sprintf("[%s] %.1f%%", bar, percent)
}

// qualityDisplay derives a quality label from the video stream dimensions,
// falling back to the backend's resolution label when dimensions are
// missing.
func qualityDisplay(np *core.NowPlaying) string {
	if np.Width > 0 && np.Height > 0 {
		return fmt.Sprintf("%dx%d", np.Width, np.Height)
	}
	if np.Resolution != "" {
		label := np.Resolution
		if label == "4k" || label == "4K" {
			return "4K"
		}
		if !strings.HasSuffix(label, "p") {
			label += "p"
		}
		return label
	}
	return "Unknown"
}

// formatPlaybackTime renders a position as MM:SS for short content and
// H:MM:SS once the total runtime reaches an hour.
func formatPlaybackTime(d, total time.Duration) string {
	seconds := int(d.Seconds())
	if total < time.Hour {
		return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
