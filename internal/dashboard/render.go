package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vadimtrunov/MediaWatch/internal/core"
)

const (
	colorOnline  = "#2ECC71"
	colorOffline = "#E74C3C"

	// maxStreamsShown caps the stream list so one busy evening cannot blow
	// past the platform's message size limits.
	maxStreamsShown = 8
	// maxDownloadsShown caps the downloads section the same way.
	maxDownloadsShown = 4
)

// Extras bundles the optional companion data merged into the dashboard.
// Nil members simply omit their section.
type Extras struct {
	Downloads *core.DownloadsSummary
	Uptime    *core.UptimeSummary
}

// Render builds the dashboard document from a status snapshot. It is a pure
// function: same inputs, same document, with now supplying the embedded
// "last updated" timestamp.
func Render(info core.ServerInfo, extras Extras, branding string, userNames map[string]string, now time.Time) core.Document {
	doc := core.Document{
		Title:     branding,
		Footer:    "Last updated",
		Timestamp: now,
	}

	if !info.Online {
		doc.Description = "Server is currently Offline! ⚠️"
		doc.Color = colorOffline
		addOfflineFields(&doc, info, now)
		addUptimeFields(&doc, extras.Uptime)
		return doc
	}

	doc.Description = "Server is currently Online! ✅"
	doc.Color = colorOnline

	doc.Fields = append(doc.Fields, core.Field{
		Name:   "Server Status",
		Value:  fmt.Sprintf("🟢 Online\nUptime: %s", FormatUptime(info.Uptime)),
		Inline: false,
	})

	for _, stat := range SortedStats(info.Libraries) {
		if stat.ItemCount == 0 {
			continue
		}
		value := GroupThousands(stat.ItemCount)
		if stat.ShowEpisodes && stat.EpisodeCount > 0 {
			value += fmt.Sprintf("\nEpisodes: %s", GroupThousands(stat.EpisodeCount))
		}
		doc.Fields = append(doc.Fields, core.Field{
			Name:   fmt.Sprintf("%s %s", stat.Emoji, stat.DisplayName),
			Value:  value,
			Inline: true,
		})
	}

	addStreamFields(&doc, info.Sessions, userNames)
	addDownloadFields(&doc, extras.Downloads)
	addUptimeFields(&doc, extras.Uptime)

	return doc
}

func addOfflineFields(doc *core.Document, info core.ServerInfo, now time.Time) {
	since, duration := "Unknown", "Unknown duration"
	if !info.OfflineSince.IsZero() {
		since = info.OfflineSince.Format("02.01.2006 15:04")
		duration = FormatOfflineDuration(now.Sub(info.OfflineSince))
	}
	doc.Fields = append(doc.Fields, core.Field{
		Name:   "Offline since:",
		Value:  fmt.Sprintf("%s\n%s", since, duration),
		Inline: false,
	})
}

func addStreamFields(doc *core.Document, sessions []core.Session, userNames map[string]string) {
	var formatted []string
	for _, s := range sessions {
		line, err := FormatSession(s, len(formatted)+1, userNames)
		if err != nil {
			// Idle sessions are expected; skip them and keep the batch.
			continue
		}
		formatted = append(formatted, line)
	}

	if len(formatted) == 0 {
		doc.Fields = append(doc.Fields, core.Field{
			Name:   "Current Streams:",
			Value:  "💤 No active streams currently",
			Inline: false,
		})
		return
	}

	total := len(formatted)
	name := fmt.Sprintf("%d current Stream%s:", total, plural(total))
	if total > maxStreamsShown {
		formatted = formatted[:maxStreamsShown]
		name += fmt.Sprintf(" (showing %d of %d)", maxStreamsShown, total)
	}
	doc.Fields = append(doc.Fields, core.Field{
		Name:   name,
		Value:  strings.Join(formatted, "\n\n"),
		Inline: false,
	})
}

func addDownloadFields(doc *core.Document, downloads *core.DownloadsSummary) {
	if downloads == nil {
		return
	}
	if len(downloads.Downloads) == 0 {
		doc.Fields = append(doc.Fields, core.Field{
			Name:   "Current Downloads:",
			Value:  "💤 No active downloads currently",
			Inline: false,
		})
		return
	}

	total := len(downloads.Downloads)
	shown := downloads.Downloads
	if len(shown) > maxDownloadsShown {
		shown = shown[:maxDownloadsShown]
	}

	var lines []string
	for i, d := range shown {
		lines = append(lines, formatDownload(d, i))
	}
	doc.Fields = append(doc.Fields, core.Field{
		Name:   fmt.Sprintf("%d current Download%s:", total, plural(total)),
		Value:  strings.Join(lines, "\n"),
		Inline: false,
	})

	if downloads.DiskFree != "" {
		doc.Fields = append(doc.Fields, core.Field{Name: "Free Space 💾", Value: downloads.DiskFree, Inline: true})
	}
	if downloads.DiskTotal != "" {
		doc.Fields = append(doc.Fields, core.Field{Name: "Total Space 🗄️", Value: downloads.DiskTotal, Inline: true})
	}
}

var downloadNumbers = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣"}

func formatDownload(d core.Download, index int) string {
	marker := "➡️"
	if index < len(downloadNumbers) {
		marker = downloadNumbers[index]
	}

	filled := int(d.Progress / 10)
	if filled > 10 {
		filled = 10
	}
	bar := strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)

	return fmt.Sprintf(
		"%s %s\n└─ [%s] %.1f%% | %s remaining\n └─ 📊 %s | Size: %s",
		marker, d.Name, bar, d.Progress, d.TimeLeft, d.Speed, d.Size,
	)
}

func addUptimeFields(doc *core.Document, uptime *core.UptimeSummary) {
	if uptime == nil {
		return
	}
	for _, w := range uptime.Windows {
		doc.Fields = append(doc.Fields, core.Field{
			Name:   fmt.Sprintf("Uptime (%s)", w.Label),
			Value:  fmt.Sprintf("%.1f%% (%s)", w.Percent, formatOnlineTime(w.Online)),
			Inline: true,
		})
	}
	if uptime.LastOffline != "" {
		doc.Fields = append(doc.Fields, core.Field{
			Name:   "Last offline",
			Value:  uptime.LastOffline,
			Inline: true,
		})
	}
}

// SortedStats orders library statistics by display name, case-insensitive,
// independent of backend enumeration order.
func SortedStats(stats map[string]core.LibraryStat) []core.LibraryStat {
	out := make([]core.LibraryStat, 0, len(stats))
	for _, stat := range stats {
		out = append(out, stat)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].DisplayName), strings.ToLower(out[j].DisplayName)
		if a == b {
			return out[i].ID < out[j].ID
		}
		return a < b
	})
	return out
}

// GroupThousands formats a count with dots as thousands separators
// (1234567 -> "1.234.567").
func GroupThousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatUptime renders an uptime as HH:MM, capped at "99+ Hours".
func FormatUptime(d time.Duration) string {
	totalMinutes := int(d.Minutes())
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours > 99 {
		return "99+ Hours"
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// FormatOfflineDuration renders an outage duration as "Offline for HH:MM".
func FormatOfflineDuration(d time.Duration) string {
	totalMinutes := int(d.Minutes())
	return fmt.Sprintf("Offline for %02d:%02d", totalMinutes/60, totalMinutes%60)
}

func formatOnlineTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
