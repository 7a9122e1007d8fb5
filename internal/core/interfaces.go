package core

import "context"

// StatusClient is the adapter contract every media-server backend
// implements (Jellyfin, Plex). Adding a backend means implementing these
// methods; nothing above this interface knows which backend is in use.
type StatusClient interface {
	// Authenticate verifies credentials against the backend. Token mode is
	// tried first, username/password exchange is the fallback. Returns
	// ErrInvalidCredentials on a 401-equivalent, without retrying.
	Authenticate(ctx context.Context) error

	// FetchSystemInfo retrieves the server identity (name, version, OS).
	FetchSystemInfo(ctx context.Context) (SystemInfo, error)

	// FetchSessions lists active playback sessions, normalized.
	FetchSessions(ctx context.Context) ([]Session, error)

	// FetchLibraries enumerates the backend's library sections.
	FetchLibraries(ctx context.Context) ([]RawLibrary, error)

	// CountItems queries item counts for one library. Episode counts are
	// queried only when includeEpisodes is set, since that is the
	// expensive part on both backends.
	CountItems(ctx context.Context, lib RawLibrary, includeEpisodes bool) (ItemCounts, error)

	// Name returns the backend name ("jellyfin", "plex").
	Name() string
}

// Publisher is the chat-platform surface the dashboard core needs:
// create/edit a single structured message and update a lightweight presence
// indicator. Implementations map platform errors onto PublishError so the
// reconciler can tell rate limits from permission and not-found failures.
type Publisher interface {
	// SendDashboard posts a new dashboard message and returns its ID.
	SendDashboard(ctx context.Context, doc Document) (int, error)

	// EditDashboard replaces the content of an existing dashboard message.
	EditDashboard(ctx context.Context, messageID int, doc Document) error

	// SetPresence updates the lightweight status indicator.
	SetPresence(ctx context.Context, text string) error
}

// DownloadsProvider supplies an optional downloads summary for the
// dashboard extras. Absence of a provider is not an error.
type DownloadsProvider interface {
	FetchDownloads(ctx context.Context) (*DownloadsSummary, error)
}

// UptimeProvider supplies optional historical uptime data for the
// dashboard extras.
type UptimeProvider interface {
	FetchUptime(ctx context.Context) (*UptimeSummary, error)
}
