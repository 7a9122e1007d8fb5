package dashboard

import "strings"

// defaultEmoji marks libraries whose name matches no keyword.
const defaultEmoji = "🎬"

// LibraryKind groups libraries by content type for emoji assignment and
// episode-display defaults.
type LibraryKind string

const (
	KindMovie       LibraryKind = "movie"
	KindTVShow      LibraryKind = "tvshow"
	KindMusic       LibraryKind = "music"
	KindDocumentary LibraryKind = "documentary"
	KindAnime       LibraryKind = "anime"
	KindDefault     LibraryKind = "default"
)

type emojiRule struct {
	keyword string
	kind    LibraryKind
	emoji   string
}

// emojiTable maps name keywords to library kinds. Order matters: when two
// matched keywords have the same length, the earlier rule wins, so the
// narrow kinds are listed before the broad ones ("Anime Movies" must
// resolve to anime, not movie).
var emojiTable = []emojiRule{
	{"documentary", KindDocumentary, "📚"},
	{"anime", KindAnime, "🎌"},
	{"cartoon", KindAnime, "🎌"},
	{"music", KindMusic, "🎵"},
	{"song", KindMusic, "🎵"},
	{"series", KindTVShow, "📺"},
	{"show", KindTVShow, "📺"},
	{"movie", KindMovie, "🎥"},
	{"film", KindMovie, "🎥"},
	{"doc", KindDocumentary, "📚"},
	{"tv", KindTVShow, "📺"},
}

// ClassifyLibrary resolves a library name to a kind and emoji by longest
// keyword substring match, case-insensitive.
func ClassifyLibrary(name string) (LibraryKind, string) {
	lower := strings.ToLower(name)

	best := emojiRule{kind: KindDefault, emoji: defaultEmoji}
	for _, rule := range emojiTable {
		if !strings.Contains(lower, rule.keyword) {
			continue
		}
		if len(rule.keyword) > len(best.keyword) {
			best = rule
		}
	}
	return best.kind, best.emoji
}

// EpisodesByDefault reports whether a library kind counts episodes unless
// configured otherwise.
func EpisodesByDefault(kind LibraryKind) bool {
	return kind == KindTVShow || kind == KindAnime
}
