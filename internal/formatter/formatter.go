// package formatter builds the status text announcing a saved track
package formatter

import (
	"strings"
	"unicode"

	"github.com/desertthunder/likecast/internal/models"
)

// MaxPostLength is the number of characters X accepts in a single post.
const MaxPostLength = 280

// HashtagMode selects which characters survive in a hashtag.
type HashtagMode string

const (
	// HashtagASCII keeps only ASCII letters and digits ("Sigur Rós" -> "#sigurrs").
	HashtagASCII HashtagMode = "ascii"
	// HashtagUnicode keeps any Unicode letter or digit ("Sigur Rós" -> "#sigurrós").
	HashtagUnicode HashtagMode = "unicode"
)

// ParseHashtagMode maps a config value to a [HashtagMode], defaulting to [HashtagASCII].
func ParseHashtagMode(s string) HashtagMode {
	if HashtagMode(strings.ToLower(strings.TrimSpace(s))) == HashtagUnicode {
		return HashtagUnicode
	}
	return HashtagASCII
}

// Formatter renders [models.SavedItem] values as post text.
type Formatter struct {
	Mode HashtagMode
}

// New creates a [Formatter] using the given hashtag mode.
func New(mode HashtagMode) *Formatter {
	if mode == "" {
		mode = HashtagASCII
	}
	return &Formatter{Mode: mode}
}

// FormatPost builds `Liked on Spotify: "<title>" by <artists> <url>` followed by one hashtag per artist. Artists
// whose hashtag would be empty get none.
func (f *Formatter) FormatPost(item models.SavedItem) string {
	var b strings.Builder
	b.WriteString(`Liked on Spotify: "`)
	b.WriteString(item.Title)
	b.WriteString(`" by `)
	b.WriteString(strings.Join(item.ArtistNames, ","))
	b.WriteString(" ")
	b.WriteString(item.URL)

	for _, artist := range item.ArtistNames {
		// names with nothing to keep would leave a bare '#'
		if tag := f.Hashtag(artist); tag != "#" {
			b.WriteString(" ")
			b.WriteString(tag)
		}
	}

	return b.String()
}

// Hashtag strips whitespace and punctuation from an artist name, lower-cases it, and prefixes '#'.
func (f *Formatter) Hashtag(artist string) string {
	var b strings.Builder
	b.WriteByte('#')
	for _, r := range artist {
		if keep(r, f.Mode) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func keep(r rune, mode HashtagMode) bool {
	if mode == HashtagUnicode {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// FormatPost renders item with the default ASCII hashtag mode.
func FormatPost(item models.SavedItem) string {
	return New(HashtagASCII).FormatPost(item)
}

// Hashtag renders artist with the default ASCII hashtag mode.
func Hashtag(artist string) string {
	return New(HashtagASCII).Hashtag(artist)
}

// Length counts characters the way the platform limit is expressed (runes, not bytes).
func Length(text string) int {
	return len([]rune(text))
}
