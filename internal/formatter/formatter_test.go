package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/likecast/internal/models"
)

func TestHashtag(t *testing.T) {
	tc := []struct {
		name   string
		mode   HashtagMode
		artist string
		want   string
	}{
		{name: "diacritics stripped", mode: HashtagASCII, artist: "Sigur Rós", want: "#sigurrs"},
		{name: "diacritics kept", mode: HashtagUnicode, artist: "Sigur Rós", want: "#sigurrós"},
		{name: "punctuation", mode: HashtagASCII, artist: "Guns N' Roses", want: "#gunsnroses"},
		{name: "digits", mode: HashtagASCII, artist: "blink-182", want: "#blink182"},
		{name: "tabs and newlines", mode: HashtagASCII, artist: "Daft\tPunk\n", want: "#daftpunk"},
		{name: "ampersand", mode: HashtagUnicode, artist: "Simon & Garfunkel", want: "#simongarfunkel"},
		{name: "non-latin script ascii", mode: HashtagASCII, artist: "坂本龍一", want: "#"},
		{name: "non-latin script unicode", mode: HashtagUnicode, artist: "坂本龍一", want: "#坂本龍一"},
		{name: "upper-case unicode", mode: HashtagUnicode, artist: "ÓLAFUR ARNALDS", want: "#ólafurarnalds"},
		{name: "combining accent dropped", mode: HashtagUnicode, artist: "Beyonce\u0301", want: "#beyonce"},
		{name: "empty", mode: HashtagASCII, artist: "", want: "#"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.mode).Hashtag(tt.artist)
			if got != tt.want {
				t.Errorf("Hashtag(%q) = %q, want %q", tt.artist, got, tt.want)
			}
		})
	}

	t.Run("package default is ascii", func(t *testing.T) {
		if got := Hashtag("Sigur Rós"); got != "#sigurrs" {
			t.Errorf("Hashtag() = %q, want #sigurrs", got)
		}
	})
}

func TestFormatPost(t *testing.T) {
	t.Run("single artist", func(t *testing.T) {
		item := models.SavedItem{
			ID:          "1",
			Title:       "Hoppípolla",
			ArtistNames: []string{"Sigur Rós"},
			URL:         "https://open.spotify.com/track/1",
		}

		want := `Liked on Spotify: "Hoppípolla" by Sigur Rós https://open.spotify.com/track/1 #sigurrs`
		if got := FormatPost(item); got != want {
			t.Errorf("FormatPost() =\n%q\nwant\n%q", got, want)
		}
	})

	t.Run("multiple artists", func(t *testing.T) {
		item := models.SavedItem{
			ID:          "2",
			Title:       "Get Lucky",
			ArtistNames: []string{"Daft Punk", "Pharrell Williams", "Nile Rodgers"},
			URL:         "https://open.spotify.com/track/2",
		}

		want := `Liked on Spotify: "Get Lucky" by Daft Punk,Pharrell Williams,Nile Rodgers https://open.spotify.com/track/2 #daftpunk #pharrellwilliams #nilerodgers`
		if got := FormatPost(item); got != want {
			t.Errorf("FormatPost() =\n%q\nwant\n%q", got, want)
		}
	})

	t.Run("no artists", func(t *testing.T) {
		item := models.SavedItem{Title: "Untitled", URL: "u"}
		want := `Liked on Spotify: "Untitled" by  u`
		if got := FormatPost(item); got != want {
			t.Errorf("FormatPost() = %q, want %q", got, want)
		}
	})

	t.Run("artist without ascii characters gets no tag", func(t *testing.T) {
		item := models.SavedItem{Title: "Merry Christmas Mr. Lawrence", ArtistNames: []string{"坂本龍一", "Alva Noto"}, URL: "u"}

		want := `Liked on Spotify: "Merry Christmas Mr. Lawrence" by 坂本龍一,Alva Noto u #alvanoto`
		if got := FormatPost(item); got != want {
			t.Errorf("FormatPost() = %q, want %q", got, want)
		}

		unicodeText := New(HashtagUnicode).FormatPost(item)
		if !strings.HasSuffix(unicodeText, " #坂本龍一 #alvanoto") {
			t.Errorf("expected both tags in unicode mode, got %q", unicodeText)
		}
	})

	t.Run("unicode mode", func(t *testing.T) {
		item := models.SavedItem{Title: "Ára bátur", ArtistNames: []string{"Sigur Rós"}, URL: "u"}
		got := New(HashtagUnicode).FormatPost(item)
		if !strings.HasSuffix(got, " #sigurrós") {
			t.Errorf("expected unicode hashtag suffix, got %q", got)
		}
	})
}

func TestParseHashtagMode(t *testing.T) {
	tc := map[string]HashtagMode{
		"":         HashtagASCII,
		"ascii":    HashtagASCII,
		"unicode":  HashtagUnicode,
		" UNICODE": HashtagUnicode,
		"other":    HashtagASCII,
	}

	for in, want := range tc {
		if got := ParseHashtagMode(in); got != want {
			t.Errorf("ParseHashtagMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLength(t *testing.T) {
	if got := Length("Rós"); got != 3 {
		t.Errorf("Length() = %d, want 3", got)
	}
}
