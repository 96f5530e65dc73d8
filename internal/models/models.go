// package models defines the data model for the liked-track announcer
package models

import (
	"encoding/json"
	"time"
)

// SavedItem is a track saved in the user's library.
type SavedItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ArtistNames []string `json:"artist_names"`
	URL         string   `json:"url"`
}

// legacyTrack is the raw Spotify saved-track record, as written by earlier versions of the snapshot file.
type legacyTrack struct {
	Track *struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
		ExternalURLs map[string]string `json:"external_urls"`
	} `json:"track"`
}

// UnmarshalJSON decodes either the native item shape or a legacy Spotify saved-track record.
func (s *SavedItem) UnmarshalJSON(data []byte) error {
	var legacy legacyTrack
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	if legacy.Track != nil {
		artists := make([]string, 0, len(legacy.Track.Artists))
		for _, a := range legacy.Track.Artists {
			artists = append(artists, a.Name)
		}
		*s = SavedItem{
			ID:          legacy.Track.ID,
			Title:       legacy.Track.Name,
			ArtistNames: artists,
			URL:         legacy.Track.ExternalURLs["spotify"],
		}
		return nil
	}

	type plain SavedItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = SavedItem(p)
	return nil
}

// Snapshot is the full result of the most recent fetch.
type Snapshot struct {
	Items []SavedItem `json:"items"`
}

// IDs returns the set of item IDs in the snapshot.
func (s Snapshot) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Items))
	for _, item := range s.Items {
		ids[item.ID] = struct{}{}
	}
	return ids
}

// Len returns the number of items in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Items)
}

// Outcome is the terminal state of publishing one item.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota // Posted
	OutcomeForbidden                // Rejected by the platform, never retried
	OutcomeAbandoned                // Still rate limited after the last attempt
	OutcomeFailed                   // Any other error, not retried
	OutcomeSkipped                  // Not attempted (bootstrap seeding)
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of [Outcome.String].
func ParseOutcome(s string) Outcome {
	switch s {
	case "succeeded":
		return OutcomeSucceeded
	case "forbidden":
		return OutcomeForbidden
	case "abandoned":
		return OutcomeAbandoned
	case "skipped":
		return OutcomeSkipped
	default:
		return OutcomeFailed
	}
}

// PostResult describes what happened when a single item was published.
type PostResult struct {
	Item     SavedItem
	Text     string
	Outcome  Outcome
	Attempts int    // Number of submissions made
	PostID   string // Platform ID of the created post, when it succeeded
	Err      error
}

// OK reports whether the item was posted.
func (r PostResult) OK() bool {
	return r.Outcome == OutcomeSucceeded
}

// PostRecord is a [PostResult] as stored in the history database.
type PostRecord struct {
	ID        string
	Sequence  int
	RunID     string
	ItemID    string
	Title     string
	Text      string
	Outcome   Outcome
	Attempts  int
	PostID    string
	Error     string
	CreatedAt time.Time
}
