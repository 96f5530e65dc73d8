// package services defines the external collaborators of a sync run
//
// Spotify (saved tracks) and X (status posts)
package services

import (
	"context"

	"github.com/desertthunder/likecast/internal/models"
	"golang.org/x/oauth2"
)

// Library is a streaming service that can list the current user's saved tracks.
type Library interface {
	// SavedItems returns the most recently saved tracks, newest first, at most limit items.
	SavedItems(ctx context.Context, limit int) ([]models.SavedItem, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Poster is a social platform that accepts text posts.
//
// CreatePost returns a [*RateLimitError] when the platform asks the caller to wait, an error wrapping
// [shared.ErrForbidden] when the post will never be accepted, and any other error otherwise.
type Poster interface {
	CreatePost(ctx context.Context, text string) (*PostResponse, error)

	// Name returns the name of the platform (e.g., "X")
	Name() string
}

// OAuthService is implemented by services authenticated with an OAuth2 token pair.
type OAuthService interface {
	// OAuthenticate installs a token; expired tokens are refreshed on first use.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// SetTokenRefreshCallback registers fn to be called with every new token.
	SetTokenRefreshCallback(fn TokenRefreshFunc)
}

// PostResponse is the platform's view of a created post.
type PostResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

var (
	_ Library      = (*SpotifyService)(nil)
	_ OAuthService = (*SpotifyService)(nil)
	_ Poster       = (*XService)(nil)
	_ OAuthService = (*XService)(nil)
	_ Poster       = (*DryRunPoster)(nil)
)
