// Spotify API implementation of [Library]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// SpotifyMaxPageSize is the largest page /me/tracks returns.
	SpotifyMaxPageSize = 50
)

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []SpotifyArtist   `json:"artists"`
	Album        SpotifyAlbum      `json:"album"`
	DurationMS   int               `json:"duration_ms"`
	ExternalURLs map[string]string `json:"external_urls"`
	URI          string            `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SavedItem converts the record to a [models.SavedItem].
func (s SpotifySavedTrack) SavedItem() models.SavedItem {
	artists := make([]string, 0, len(s.Track.Artists))
	for _, a := range s.Track.Artists {
		artists = append(artists, a.Name)
	}
	return models.SavedItem{
		ID:          s.Track.ID,
		Title:       s.Track.Name,
		ArtistNames: artists,
		URL:         s.Track.ExternalURLs["spotify"],
	}
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [Library] for the Spotify Web API.
// Uses [oauth2] for authentication; expired access tokens are refreshed with the stored refresh token.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	baseClient *http.Client // transport used for API and token requests
	httpClient *http.Client // authenticated client, set by OAuthenticate
	tokens     tokenHolder
	now        func() time.Time
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	baseURL := credentials["base_url"]
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"user-library-read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		baseURL:    baseURL,
		baseClient: http.DefaultClient,
		now:        time.Now,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// OAuthenticate installs token. When it is expired (or has no access token) the refresh token is exchanged on the
// first request.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: spotify token", shared.ErrMissingCredentials)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
	src := s.tokens.install(token, s.config.TokenSource(ctx, token))
	s.httpClient = oauth2.NewClient(ctx, src)
	return nil
}

// Authenticate reads "access_token", "refresh_token" and an optional RFC 3339 "expiry" from credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	token, err := tokenFromMap(credentials)
	if err != nil {
		return err
	}
	return s.OAuthenticate(ctx, token)
}

// SetTokenRefreshCallback registers fn to receive refreshed tokens.
func (s *SpotifyService) SetTokenRefreshCallback(fn TokenRefreshFunc) {
	s.tokens.setCallback(fn)
}

// Token returns the current token, refreshing it when expired.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	return s.tokens.current()
}

// doRequest performs an authenticated GET to the Spotify API and decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.httpClient == nil {
		return errNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr spotifyError
		msg := string(body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", shared.ErrTokenExpired, msg)
		case http.StatusTooManyRequests:
			rle := parseRateLimit(resp.Header, s.now())
			rle.Detail = msg
			return fmt.Errorf("%w: %w", shared.ErrAPIRequest, rle)
		default:
			return fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SavedTracks retrieves the user's saved tracks with pagination.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > SpotifyMaxPageSize {
		limit = SpotifyMaxPageSize
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// SavedItems returns the first page of saved tracks, newest first.
func (s *SpotifyService) SavedItems(ctx context.Context, limit int) ([]models.SavedItem, error) {
	page, err := s.SavedTracks(ctx, limit, 0)
	if err != nil {
		return nil, err
	}

	items := make([]models.SavedItem, 0, len(page.Items))
	for _, record := range page.Items {
		if record.Track.ID == "" {
			// local files and unavailable tracks have no ID
			continue
		}
		items = append(items, record.SavedItem())
	}
	return items, nil
}

// tokenFromMap builds a token from string credentials.
func tokenFromMap(credentials map[string]string) (*oauth2.Token, error) {
	token := &oauth2.Token{
		AccessToken:  credentials["access_token"],
		RefreshToken: credentials["refresh_token"],
		TokenType:    "Bearer",
	}

	if exp := credentials["expiry"]; exp != "" {
		t, err := time.Parse(time.RFC3339, exp)
		if err != nil {
			return nil, fmt.Errorf("%w: expiry: %v", shared.ErrInvalidArgument, err)
		}
		token.Expiry = t
	}

	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: missing access_token or refresh_token in credentials", shared.ErrMissingCredentials)
	}
	return token, nil
}
