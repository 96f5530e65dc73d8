package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Twitter TwitterConfig `toml:"twitter"`
}

// SpotifyConfig contains Spotify API credentials and the last known token pair.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	Expiry       time.Time `toml:"expiry,omitempty"`
}

// TwitterConfig contains X API v2 OAuth 2.0 user-context credentials.
type TwitterConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	Expiry       time.Time `toml:"expiry,omitempty"`
	BaseURL      string    `toml:"base_url"`
}

// DatabaseConfig contains post history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig controls fetching, diffing, and posting.
type SyncConfig struct {
	SnapshotPath      string `toml:"snapshot_path"`
	PageSize          int    `toml:"page_size"`
	PostDelaySeconds  int    `toml:"post_delay_seconds"`
	MaxRetries        int    `toml:"max_retries"`
	SkipBootstrap     bool   `toml:"skip_bootstrap"`
	HashtagMode       string `toml:"hashtag_mode"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	Schedule          string `toml:"schedule"`
}

// PostDelay returns the courtesy delay between posts.
func (s SyncConfig) PostDelay() time.Duration {
	return time.Duration(s.PostDelaySeconds) * time.Second
}

// Map returns the credentials in the form expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Token returns the stored token pair, or nil if no access or refresh token is set.
func (s SpotifyConfig) Token() *oauth2.Token {
	return token(s.AccessToken, s.RefreshToken, s.Expiry)
}

// Update stores a (possibly refreshed) token.
func (s *SpotifyConfig) Update(t *oauth2.Token) error {
	if t == nil || t.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidArgument)
	}
	s.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		s.RefreshToken = t.RefreshToken
	}
	s.Expiry = t.Expiry
	return nil
}

// Map returns the credentials in the form expected by services.NewXService.
func (t TwitterConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     t.ClientID,
		"client_secret": t.ClientSecret,
		"base_url":      t.BaseURL,
	}
}

// Token returns the stored token pair, or nil if no access or refresh token is set.
func (t TwitterConfig) Token() *oauth2.Token {
	return token(t.AccessToken, t.RefreshToken, t.Expiry)
}

// Update stores a (possibly refreshed) token.
func (t *TwitterConfig) Update(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidArgument)
	}
	t.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		t.RefreshToken = tok.RefreshToken
	}
	t.Expiry = tok.Expiry
	return nil
}

func token(access, refresh string, expiry time.Time) *oauth2.Token {
	if access == "" && refresh == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}
}

// ApplyEnv overrides credentials with any of the SPOTIFY_* and TWITTER_* environment variables that are set.
func (c *Config) ApplyEnv() {
	for env, field := range map[string]*string{
		"SPOTIFY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":  &c.Credentials.Spotify.RedirectURI,
		"SPOTIFY_ACCESS_TOKEN":  &c.Credentials.Spotify.AccessToken,
		"SPOTIFY_REFRESH_TOKEN": &c.Credentials.Spotify.RefreshToken,
		"TWITTER_CLIENT_ID":     &c.Credentials.Twitter.ClientID,
		"TWITTER_CLIENT_SECRET": &c.Credentials.Twitter.ClientSecret,
		"TWITTER_ACCESS_TOKEN":  &c.Credentials.Twitter.AccessToken,
		"TWITTER_REFRESH_TOKEN": &c.Credentials.Twitter.RefreshToken,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = v
		}
	}
}

// Validate checks that the credentials needed for a sync run are present and the sync settings are usable.
//
// Posting credentials are only required when requirePoster is set (dry runs do not post).
func (c *Config) Validate(requirePoster bool) error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret", ErrMissingCredentials)
	}
	if sp.Token() == nil {
		return fmt.Errorf("%w: spotify access_token or refresh_token", ErrMissingCredentials)
	}

	if requirePoster {
		tw := c.Credentials.Twitter
		if tw.Token() == nil {
			return fmt.Errorf("%w: twitter access_token or refresh_token", ErrMissingCredentials)
		}
		if tw.AccessToken == "" && tw.ClientID == "" {
			return fmt.Errorf("%w: twitter client_id is required to refresh tokens", ErrMissingCredentials)
		}
	}

	if c.Sync.SnapshotPath == "" {
		return fmt.Errorf("%w: sync.snapshot_path is empty", ErrInvalidConfig)
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 50 {
		return fmt.Errorf("%w: sync.page_size must be between 1 and 50, got %d", ErrInvalidConfig, c.Sync.PageSize)
	}
	if c.Sync.MaxRetries < 1 {
		return fmt.Errorf("%w: sync.max_retries must be at least 1, got %d", ErrInvalidConfig, c.Sync.MaxRetries)
	}
	if c.Sync.PostDelaySeconds < 0 {
		return fmt.Errorf("%w: sync.post_delay_seconds is negative", ErrInvalidConfig)
	}
	switch c.Sync.HashtagMode {
	case "", "ascii", "unicode":
	default:
		return fmt.Errorf("%w: sync.hashtag_mode must be ascii or unicode, got %q", ErrInvalidConfig, c.Sync.HashtagMode)
	}

	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the configuration to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
