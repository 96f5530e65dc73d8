// X (Twitter) API v2 implementation of [Poster]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/likecast/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	xAuthURL  = "https://x.com/i/oauth2/authorize"
	xTokenURL = "https://api.x.com/2/oauth2/token"
	xBaseURL  = "https://api.x.com"
)

type xCreateRequest struct {
	Text string `json:"text"`
}

type xCreateResponse struct {
	Data PostResponse `json:"data"`
}

// xProblem is the RFC 7807 style error body returned by the v2 API.
type xProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Status int    `json:"status"`
}

func (p xProblem) message(body []byte) string {
	switch {
	case p.Detail != "":
		return p.Detail
	case p.Title != "":
		return p.Title
	default:
		return string(body)
	}
}

// XService implements [Poster] for the X API v2 with an OAuth 2.0 user-context token.
type XService struct {
	config     *oauth2.Config
	baseURL    string
	baseClient *http.Client
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     tokenHolder
	now        func() time.Time
}

// NewXService creates an X client. client_id (and client_secret for confidential clients) are only needed to refresh
// tokens. requestsPerMinute <= 0 disables the client-side limiter.
func NewXService(credentials map[string]string, requestsPerMinute int) *XService {
	baseURL := credentials["base_url"]
	if baseURL == "" {
		baseURL = xBaseURL
	}

	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}

	return &XService{
		config: &oauth2.Config{
			ClientID:     credentials["client_id"],
			ClientSecret: credentials["client_secret"],
			Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   xAuthURL,
				TokenURL:  xTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		baseURL:    baseURL,
		baseClient: http.DefaultClient,
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

func (x *XService) Name() string {
	return "X"
}

// OAuthenticate installs token; expired tokens are refreshed on first use.
func (x *XService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: x token", shared.ErrMissingCredentials)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, x.baseClient)
	src := x.tokens.install(token, x.config.TokenSource(ctx, token))
	x.httpClient = oauth2.NewClient(ctx, src)
	return nil
}

// SetTokenRefreshCallback registers fn to receive refreshed tokens.
func (x *XService) SetTokenRefreshCallback(fn TokenRefreshFunc) {
	x.tokens.setCallback(fn)
}

// Token returns the current token, refreshing it when expired.
func (x *XService) Token() (*oauth2.Token, error) {
	return x.tokens.current()
}

// CreatePost publishes text as a new post.
func (x *XService) CreatePost(ctx context.Context, text string) (*PostResponse, error) {
	if x.httpClient == nil {
		return nil, errNotAuthenticated
	}

	if err := x.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(xCreateRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, x.statusError(resp, body)
	}

	var created xCreateResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &created.Data, nil
}

// statusError maps a non-2xx response onto the error taxonomy.
func (x *XService) statusError(resp *http.Response, body []byte) error {
	var problem xProblem
	_ = json.Unmarshal(body, &problem)
	msg := problem.message(body)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		rle := parseRateLimit(resp.Header, x.now())
		rle.Detail = msg
		return rle
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrForbidden, msg)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, msg)
	default:
		return fmt.Errorf("%w: x status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
	}
}
