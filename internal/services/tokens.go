package services

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenRefreshFunc receives a token whenever the access token changes.
type TokenRefreshFunc func(token *oauth2.Token)

// refreshableTokenSource reports every new access token produced by source to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback TokenRefreshFunc

	mu   sync.Mutex
	last string
}

func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := token.AccessToken != s.last
	s.last = token.AccessToken
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.callback(token)
	}

	return token, nil
}

// tokenHolder stores the current token and refresh callback of an OAuth2-backed service.
type tokenHolder struct {
	mu        sync.Mutex
	source    oauth2.TokenSource
	onRefresh TokenRefreshFunc
}

func (h *tokenHolder) setCallback(fn TokenRefreshFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRefresh = fn
}

func (h *tokenHolder) notify(token *oauth2.Token) {
	h.mu.Lock()
	fn := h.onRefresh
	h.mu.Unlock()

	if fn != nil {
		fn(token)
	}
}

// install wraps base, the token source started from token, and returns it.
//
// The first token seen is the installed one, so only later refreshes reach the callback.
func (h *tokenHolder) install(token *oauth2.Token, base oauth2.TokenSource) oauth2.TokenSource {
	src := &refreshableTokenSource{
		source:   base,
		callback: h.notify,
		last:     token.AccessToken,
	}

	h.mu.Lock()
	h.source = src
	h.mu.Unlock()
	return src
}

// current returns the latest token, refreshing it if needed.
func (h *tokenHolder) current() (*oauth2.Token, error) {
	h.mu.Lock()
	src := h.source
	h.mu.Unlock()

	if src == nil {
		return nil, errNotAuthenticated
	}
	return src.Token()
}
