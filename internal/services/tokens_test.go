package services

import (
	"errors"
	"testing"

	"golang.org/x/oauth2"
)

type mockTokenSource struct {
	tokens []*oauth2.Token
	calls  int
	err    error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	if m.err != nil {
		return nil, m.err
	}
	token := m.tokens[m.calls]
	if m.calls < len(m.tokens)-1 {
		m.calls++
	}
	return token, nil
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("Calls callback when token changes", func(t *testing.T) {
		original := &oauth2.Token{AccessToken: "old"}
		source := &mockTokenSource{tokens: []*oauth2.Token{original, {AccessToken: "new", RefreshToken: "r"}}}

		var got []*oauth2.Token
		holder := &tokenHolder{}
		holder.setCallback(func(token *oauth2.Token) { got = append(got, token) })

		src := holder.install(original, source)

		if _, err := src.Token(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no callback for installed token, got %d", len(got))
		}

		if _, err := src.Token(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].AccessToken != "new" {
			t.Fatalf("expected one callback with new token, got %v", got)
		}

		if _, err := src.Token(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected callback not to repeat for same token, got %d calls", len(got))
		}
	})

	t.Run("No callback registered", func(t *testing.T) {
		source := &mockTokenSource{tokens: []*oauth2.Token{{AccessToken: "a"}, {AccessToken: "b"}}}
		holder := &tokenHolder{}
		src := holder.install(&oauth2.Token{AccessToken: "a"}, source)

		src.Token()
		token, err := src.Token()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "b" {
			t.Errorf("expected b, got %s", token.AccessToken)
		}
	})

	t.Run("Propagates errors", func(t *testing.T) {
		boom := errors.New("refresh failed")
		holder := &tokenHolder{}
		src := holder.install(&oauth2.Token{AccessToken: "a"}, &mockTokenSource{err: boom})

		if _, err := src.Token(); !errors.Is(err, boom) {
			t.Errorf("expected refresh error, got %v", err)
		}
	})

	t.Run("current before install", func(t *testing.T) {
		holder := &tokenHolder{}
		if _, err := holder.current(); err == nil {
			t.Error("expected error before install")
		}
	})
}

func TestDryRunPoster(t *testing.T) {
	poster := NewDryRunPoster(nil)

	first, err := poster.CreatePost(t.Context(), "one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := poster.CreatePost(t.Context(), "two")

	if first.ID != "dry-run-1" || second.ID != "dry-run-2" {
		t.Errorf("unexpected ids %s, %s", first.ID, second.ID)
	}

	posts := poster.Posts()
	if len(posts) != 2 || posts[0] != "one" || posts[1] != "two" {
		t.Errorf("unexpected posts %v", posts)
	}
}
