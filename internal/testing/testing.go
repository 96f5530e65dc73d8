// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/services"
)

// FakeLibrary is a test double for [services.Library]
type FakeLibrary struct {
	Items  []models.SavedItem
	Err    error
	Limits []int // limit passed to each call
}

func (f *FakeLibrary) SavedItems(ctx context.Context, limit int) ([]models.SavedItem, error) {
	f.Limits = append(f.Limits, limit)
	if f.Err != nil {
		return nil, f.Err
	}
	if limit > 0 && limit < len(f.Items) {
		return append([]models.SavedItem(nil), f.Items[:limit]...), nil
	}
	return append([]models.SavedItem(nil), f.Items...), nil
}

func (f *FakeLibrary) Name() string { return "fake-library" }

// ScriptedPoster is a test double for [services.Poster].
//
// The n-th call returns Errors[n-1]; calls past the end of Errors succeed. PanicOn makes that (1-based) call panic.
type ScriptedPoster struct {
	Errors  []error
	PanicOn int

	mu    sync.Mutex
	texts []string
}

func (p *ScriptedPoster) CreatePost(ctx context.Context, text string) (*services.PostResponse, error) {
	p.mu.Lock()
	p.texts = append(p.texts, text)
	call := len(p.texts)
	p.mu.Unlock()

	if call == p.PanicOn {
		panic(fmt.Sprintf("scripted panic on call %d", call))
	}
	if call <= len(p.Errors) && p.Errors[call-1] != nil {
		return nil, p.Errors[call-1]
	}
	return &services.PostResponse{ID: fmt.Sprintf("post-%d", call), Text: text}, nil
}

func (p *ScriptedPoster) Name() string { return "scripted" }

// Texts returns the text of every call, in order.
func (p *ScriptedPoster) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}

// Calls returns the number of CreatePost calls.
func (p *ScriptedPoster) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.texts)
}

// RecordingSleeper records requested waits without blocking.
type RecordingSleeper struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.durations = append(s.durations, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Durations returns every recorded wait, in order.
func (s *RecordingSleeper) Durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.durations...)
}

// FixedRand returns a random source that always yields v.
func FixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Items builds saved items with the given ids, in order.
func Items(ids ...string) []models.SavedItem {
	items := make([]models.SavedItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.SavedItem{
			ID:          id,
			Title:       "Track " + id,
			ArtistNames: []string{"Artist " + id},
			URL:         "https://open.spotify.com/track/" + id,
		})
	}
	return items
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}
