package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/shared"
	tu "github.com/desertthunder/likecast/internal/testing"
)

func TestFileStore(t *testing.T) {
	t.Run("Load", func(t *testing.T) {
		t.Run("missing file is empty", func(t *testing.T) {
			store := NewFileStore(filepath.Join(t.TempDir(), "favourite.json"))

			if store.Exists() {
				t.Error("expected Exists to be false")
			}

			snap, err := store.Load(t.Context())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if snap.Len() != 0 || snap.Items == nil {
				t.Errorf("expected empty non-nil items, got %+v", snap)
			}
		})

		t.Run("corrupt file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "favourite.json")
			tu.MustWriteFile(t, path, `{"items": [`)

			_, err := NewFileStore(path).Load(t.Context())
			if !errors.Is(err, shared.ErrSnapshot) {
				t.Errorf("expected ErrSnapshot, got %v", err)
			}
		})

		t.Run("null items", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "favourite.json")
			tu.MustWriteFile(t, path, `{"items": null}`)

			snap, err := NewFileStore(path).Load(t.Context())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if snap.Items == nil {
				t.Error("expected items to be normalised to empty slice")
			}
		})

		t.Run("legacy records", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "favourite.json")
			tu.MustWriteFile(t, path, `{"items": [{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "old", "name": "Old", "artists": [{"name": "A"}], "external_urls": {"spotify": "u"}}}]}`)

			snap, err := NewFileStore(path).Load(t.Context())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if snap.Len() != 1 || snap.Items[0].ID != "old" || snap.Items[0].Title != "Old" {
				t.Errorf("unexpected snapshot %+v", snap)
			}
		})
	})

	t.Run("Save", func(t *testing.T) {
		t.Run("round trip", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "favourite.json")
			store := NewFileStore(path)
			want := models.Snapshot{Items: tu.Items("c", "b", "a")}

			if err := store.Save(t.Context(), want); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !store.Exists() {
				t.Error("expected Exists after save")
			}

			got, err := store.Load(t.Context())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !equal(ids(got.Items), []string{"c", "b", "a"}) {
				t.Errorf("unexpected ids %v", ids(got.Items))
			}
		})

		t.Run("pretty printed", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "favourite.json")
			if err := NewFileStore(path).Save(t.Context(), models.Snapshot{Items: tu.Items("a")}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			content := tu.MustReadFile(t, path)
			if !strings.HasPrefix(content, "{\n  \"items\": [\n    {") {
				t.Errorf("expected two-space indentation, got %q", content)
			}
		})

		t.Run("creates parent directory", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state", "nested", "favourite.json")
			if err := NewFileStore(path).Save(t.Context(), models.Snapshot{}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			tu.AssertFileExists(t, path)
			if content := tu.MustReadFile(t, path); !strings.Contains(content, `"items": []`) {
				t.Errorf("expected empty items array, got %q", content)
			}
		})

		t.Run("replaces existing file without leftovers", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "favourite.json")
			store := NewFileStore(path)

			store.Save(t.Context(), models.Snapshot{Items: tu.Items("a", "b")})
			if err := store.Save(t.Context(), models.Snapshot{Items: tu.Items("z")}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got, _ := store.Load(t.Context())
			if !equal(ids(got.Items), []string{"z"}) {
				t.Errorf("expected snapshot to be replaced, got %v", ids(got.Items))
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("expected only the snapshot file, found %d entries", len(entries))
			}
		})

		t.Run("runs with a cancelled context", func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			cancel()

			path := filepath.Join(t.TempDir(), "favourite.json")
			if err := NewFileStore(path).Save(ctx, models.Snapshot{Items: tu.Items("a")}); err != nil {
				t.Errorf("expected save to ignore cancellation, got %v", err)
			}
		})
	})
}
