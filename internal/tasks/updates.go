package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/likecast/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	LoadSnapshot Phase = iota
	FetchLibrary
	Compare
	PublishItem
	Pause
	SaveSnapshot
)

func (p Phase) String() string {
	switch p {
	case LoadSnapshot:
		return "load_snapshot"
	case FetchLibrary:
		return "fetch_library"
	case Compare:
		return "compare"
	case PublishItem:
		return "publish_item"
	case Pause:
		return "pause"
	case SaveSnapshot:
		return "save_snapshot"
	default:
		return ""
	}
}

func loadSnapshotUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: LoadSnapshot, Step: 1, Total: 1, Message: fmt.Sprintf("Loading snapshot (%s)...", path)}
}

func fetchLibraryUpdate(name string, limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %d most recent saved tracks from %s...", limit, name),
	}
}

func compareUpdate(fetched, fresh int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d fetched, %d new", fetched, fresh),
	}
}

func bootstrapUpdate(fresh int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("No previous snapshot, recording %d tracks without posting", fresh),
	}
}

func publishItemUpdate(step, total int, item models.SavedItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PublishItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, item.Title),
		Data:    item,
	}
}

func publishedItemUpdate(step, total int, result models.PostResult) ProgressUpdate {
	mark := "✓"
	if !result.OK() {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   PublishItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%s)", step, total, mark, result.Item.Title, result.Outcome),
		Data:    result,
	}
}

func pauseUpdate(step, total int, delay time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Pause,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Waiting %s before the next post...", delay),
	}
}

func saveSnapshotUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saving snapshot (%d tracks)...", count),
	}
}
