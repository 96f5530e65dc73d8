package snapshot

import "github.com/desertthunder/likecast/internal/models"

// Diff returns the items of current whose ID is absent from previous, oldest first.
//
// Library fetches are newest first, so the result is current's order reversed. Duplicate IDs in current are kept.
func Diff(previous, current models.Snapshot) []models.SavedItem {
	seen := previous.IDs()

	fresh := make([]models.SavedItem, 0, len(current.Items))
	for i := len(current.Items) - 1; i >= 0; i-- {
		item := current.Items[i]
		if _, ok := seen[item.ID]; ok {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}
