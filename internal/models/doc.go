// Package models defines the domain entities shared by the sync engine, the snapshot store, and the post history.
//
// The package contains two categories of types:
//
// 1. Library data: what was fetched from the streaming service
//   - [SavedItem] : a saved track, identified by its service ID
//   - [Snapshot] : the full result of one fetch, persisted between runs
//
// 2. Posting data: what happened when an item was published
//   - [Outcome] : terminal state of a single publish attempt
//   - [PostResult] : outcome plus the text sent, attempt count, and error
//   - [PostRecord] : a persisted [PostResult] read back from the history database
package models
