// Package tasks runs the liked-track announcer with real-time progress reporting.
//
// # Core Operations
//
//  1. [SyncEngine.Run] : one full sync
//     - Loads the previous snapshot (a missing file is empty)
//     - Fetches the current page of saved tracks
//     - Posts every new track, oldest first, pausing between posts
//     - Saves the fetched set as the new snapshot
//
//  2. [SyncEngine.Preview] : what the next run would post
//     - Same load, fetch and compare steps, no posting and no save
//
// # Snapshot Guarantee
//
// Once the fetch succeeded the snapshot save is deferred, so it also runs when posting is cancelled or a
// collaborator panics. A failed fetch aborts the run without touching the snapshot.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, and a message. Updates use select with default
// to prevent blocking.
//
// # History
//
// The optional [OutcomeRecorder] interface receives every per-item result (repositories.PostRepository).
// Recorder errors are logged and otherwise ignored.
package tasks
