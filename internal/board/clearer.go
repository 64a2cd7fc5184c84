package board

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/dstav/slate/internal/blob"
	"github.com/dstav/slate/internal/queue"
	"github.com/dstav/slate/internal/repository"
)

// Trigger sources reported with each sweep, for logs and events.
const (
	TriggerSchedule = "schedule"
	TriggerCatchUp  = "catch-up"
	TriggerManual   = "manual"
)

// Sweeper is the contract the scheduler and guard fire against.
type Sweeper interface {
	Clear(ctx context.Context, trigger string) error
}

// Clearer empties the shared feed: it snapshots the image references
// currently attached to notes, releases the blobs best-effort, then deletes
// every note and resets every user's current_note in one transaction. Blob
// deletion happens before the authoritative delete, so a note racing the
// sweep can at worst reference an already-removed blob, never be lost
// silently. Running it twice in a row is a no-op the second time.
type Clearer struct {
	DB    *sql.DB
	Notes *repository.NoteRepo
	Users *repository.UserRepo
	Blobs blob.Store

	// Publish, when set, emits a board.cleared event after a successful
	// sweep. Failures are logged and discarded; eventing is advisory.
	Publish func(ctx context.Context, ev queue.BoardClearedEvent) error
}

// Clear performs the destructive sweep. Blob cleanup failures never abort
// it; a database failure does, and the caller retries at the next boundary
// or request.
func (c *Clearer) Clear(ctx context.Context, trigger string) error {
	refs, err := c.Notes.ImageRefs(ctx)
	if err != nil {
		return err
	}
	ReleaseBlobs(c.Blobs, refs)

	var removed int64
	err = repository.WithTx(ctx, c.DB, func(tx *sql.Tx) error {
		n, err := c.Notes.DeleteAllTx(ctx, tx)
		if err != nil {
			return err
		}
		removed = n
		return c.Users.ResetCurrentNotesTx(ctx, tx)
	})
	if err != nil {
		return err
	}
	log.Printf("board: cleared %d notes (%s)", removed, trigger)

	if c.Publish != nil {
		ev := queue.BoardClearedEvent{
			Trigger:      trigger,
			NotesRemoved: removed,
			ClearedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if err := c.Publish(ctx, ev); err != nil {
			log.Printf("board: publish cleared event failed: %v", err)
		}
	}
	return nil
}

// ReleaseBlobs deletes the given blob references, logging and swallowing
// each failure. A missing or stuck blob must never abort the delete that
// owns the cleanup.
func ReleaseBlobs(store blob.Store, refs []string) {
	for _, ref := range refs {
		if err := store.Delete(ref); err != nil {
			log.Printf("board: release blob %s: %v", ref, err)
		}
	}
}
