// Package queue defines message payloads exchanged over the message broker.
package queue

// BoardClearedEvent is published after every successful feed sweep. It
// carries enough information for downstream consumers to log or alert on
// sweep activity without querying the primary database.
type BoardClearedEvent struct {
    Trigger      string `json:"trigger"` // "schedule", "catch-up" or "manual"
    NotesRemoved int64  `json:"notes_removed"`
    ClearedAt    string `json:"cleared_at"` // RFC3339, UTC
}
