// Package snapshot records the model after checkpoints so a watch session
// can be inspected or restored later.
package snapshot

import (
	"errors"
	"time"
)

// Store persists snapshots, append-only per session.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores data as the next snapshot of a session and returns its
	// sequence number, starting at 1.
	Append(sessionID string, data []byte) (int64, error)

	// Load retrieves one snapshot.
	// Returns ErrNotFound if it doesn't exist.
	Load(sessionID string, seq int64) ([]byte, error)

	// Latest retrieves the snapshot with the highest sequence.
	// Returns ErrNotFound if the session has none.
	Latest(sessionID string) ([]byte, Info, error)

	// List returns a session's snapshots ordered by sequence.
	// Returns an empty slice (not an error) for an unknown session.
	List(sessionID string) ([]Info, error)

	// Prune keeps the newest keep snapshots of a session and deletes the
	// rest. It returns the number deleted.
	Prune(sessionID string, keep int) (int, error)

	// DeleteSession removes every snapshot of a session.
	// Returns nil if the session has none.
	DeleteSession(sessionID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the snapshot.
type Info struct {
	SessionID string
	Sequence  int64
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for snapshot operations.
var (
	// ErrNotFound indicates a snapshot doesn't exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("snapshot store closed")
)
