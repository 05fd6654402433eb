package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/randalmurphal/exprbind/pkg/exprbind/observe"
)

// Version is the current snapshot format version.
// Increment when making breaking changes to the snapshot structure.
const Version = 1

// Snapshot is the persisted state of a model after a checkpoint.
type Snapshot struct {
	Version   int       `json:"version"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`

	// Model is the JSON encoding of the model.
	Model json.RawMessage `json:"model"`

	// Checkpoint counters that led to this snapshot.
	Cycles      int `json:"cycles"`
	Evaluations int `json:"evaluations"`
	Fired       int `json:"fired"`
}

// New encodes model into a snapshot. The model must be JSON-encodable;
// functions in it are not.
func New(sessionID string, model any, stats observe.Stats) (*Snapshot, error) {
	data, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return &Snapshot{
		Version:     Version,
		SessionID:   sessionID,
		Timestamp:   time.Now().UTC(),
		Model:       data,
		Cycles:      stats.Cycles,
		Evaluations: stats.Evaluations,
		Fired:       stats.Fired,
	}, nil
}

// Marshal serializes a snapshot to JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeModel decodes the model into plain maps and slices.
func (s *Snapshot) DecodeModel() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(s.Model, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return m, nil
}

// Unmarshal deserializes a snapshot from JSON.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Version > Version {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", s.Version, Version)
	}
	return &s, nil
}

// Restore loads the latest snapshot of a session and decodes its model.
func Restore(store Store, sessionID string) (map[string]any, error) {
	data, _, err := store.Latest(sessionID)
	if err != nil {
		return nil, err
	}
	s, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return s.DecodeModel()
}
