package models

import "time"

// SnapshotVersion is bumped only on incompatible snapshot schema changes.
const SnapshotVersion = 1

// ChoiceStat tracks one choice variant inside a context. Label is
// cosmetic and last-write-wins; Count only ever grows.
type ChoiceStat struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// ContextStats aggregates choice and annotation activity for one
// caller-supplied context label.
type ContextStats struct {
	Total     int64                  `json:"total"`
	Choices   map[string]*ChoiceStat `json:"choices"`
	Marks     map[string]int64       `json:"marks"`
	UpdatedAt string                 `json:"updatedAt"`
}

// SessionStats tracks one playthrough, keyed by the sanitized seed.
type SessionStats struct {
	FirstSeen   string `json:"firstSeen"`
	LastSeen    string `json:"lastSeen"`
	Events      int64  `json:"events"`
	Choices     int64  `json:"choices"`
	LastVector  string `json:"lastVector,omitempty"`
	LastContext string `json:"lastContext,omitempty"`
}

// Totals are the global counters of the deployment.
type Totals struct {
	Events   int64 `json:"events"`
	Choices  int64 `json:"choices"`
	Sessions int64 `json:"sessions"`
}

// Snapshot is the entire durable aggregate state, serialized in full to
// stats.json after every accepted batch. It grows monotonically; nothing
// is ever evicted.
type Snapshot struct {
	Version   int                      `json:"version"`
	CreatedAt string                   `json:"createdAt"`
	UpdatedAt string                   `json:"updatedAt"`
	Totals    Totals                   `json:"totals"`
	Contexts  map[string]*ContextStats `json:"contexts"`
	Sessions  map[string]*SessionStats `json:"sessions"`
}

// NewSnapshot returns a zeroed snapshot stamped with the current time.
func NewSnapshot() *Snapshot {
	now := Now()
	return &Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: now,
		UpdatedAt: now,
		Contexts:  map[string]*ContextStats{},
		Sessions:  map[string]*SessionStats{},
	}
}

// Reinit repairs a snapshot decoded from a partially corrupt file so the
// rest of the system can rely on non-nil maps and a sane version.
func (s *Snapshot) Reinit() {
	if s.Version == 0 {
		s.Version = SnapshotVersion
	}
	if s.CreatedAt == "" {
		s.CreatedAt = Now()
	}
	if s.Contexts == nil {
		s.Contexts = map[string]*ContextStats{}
	}
	if s.Sessions == nil {
		s.Sessions = map[string]*SessionStats{}
	}
	for k, c := range s.Contexts {
		if c == nil {
			c = &ContextStats{}
			s.Contexts[k] = c
		}
		if c.Choices == nil {
			c.Choices = map[string]*ChoiceStat{}
		}
		if c.Marks == nil {
			c.Marks = map[string]int64{}
		}
	}
	for k, sess := range s.Sessions {
		if sess == nil {
			s.Sessions[k] = &SessionStats{}
		}
	}
}

// Now is the single clock for snapshot and event timestamps.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
