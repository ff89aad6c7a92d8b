// Package store holds the aggregate state of the trace service: an
// in-memory stats store mutated by ingestion, and the file layer that
// makes it durable.
package store

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/driftglass/narrative-trace/internal/models"
	"github.com/driftglass/narrative-trace/internal/sanitize"
)

// Limits applied when resolving aggregate keys from event data.
const (
	maxContextKey = 80
	maxChoiceKey  = 80
	maxLabel      = 120
	maxMarkKey    = 80

	// summarized contexts expose at most this many choice variants.
	maxChoicesShown = 8
)

// Stats exclusively owns the in-memory snapshot. Every mutation happens
// under the mutex, so each Ingest is atomic with respect to readers and
// to other ingests.
type Stats struct {
	mu   sync.Mutex
	snap *models.Snapshot
}

// NewStats wraps a loaded (or freshly zeroed) snapshot.
func NewStats(snap *models.Snapshot) *Stats {
	if snap == nil {
		snap = models.NewSnapshot()
	}
	snap.Reinit()
	return &Stats{snap: snap}
}

// ChoiceSummary is one choice variant in a context summary.
type ChoiceSummary struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Count   int64  `json:"count"`
	Percent int    `json:"percent"`
}

// ContextSummary is the query-facing view of one context.
type ContextSummary struct {
	Context  string          `json:"context"`
	Total    int64           `json:"total"`
	Variants int             `json:"variants"`
	Top      *ChoiceSummary  `json:"top,omitempty"`
	Choices  []ChoiceSummary `json:"choices"`
}

// Ingest folds one event into the running aggregates. Counts are
// monotonic; redelivering the same event increments them again, since
// the store does not deduplicate by event id.
func (s *Stats) Ingest(ev models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := models.Now()
	s.snap.Totals.Events++
	s.snap.UpdatedAt = now

	var sess *models.SessionStats
	if ev.Seed != "" {
		var ok bool
		sess, ok = s.snap.Sessions[ev.Seed]
		if !ok {
			sess = &models.SessionStats{FirstSeen: now}
			s.snap.Sessions[ev.Seed] = sess
			s.snap.Totals.Sessions++
		}
		sess.LastSeen = now
		sess.Events++
		if ev.Vector != "" {
			sess.LastVector = ev.Vector
		}
	}

	switch ev.Type {
	case models.TypeChoice:
		ctxKey := contextKey(ev.Data)
		label := sanitize.Text(ev.Data["label"], maxLabel)
		if label == "" {
			label = sanitize.Text(ev.Data["choice"], maxLabel)
		}
		if label == "" {
			label = "choice"
		}
		choiceKey := sanitize.Key(ev.Data["choice"], maxChoiceKey)
		if choiceKey == "" {
			choiceKey = sanitize.Key(label, maxChoiceKey)
		}
		if choiceKey == "" {
			choiceKey = "choice"
		}

		ctx := s.context(ctxKey)
		stat, ok := ctx.Choices[choiceKey]
		if !ok {
			stat = &models.ChoiceStat{}
			ctx.Choices[choiceKey] = stat
		}
		stat.Label = label
		stat.Count++
		ctx.Total++
		ctx.UpdatedAt = now
		s.snap.Totals.Choices++
		if sess != nil {
			sess.Choices++
			sess.LastContext = ctxKey
		}

	case models.TypeAnnotation:
		ctxKey := contextKey(ev.Data)
		mark := sanitize.Key(ev.Data["mark"], maxMarkKey)
		if mark == "" {
			mark = "mark"
		}
		ctx := s.context(ctxKey)
		ctx.Marks[mark]++
		ctx.UpdatedAt = now
	}
}

// context lazily creates the aggregate for a key. Callers hold the lock.
func (s *Stats) context(key string) *models.ContextStats {
	ctx, ok := s.snap.Contexts[key]
	if !ok {
		ctx = &models.ContextStats{
			Choices: map[string]*models.ChoiceStat{},
			Marks:   map[string]int64{},
		}
		s.snap.Contexts[key] = ctx
	}
	return ctx
}

func contextKey(data map[string]any) string {
	if key := sanitize.Key(data["context"], maxContextKey); key != "" {
		return key
	}
	return "timeline"
}

// SummarizeContext returns nil for an unknown context. Choices are
// sorted by descending count, ties broken by key, capped at 8.
func (s *Stats) SummarizeContext(key string) *ContextSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summarize(key)
}

func (s *Stats) summarize(key string) *ContextSummary {
	ctx, ok := s.snap.Contexts[key]
	if !ok {
		return nil
	}

	choices := make([]ChoiceSummary, 0, len(ctx.Choices))
	for k, stat := range ctx.Choices {
		choices = append(choices, ChoiceSummary{
			Key:     k,
			Label:   stat.Label,
			Count:   stat.Count,
			Percent: percent(stat.Count, ctx.Total),
		})
	}
	sort.Slice(choices, func(i, j int) bool {
		if choices[i].Count != choices[j].Count {
			return choices[i].Count > choices[j].Count
		}
		return choices[i].Key < choices[j].Key
	})

	summary := &ContextSummary{
		Context:  key,
		Total:    ctx.Total,
		Variants: len(ctx.Choices),
	}
	if len(choices) > 0 {
		top := choices[0]
		summary.Top = &top
	}
	if len(choices) > maxChoicesShown {
		choices = choices[:maxChoicesShown]
	}
	summary.Choices = choices
	return summary
}

// TopContexts summarizes every known context and returns the limit
// highest by total, descending.
func (s *Stats) TopContexts(limit int) []*ContextSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ContextSummary, 0, len(s.snap.Contexts))
	for key := range s.snap.Contexts {
		out = append(out, s.summarize(key))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Context < out[j].Context
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Totals returns a copy of the global counters.
func (s *Stats) Totals() models.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Totals
}

// ContextCount reports how many contexts have been seen.
func (s *Stats) ContextCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snap.Contexts)
}

// UpdatedAt reports the last mutation time of the snapshot.
func (s *Stats) UpdatedAt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.UpdatedAt
}

// MarshalSnapshot serializes the full current snapshot under the lock,
// so a write-through always persists a consistent point in the mutation
// history.
func (s *Stats) MarshalSnapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.snap, "", "  ")
}

func percent(count, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(float64(count)/float64(total)*100 + 0.5)
}
