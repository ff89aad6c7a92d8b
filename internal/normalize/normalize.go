// Package normalize turns arbitrary parsed payloads plus request
// metadata into canonical Event records. It is total: malformed input
// degrades to empty or default fields so no client event is ever
// dropped before reaching the log.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/driftglass/narrative-trace/internal/models"
	"github.com/driftglass/narrative-trace/internal/sanitize"
)

// Length caps applied before anything is stored.
const (
	MaxTimestamp = 40
	MaxType      = 32
	MaxSeed      = 64
	MaxField     = 80
	MaxAgent     = 200
	MaxRaw       = 2048
)

// Event builds exactly one well-formed Event from an arbitrary payload.
// The payload may not be an object at all; every field falls back to a
// sanitized default rather than an error.
func Event(payload any, meta models.RequestMeta) models.Event {
	body, _ := payload.(map[string]any)

	ev := models.Event{
		ID:         newID(),
		Timestamp:  sanitize.Text(field(body, "timestamp"), MaxTimestamp),
		ReceivedAt: models.Now(),
		Type:       sanitize.Key(field(body, "type"), MaxType),
		Seed:       sanitize.Key(field(body, "seed"), MaxSeed),
		WorldID:    sanitize.Text(field(body, "worldId"), MaxField),
		Day:        parseDay(field(body, "day")),
		Vector:     sanitize.Text(field(body, "vector"), MaxField),
		Data:       map[string]any{},
		SourceIP:   sanitize.Text(meta.SourceIP, MaxSeed),
		UserAgent:  sanitize.Text(meta.UserAgent, MaxAgent),
	}
	if ev.Type == "" {
		ev.Type = "event"
	}
	if data, ok := field(body, "data").(map[string]any); ok && data != nil {
		ev.Data = data
	}
	return ev
}

// Raw wraps an unparseable request body into a fallback event so the
// mis-shapen input is still recorded.
func Raw(body string, meta models.RequestMeta) models.Event {
	ev := Event(nil, meta)
	ev.Type = models.TypeRaw
	ev.Data = map[string]any{"raw": sanitize.Text(body, MaxRaw)}
	return ev
}

// newID is a time-based prefix plus a random suffix; it is only used
// for log traceability.
func newID() string {
	prefix := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return prefix + "-" + suffix
}

func field(body map[string]any, key string) any {
	if body == nil {
		return nil
	}
	return body[key]
}

// parseDay accepts the JSON number forms a client may send for a day
// marker; anything non-finite or non-numeric becomes nil.
func parseDay(v any) *float64 {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}
