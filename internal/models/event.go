package models

// Event kinds the aggregator understands. Any other kind is stored in
// the raw log but only advances the global event counter.
const (
	TypeChoice     = "choice"
	TypeAnnotation = "annotation"
	TypeRaw        = "raw"
)

// Event is the immutable record of one client interaction. Its JSON
// field names are the schema of the append log (events.ndjson); every
// string field is sanitized and length-capped before an Event exists.
type Event struct {
	ID         string         `json:"id"`
	Timestamp  string         `json:"timestamp"`
	ReceivedAt string         `json:"receivedAt"`
	Type       string         `json:"type"`
	Seed       string         `json:"seed,omitempty"`
	WorldID    string         `json:"worldId,omitempty"`
	Day        *float64       `json:"day"`
	Vector     string         `json:"vector,omitempty"`
	Data       map[string]any `json:"data"`
	SourceIP   string         `json:"sourceIp,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
}

// RequestMeta carries request provenance into normalization.
type RequestMeta struct {
	SourceIP  string
	UserAgent string
}
