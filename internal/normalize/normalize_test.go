package normalize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftglass/narrative-trace/internal/models"
	"github.com/driftglass/narrative-trace/internal/normalize"
)

var meta = models.RequestMeta{SourceIP: "203.0.113.9", UserAgent: "reader/1.0"}

func TestEvent_FullPayload(t *testing.T) {
	ev := normalize.Event(map[string]any{
		"timestamp": "2026-08-26T10:00:00Z",
		"type":      "  Choice ",
		"seed":      "ABC-Def",
		"worldId":   "mirror",
		"day":       float64(3),
		"vector":    "north",
		"data":      map[string]any{"context": "day1", "choice": "flee"},
	}, meta)

	assert.NotEmpty(t, ev.ID)
	assert.NotEmpty(t, ev.ReceivedAt)
	assert.Equal(t, "2026-08-26T10:00:00Z", ev.Timestamp)
	assert.Equal(t, models.TypeChoice, ev.Type)
	assert.Equal(t, "abc-def", ev.Seed)
	assert.Equal(t, "mirror", ev.WorldID)
	require.NotNil(t, ev.Day)
	assert.Equal(t, float64(3), *ev.Day)
	assert.Equal(t, "north", ev.Vector)
	assert.Equal(t, map[string]any{"context": "day1", "choice": "flee"}, ev.Data)
	assert.Equal(t, "203.0.113.9", ev.SourceIP)
	assert.Equal(t, "reader/1.0", ev.UserAgent)
}

func TestEvent_NonObjectPayloadDegradesToDefaults(t *testing.T) {
	for _, payload := range []any{nil, "just a string", float64(7), []any{"a"}} {
		ev := normalize.Event(payload, meta)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, "event", ev.Type)
		assert.Empty(t, ev.Seed)
		assert.Nil(t, ev.Day)
		assert.NotNil(t, ev.Data)
		assert.Empty(t, ev.Data)
	}
}

func TestEvent_NonMappingDataReplaced(t *testing.T) {
	ev := normalize.Event(map[string]any{"type": "choice", "data": "oops"}, meta)
	assert.NotNil(t, ev.Data)
	assert.Empty(t, ev.Data)
}

func TestEvent_DayParsing(t *testing.T) {
	day := func(v any) *float64 {
		return normalize.Event(map[string]any{"day": v}, meta).Day
	}

	require.NotNil(t, day(float64(2)))
	assert.Equal(t, float64(2), *day(float64(2)))
	require.NotNil(t, day(" 5 "))
	assert.Equal(t, float64(5), *day(" 5 "))
	assert.Nil(t, day("not a number"))
	assert.Nil(t, day(true))
	assert.Nil(t, day(nil))
}

func TestEvent_FieldsAreLengthCapped(t *testing.T) {
	long := strings.Repeat("x", 500)
	ev := normalize.Event(map[string]any{
		"type":  long,
		"seed":  long,
		"world": long,
	}, models.RequestMeta{SourceIP: long, UserAgent: long})

	assert.Len(t, ev.Type, normalize.MaxType)
	assert.Len(t, ev.Seed, normalize.MaxSeed)
	assert.Len(t, ev.UserAgent, normalize.MaxAgent)
}

func TestRaw_WrapsUnparseableBody(t *testing.T) {
	ev := normalize.Raw("not json", meta)
	assert.Equal(t, models.TypeRaw, ev.Type)
	assert.Equal(t, "not json", ev.Data["raw"])

	huge := normalize.Raw(strings.Repeat("z", 10_000), meta)
	raw, ok := huge.Data["raw"].(string)
	require.True(t, ok)
	assert.Len(t, raw, normalize.MaxRaw)
}
