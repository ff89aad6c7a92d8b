package store_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftglass/narrative-trace/internal/models"
	"github.com/driftglass/narrative-trace/internal/store"
)

func TestLoad_MissingFileReturnsError(t *testing.T) {
	files, err := store.NewFiles(t.TempDir())
	require.NoError(t, err)

	_, err = files.Load()
	assert.Error(t, err)
}

func TestLoad_CorruptFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	files, err := store.NewFiles(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stats.json"), []byte("{oops"), 0o644))

	_, err = files.Load()
	assert.Error(t, err)
}

func TestLoad_PartialSnapshotIsRepaired(t *testing.T) {
	dir := t.TempDir()
	files, err := store.NewFiles(dir)
	require.NoError(t, err)

	// Totals survive but the maps are missing.
	partial := []byte(`{"version":1,"totals":{"events":9,"choices":4,"sessions":2}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stats.json"), partial, 0o644))

	snap, err := files.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(9), snap.Totals.Events)
	assert.NotNil(t, snap.Contexts)
	assert.NotNil(t, snap.Sessions)
}

func TestSnapshot_RoundTripFidelity(t *testing.T) {
	dir := t.TempDir()
	files, err := store.NewFiles(dir)
	require.NoError(t, err)

	stats := store.NewStats(nil)
	stats.Ingest(choiceEvent("seed1", "day1", "flee"))
	stats.Ingest(choiceEvent("seed1", "day1", "fight"))
	stats.Ingest(choiceEvent("seed2", "day2", "hide"))

	data, err := stats.MarshalSnapshot()
	require.NoError(t, err)
	require.NoError(t, files.WriteSnapshot(data))

	loaded, err := files.Load()
	require.NoError(t, err)

	reloaded := store.NewStats(loaded)
	assert.Equal(t, stats.Totals(), reloaded.Totals())
	assert.Equal(t, stats.ContextCount(), reloaded.ContextCount())

	sum := reloaded.SummarizeContext("day1")
	require.NotNil(t, sum)
	assert.Equal(t, int64(2), sum.Total)
}

func TestWriteSnapshot_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	files, err := store.NewFiles(dir)
	require.NoError(t, err)

	require.NoError(t, files.WriteSnapshot([]byte(`{"version":1}`)))

	_, err = os.Stat(filepath.Join(dir, "stats.json.tmp"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "stats.json"))
	assert.NoError(t, err)
}

func TestAppendEvents_OneJSONObjectPerLine(t *testing.T) {
	dir := t.TempDir()
	files, err := store.NewFiles(dir)
	require.NoError(t, err)

	require.NoError(t, files.AppendEvents([]models.Event{
		choiceEvent("s", "day1", "flee"),
		choiceEvent("s", "day1", "fight"),
	}))
	require.NoError(t, files.AppendEvents([]models.Event{
		choiceEvent("s", "day2", "hide"),
	}))

	f, err := os.Open(filepath.Join(dir, "events.ndjson"))
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var ev models.Event
		assert.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 3, lines)
}
