package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/driftglass/narrative-trace/internal/models"
	"github.com/driftglass/narrative-trace/internal/normalize"
	"github.com/driftglass/narrative-trace/internal/store"
)

// MaxBodyBytes caps a trace request body at 128 KiB.
const MaxBodyBytes = 128 << 10

// errorBody is the structured error response of every failure path.
func errorBody(msg, code string) gin.H {
	return gin.H{"error": msg, "code": code}
}

// RegisterTraceRoutes registers the ingestion-path endpoint.
//
// POST /trace
//   - Body: one JSON object or an array of objects, 128 KiB cap
//   - Never rejects for shape: non-JSON bodies become one "raw" event
//   - 202 with accepted count and updated totals on success
func RegisterTraceRoutes(r gin.IRoutes, stats *store.Stats, files *store.Files) {
	r.POST("/trace", func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge,
					errorBody("body exceeds 128 KiB", "payload_too_large"))
				return
			}
			c.JSON(http.StatusBadRequest, errorBody("unreadable body", "bad_request"))
			return
		}

		meta := models.RequestMeta{
			SourceIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}

		// Malformed JSON is wrapped, not rejected: mis-shapen input is
		// recorded, never discarded.
		var events []models.Event
		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			events = []models.Event{normalize.Raw(string(body), meta)}
		} else if list, ok := payload.([]any); ok {
			events = make([]models.Event, 0, len(list))
			for _, item := range list {
				events = append(events, normalize.Event(item, meta))
			}
		} else {
			events = []models.Event{normalize.Event(payload, meta)}
		}

		for _, ev := range events {
			stats.Ingest(ev)
		}

		// In-memory state is already mutated; a write failure reports a
		// server error without rolling the counters back.
		if err := files.AppendEvents(events); err != nil {
			c.JSON(http.StatusInternalServerError, errorBody(err.Error(), "persist_failed"))
			return
		}
		snap, err := stats.MarshalSnapshot()
		if err == nil {
			err = files.WriteSnapshot(snap)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody(err.Error(), "persist_failed"))
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"accepted": len(events),
			"totals":   stats.Totals(),
		})
	})
}
