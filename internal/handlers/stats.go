package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/driftglass/narrative-trace/internal/models"
	"github.com/driftglass/narrative-trace/internal/sanitize"
	"github.com/driftglass/narrative-trace/internal/store"
)

// topContextLimit is how many contexts GET /stats reports.
const topContextLimit = 8

// RegisterStatsRoutes registers the read-path endpoints.
//
// GET /health → liveness plus last aggregate mutation time
// GET /stats?context=<label> → totals, context count, optional
// single-context summary, and the top contexts by total
func RegisterStatsRoutes(r gin.IRoutes, stats *store.Stats) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"updatedAt": stats.UpdatedAt(),
			"now":       models.Now(),
		})
	})

	r.GET("/stats", func(c *gin.Context) {
		resp := gin.H{
			"totals":       stats.Totals(),
			"contextCount": stats.ContextCount(),
			"top":          stats.TopContexts(topContextLimit),
		}
		if key := sanitize.Key(c.Query("context"), 80); key != "" {
			if summary := stats.SummarizeContext(key); summary != nil {
				resp["context"] = summary
			}
		}
		c.JSON(http.StatusOK, resp)
	})
}
