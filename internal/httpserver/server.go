package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/driftglass/narrative-trace/internal/handlers"
	"github.com/driftglass/narrative-trace/internal/store"
)

// NewRouter wires the trace service's HTTP surface.
// Ingestion: POST /trace
// Queries:   GET /health, GET /stats
func NewRouter(stats *store.Stats, files *store.Files) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Headers())

	handlers.RegisterStatsRoutes(r, stats)
	handlers.RegisterTraceRoutes(r, stats, files)

	// Unknown method/path still gets a structured JSON body.
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "not_found"})
	})

	return r
}
