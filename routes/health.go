package routes

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"water-quality-backend/internal/store"
	"water-quality-backend/utils"
)

// SetupHealthRoutes registers the root banner, liveness probe and the
// store diagnostics endpoint.
func SetupHealthRoutes(router *gin.Engine, st *store.Mongo) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Water Quality Backend Running"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	router.GET("/test", HandleStoreDiagnostics(st))
}

// HandleStoreDiagnostics reports store connectivity and configuration
// GET /test
func HandleStoreDiagnostics(st *store.Mongo) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"backend":           "running",
			"database":          "not available",
			"database_url":      os.Getenv("MONGO_URI") != "",
			"database_name":     os.Getenv("DB_NAME") != "",
			"connection_status": "not connected",
			"collections":       []string{},
		}

		if st != nil {
			ctx, cancel := utils.WithShortTimeout(c.Request.Context())
			defer cancel()

			names, err := st.Collections(ctx)
			if err != nil {
				response["database"] = "available but unreachable"
				response["error"] = err.Error()
			} else {
				if len(names) > 10 {
					names = names[:10]
				}
				response["database"] = "connected"
				response["connection_status"] = "connected"
				response["collections"] = names
			}
		}

		c.JSON(http.StatusOK, response)
	}
}
