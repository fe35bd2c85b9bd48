package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"water-quality-backend/internal/config"
	"water-quality-backend/internal/logger"
	"water-quality-backend/internal/store"
	"water-quality-backend/internal/telemetry"
	"water-quality-backend/models"
	"water-quality-backend/services"
	"water-quality-backend/utils"
)

// SetupSampleRoutes registers the sample ingestion, query, summary and
// clustering endpoints.
func SetupSampleRoutes(router *gin.Engine, cfg *config.Config, svc *services.SampleService, metrics *telemetry.Metrics) {
	router.POST("/samples", HandleCreateSample(svc, metrics))
	router.GET("/samples", HandleListSamples(svc, cfg))
	router.GET("/summaries", HandleGetSummaries(svc))
	router.POST("/cluster", HandleTriggerCluster(svc, cfg))
}

// HandleCreateSample validates and persists one water sample
// POST /samples
func HandleCreateSample(svc *services.SampleService, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Stage one: parse into a generic map. Parse failures are plain
		// bad requests, distinct from semantic validation failures.
		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			utils.RespondWithBadRequest(c, "Request body must be a JSON object", err.Error())
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		result, err := svc.Ingest(ctx, raw)
		if err != nil {
			respondWithOperationError(c, err)
			return
		}

		if metrics != nil {
			if scenario, ok := raw["scenario"].(string); ok {
				metrics.RecordIngest(scenario)
			}
		}

		c.JSON(http.StatusCreated, result)
	}
}

// HandleListSamples returns samples filtered by optional scenario
// GET /samples?scenario=dry&limit=200
func HandleListSamples(svc *services.SampleService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		scenario := c.Query("scenario")

		limit := cfg.DefaultQueryLimit
		if limitStr := c.Query("limit"); limitStr != "" {
			parsed, err := strconv.ParseInt(limitStr, 10, 64)
			if err != nil {
				utils.RespondWithBadRequest(c, "limit must be an integer", nil)
				return
			}
			limit = parsed
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		result, err := svc.List(ctx, scenario, limit)
		if err != nil {
			respondWithOperationError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleGetSummaries returns per-scenario aggregates
// GET /summaries
func HandleGetSummaries(svc *services.SampleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		summaries, err := svc.Summaries(ctx)
		if err != nil {
			respondWithOperationError(c, err)
			return
		}

		c.JSON(http.StatusOK, summaries)
	}
}

// HandleTriggerCluster prepares the clustering hand-off payload and
// returns the placeholder labeling
// POST /cluster
func HandleTriggerCluster(svc *services.SampleService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ClusterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid cluster request", err.Error())
			return
		}

		k := cfg.DefaultClusterK
		if req.K != nil {
			k = *req.K
		}

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		result, err := svc.Cluster(ctx, req.Scenario, k)
		if err != nil {
			respondWithOperationError(c, err)
			return
		}

		logger.Debug("prepared clustering hand-off",
			"scenario", req.Scenario,
			"k", result.K,
			"samples", len(result.Labels),
			"request_id", c.GetString("request_id"),
		)

		c.JSON(http.StatusOK, result)
	}
}

// respondWithOperationError maps operation error kinds to status codes:
// ValidationError -> 422, StoreError -> 500.
func respondWithOperationError(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		utils.RespondWithValidationError(c, "Sample failed validation", verr.Violations)
		return
	}

	var serr *store.StoreError
	if errors.As(err, &serr) {
		logger.Error("document store failure",
			"op", serr.Op,
			"collection", serr.Collection,
			"error", serr.Err,
			"request_id", c.GetString("request_id"),
		)
		utils.RespondWithInternalError(c, "Document store unavailable", serr.Error())
		return
	}

	utils.RespondWithInternalError(c, "Unexpected error", err.Error())
}
