package api

import (
	"net/http"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/service"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// IngestHandler handles crawl and run ledger endpoints
type IngestHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(services *service.Services, v *validation.Validator, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		services:  services,
		validator: v,
		log:       log.With().Str("handler", "ingest").Logger(),
	}
}

// Crawl handles POST /api/comments/crawl
func (h *IngestHandler) Crawl(c *gin.Context) {
	var req models.CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := h.validator.Struct(req); len(errs) > 0 {
		respondValidation(c, errs)
		return
	}

	req.UserID = currentUser(c)
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	result, err := h.services.Ingest.CrawlAndAnalyze(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "crawl failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRun handles GET /api/ingestions/:run_id
func (h *IngestHandler) GetRun(c *gin.Context) {
	run, err := h.services.Run.GetRun(c.Request.Context(), currentUser(c), c.Param("run_id"))
	if err != nil {
		respondError(c, h.log, err, "failed to get run")
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetRunErrors handles GET /api/ingestions/:run_id/errors
func (h *IngestHandler) GetRunErrors(c *gin.Context) {
	runID := c.Param("run_id")
	errs, err := h.services.Run.GetRunErrors(c.Request.Context(), currentUser(c), runID)
	if err != nil {
		respondError(c, h.log, err, "failed to get run errors")
		return
	}
	if errs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runId":  runID,
		"errors": errs,
		"count":  len(errs),
	})
}
