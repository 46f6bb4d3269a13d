package api

import (
	"net/http"
	"strconv"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/service"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// AnalysisHandler handles analysis endpoints
type AnalysisHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(services *service.Services, v *validation.Validator, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		services:  services,
		validator: v,
		log:       log.With().Str("handler", "analysis").Logger(),
	}
}

// AnalyzeComment handles POST /api/analysis/comment
func (h *AnalysisHandler) AnalyzeComment(c *gin.Context) {
	var req models.AnalyzeCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := h.validator.Struct(req); len(errs) > 0 {
		respondValidation(c, errs)
		return
	}

	result, err := h.services.Analysis.AnalyzeComment(c.Request.Context(), currentUser(c), req.CommentID)
	if err != nil {
		respondError(c, h.log, err, "analysis failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// AnalyzeBulk handles POST /api/comments/analyze-bulk
func (h *AnalysisHandler) AnalyzeBulk(c *gin.Context) {
	var req models.BulkAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := h.validator.Struct(req); len(errs) > 0 {
		respondValidation(c, errs)
		return
	}

	result, err := h.services.Analysis.AnalyzeBulk(c.Request.Context(), currentUser(c), req.CommentIDs)
	if err != nil {
		respondError(c, h.log, err, "bulk analysis failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// History handles GET /api/analysis/history?limit=
func (h *AnalysisHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxHistoryLimit {
			respondValidation(c, []validation.ValidationError{{
				Field:   "limit",
				Message: "limit must be between 1 and " + strconv.Itoa(maxHistoryLimit),
				Value:   raw,
			}})
			return
		}
		limit = v
	}

	results, err := h.services.Analysis.History(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		respondError(c, h.log, err, "failed to load analysis history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
