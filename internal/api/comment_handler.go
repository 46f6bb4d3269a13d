package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/service"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles listing, deletion and export of staged comments
type CommentHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, v *validation.Validator, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services:  services,
		validator: v,
		log:       log.With().Str("handler", "comment").Logger(),
	}
}

// parseListRequest reads the shared listing filters from the query string
func parseListRequest(c *gin.Context) (models.ListCommentsRequest, []validation.ValidationError) {
	req := models.ListCommentsRequest{
		URL:       c.Query("url"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}

	page, size, errs := validation.ParsePage(c.Query("page"), c.Query("size"))
	req.Page, req.Size = page, size

	for _, d := range [...]struct{ field, value string }{{"startDate", req.StartDate}, {"endDate", req.EndDate}} {
		if d.value == "" {
			continue
		}
		if _, err := validation.ParseDate(d.value, time.UTC); err != nil {
			errs = append(errs, validation.ValidationError{Field: d.field, Message: d.field + " must be a date in YYYY-MM-DD format", Value: d.value})
		}
	}

	if raw := c.Query("isMalicious"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, validation.ValidationError{Field: "isMalicious", Message: "isMalicious must be true or false", Value: raw})
		} else {
			req.IsMalicious = &v
		}
	}

	return req, errs
}

// List handles GET /api/comments
func (h *CommentHandler) List(c *gin.Context) {
	req, errs := parseListRequest(c)
	if len(errs) > 0 {
		respondValidation(c, errs)
		return
	}

	page, err := h.services.Comment.List(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, h.log, err, "failed to list comments")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Delete handles DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	if err := h.services.Comment.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, h.log, err, "failed to delete comment")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteMany handles DELETE /api/comments with a list of ids
func (h *CommentHandler) DeleteMany(c *gin.Context) {
	var req models.DeleteCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := h.validator.Struct(req); len(errs) > 0 {
		respondValidation(c, errs)
		return
	}

	n, err := h.services.Comment.DeleteMany(c.Request.Context(), currentUser(c), req.CommentIDs)
	if err != nil {
		respondError(c, h.log, err, "failed to delete comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": n})
}

// DeleteByURL handles DELETE /api/comments/all?url=
// Without a url every comment of the caller is deleted.
func (h *CommentHandler) DeleteByURL(c *gin.Context) {
	var (
		n   int64
		err error
	)
	if url := c.Query("url"); url != "" {
		n, err = h.services.Comment.DeleteByURL(c.Request.Context(), currentUser(c), url)
	} else {
		n, err = h.services.Comment.DeleteAll(c.Request.Context(), currentUser(c))
	}
	if err != nil {
		respondError(c, h.log, err, "failed to delete comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": n})
}

// Export handles GET /api/comments/export?format=ndjson|csv|json
func (h *CommentHandler) Export(c *gin.Context) {
	req, errs := parseListRequest(c)
	if len(errs) > 0 {
		respondValidation(c, errs)
		return
	}

	format := c.DefaultQuery("format", "ndjson")

	err := h.services.Export.StreamComments(c.Request.Context(), c.Writer, currentUser(c), req, format)
	if err == nil {
		return
	}
	if !c.Writer.Written() {
		respondError(c, h.log, err, "export failed")
		return
	}
	// Headers are already sent
	h.log.Error().Err(err).Str("format", format).Msg("Export aborted mid-stream")
}
