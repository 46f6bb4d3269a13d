package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/2601-ai-team4/ContentShield/internal/crawler"
	"github.com/2601-ai-team4/ContentShield/internal/service"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// respondValidation writes a 400 with field-level errors
func respondValidation(c *gin.Context, errs []validation.ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "validation failed",
		"errors": errs,
	})
}

// respondError maps service errors to status codes
func respondError(c *gin.Context, log zerolog.Logger, err error, msg string) {
	var (
		verrs validation.Errors
		fetch *crawler.FetchError
	)

	switch {
	case errors.As(err, &verrs):
		respondValidation(c, verrs)
	case errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
	case errors.Is(err, service.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &fetch):
		log.Error().Err(err).Str("url", fetch.URL).Msg(msg)
		c.JSON(http.StatusBadGateway, gin.H{"error": fetch.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Msg(msg)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		log.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
