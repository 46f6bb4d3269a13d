package api

import (
	"context"
	"net/http"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/config"
	"github.com/2601-ai-team4/ContentShield/internal/service"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const healthTimeout = 2 * time.Second

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	v := validation.NewValidator()
	ingestHandler := NewIngestHandler(services, v, log)
	commentHandler := NewCommentHandler(services, v, log)
	analysisHandler := NewAnalysisHandler(services, v, log)

	// Health check
	router.GET("/health", healthCheck(services))
	router.GET("/metrics", metricsHandler(services))

	api := router.Group("/api")
	api.Use(authMiddleware([]byte(cfg.Auth.JWTSecret)))
	{
		comments := api.Group("/comments")
		{
			comments.GET("", commentHandler.List)
			comments.GET("/export", commentHandler.Export)
			comments.POST("/crawl", ingestHandler.Crawl)
			comments.POST("/analyze-bulk", analysisHandler.AnalyzeBulk)
			comments.DELETE("", commentHandler.DeleteMany)
			comments.DELETE("/all", commentHandler.DeleteByURL)
			comments.DELETE("/:id", commentHandler.Delete)
		}

		analysis := api.Group("/analysis")
		{
			analysis.POST("/comment", analysisHandler.AnalyzeComment)
			analysis.GET("/history", analysisHandler.History)
		}

		ingestions := api.Group("/ingestions")
		{
			ingestions.GET("/:run_id", ingestHandler.GetRun)
			ingestions.GET("/:run_id/errors", ingestHandler.GetRunErrors)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := contextWithTimeout(c, healthTimeout)
		defer cancel()

		status, code := "healthy", http.StatusOK
		body := gin.H{
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "contentshield",
		}
		if err := services.Health.Check(ctx); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
			body["error"] = err.Error()
		}
		body["status"] = status

		c.JSON(code, body)
	}
}

// metricsHandler returns row counts
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		commentsCount, _ := services.Comment.GetCount(ctx)
		analysesCount, _ := services.Analysis.GetCount(ctx)

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"comments":         commentsCount,
				"analysis_results": analysesCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware propagates or assigns X-Request-ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString("request_id")).
			Int64("user_id", c.GetInt64(userIDKey)).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
