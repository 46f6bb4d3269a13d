package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/analyzer"
	"github.com/2601-ai-team4/ContentShield/internal/config"
	"github.com/2601-ai-team4/ContentShield/internal/crawler"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/repository"
	"github.com/rs/zerolog"
)

// ErrCommentNotFound is returned when a comment does not exist or belongs to another user
var ErrCommentNotFound = errors.New("comment not found")

// IngestService runs the crawl, filter, persist and analyze pipeline
type IngestService interface {
	CrawlAndAnalyze(ctx context.Context, req *models.CrawlRequest) (*models.CrawlResult, error)
}

// AnalysisService defines the interface for toxicity analysis
type AnalysisService interface {
	AnalyzeComment(ctx context.Context, userID, commentID int64) (*models.AnalysisResult, error)
	AnalyzeBulk(ctx context.Context, userID int64, commentIDs []int64) (*models.BulkAnalysisResult, error)
	History(ctx context.Context, userID int64, limit int) ([]models.AnalysisResult, error)
	GetCount(ctx context.Context) (int, error)
}

// CommentService defines the read and delete operations on staged comments
type CommentService interface {
	List(ctx context.Context, userID int64, req models.ListCommentsRequest) (*models.CommentPage, error)
	Delete(ctx context.Context, userID, commentID int64) error
	DeleteMany(ctx context.Context, userID int64, commentIDs []int64) (int64, error)
	DeleteByURL(ctx context.Context, userID int64, url string) (int64, error)
	DeleteAll(ctx context.Context, userID int64) (int64, error)
	GetCount(ctx context.Context) (int, error)
}

// ExportService defines the interface for streaming exports
type ExportService interface {
	StreamComments(ctx context.Context, w http.ResponseWriter, userID int64, req models.ListCommentsRequest, format string) error
}

// RunService exposes the ingest run ledger
type RunService interface {
	GetRun(ctx context.Context, userID int64, id string) (*models.RunResponse, error)
	GetRunErrors(ctx context.Context, userID int64, id string) ([]models.RunError, error)
}

// HealthService reports dependency health
type HealthService interface {
	Check(ctx context.Context) error
}

// HealthChecker is satisfied by *database.DB
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Clients bundles the external capabilities the services depend on
type Clients struct {
	Crawler crawler.Client
	Scorer  analyzer.Scorer
	DB      HealthChecker
	// Now is the clock; defaults to time.Now
	Now func() time.Time
}

// Services holds all service interfaces
type Services struct {
	Ingest   IngestService
	Analysis AnalysisService
	Comment  CommentService
	Export   ExportService
	Run      RunService
	Health   HealthService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, clients Clients, cfg *config.Config, log zerolog.Logger) *Services {
	now := clients.Now
	if now == nil {
		now = time.Now
	}

	runSvc := newRunService(repos.Run, cfg.Ingest.MaxRunErrors, log)
	analysisSvc := newAnalysisService(repos, clients.Scorer, cfg.Analyzer.Threshold, log)
	commentSvc := newCommentService(repos, cfg.Ingest.QueryLookbackDays, now, log)
	ingestSvc := newIngestService(repos, clients.Crawler, analysisSvc, runSvc, cfg.Ingest.DefaultWindowDays, now, log)
	exportSvc := newExportService(repos, commentSvc, log)

	return &Services{
		Ingest:   ingestSvc,
		Analysis: analysisSvc,
		Comment:  commentSvc,
		Export:   exportSvc,
		Run:      runSvc,
		Health:   &healthService{db: clients.DB},
	}
}

type healthService struct {
	db HealthChecker
}

func (h *healthService) Check(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.HealthCheck(ctx)
}
