package mocks

import (
	"context"
	"net/http"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/service"
)

var (
	_ service.IngestService   = (*MockIngestService)(nil)
	_ service.AnalysisService = (*MockAnalysisService)(nil)
	_ service.CommentService  = (*MockCommentService)(nil)
	_ service.ExportService   = (*MockExportService)(nil)
	_ service.RunService      = (*MockRunService)(nil)
	_ service.HealthService   = (*MockHealthService)(nil)
)

// NewMockServices returns Services backed by fresh mocks
func NewMockServices() *service.Services {
	return &service.Services{
		Ingest:   &MockIngestService{},
		Analysis: &MockAnalysisService{},
		Comment:  &MockCommentService{},
		Export:   &MockExportService{},
		Run:      NewMockRunService(),
		Health:   &MockHealthService{},
	}
}

// MockIngestService is a mock implementation of IngestService
type MockIngestService struct {
	CrawlFunc func(ctx context.Context, req *models.CrawlRequest) (*models.CrawlResult, error)
	Requests  []models.CrawlRequest
}

func (m *MockIngestService) CrawlAndAnalyze(ctx context.Context, req *models.CrawlRequest) (*models.CrawlResult, error) {
	m.Requests = append(m.Requests, *req)
	if m.CrawlFunc != nil {
		return m.CrawlFunc(ctx, req)
	}
	return &models.CrawlResult{Results: []models.AnalysisResult{}}, nil
}

// MockAnalysisService is a mock implementation of AnalysisService
type MockAnalysisService struct {
	AnalyzeFunc func(ctx context.Context, userID, commentID int64) (*models.AnalysisResult, error)
	BulkFunc    func(ctx context.Context, userID int64, commentIDs []int64) (*models.BulkAnalysisResult, error)
	HistoryFunc func(ctx context.Context, userID int64, limit int) ([]models.AnalysisResult, error)
	Count       int
}

func (m *MockAnalysisService) AnalyzeComment(ctx context.Context, userID, commentID int64) (*models.AnalysisResult, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, userID, commentID)
	}
	return &models.AnalysisResult{CommentID: commentID, UserID: userID}, nil
}

func (m *MockAnalysisService) AnalyzeBulk(ctx context.Context, userID int64, commentIDs []int64) (*models.BulkAnalysisResult, error) {
	if m.BulkFunc != nil {
		return m.BulkFunc(ctx, userID, commentIDs)
	}
	return &models.BulkAnalysisResult{AnalyzedCount: len(commentIDs), Results: []models.AnalysisResult{}}, nil
}

func (m *MockAnalysisService) History(ctx context.Context, userID int64, limit int) ([]models.AnalysisResult, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, limit)
	}
	return []models.AnalysisResult{}, nil
}

func (m *MockAnalysisService) GetCount(ctx context.Context) (int, error) {
	return m.Count, nil
}

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	ListFunc       func(ctx context.Context, userID int64, req models.ListCommentsRequest) (*models.CommentPage, error)
	DeleteFunc     func(ctx context.Context, userID, commentID int64) error
	DeleteManyFunc func(ctx context.Context, userID int64, commentIDs []int64) (int64, error)
	DeletedURLs    []string
	DeleteAllCalls int
	Count          int
}

func (m *MockCommentService) List(ctx context.Context, userID int64, req models.ListCommentsRequest) (*models.CommentPage, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, req)
	}
	return &models.CommentPage{Items: []models.Comment{}, Size: models.DefaultPageSize}, nil
}

func (m *MockCommentService) Delete(ctx context.Context, userID, commentID int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, commentID)
	}
	return nil
}

func (m *MockCommentService) DeleteMany(ctx context.Context, userID int64, commentIDs []int64) (int64, error) {
	if m.DeleteManyFunc != nil {
		return m.DeleteManyFunc(ctx, userID, commentIDs)
	}
	return int64(len(commentIDs)), nil
}

func (m *MockCommentService) DeleteByURL(ctx context.Context, userID int64, url string) (int64, error) {
	m.DeletedURLs = append(m.DeletedURLs, url)
	return 0, nil
}

func (m *MockCommentService) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	m.DeleteAllCalls++
	return 0, nil
}

func (m *MockCommentService) GetCount(ctx context.Context) (int, error) {
	return m.Count, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamFunc func(ctx context.Context, w http.ResponseWriter, userID int64, req models.ListCommentsRequest, format string) error
}

func (m *MockExportService) StreamComments(ctx context.Context, w http.ResponseWriter, userID int64, req models.ListCommentsRequest, format string) error {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, w, userID, req, format)
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	return nil
}

// MockRunService is a mock implementation of RunService
type MockRunService struct {
	Runs   map[string]*models.RunResponse
	Errors map[string][]models.RunError
}

func NewMockRunService() *MockRunService {
	return &MockRunService{
		Runs:   make(map[string]*models.RunResponse),
		Errors: make(map[string][]models.RunError),
	}
}

func (m *MockRunService) GetRun(ctx context.Context, userID int64, id string) (*models.RunResponse, error) {
	r, ok := m.Runs[id]
	if !ok || r.UserID != userID {
		return nil, nil
	}
	return r, nil
}

func (m *MockRunService) GetRunErrors(ctx context.Context, userID int64, id string) ([]models.RunError, error) {
	r, ok := m.Runs[id]
	if !ok || r.UserID != userID {
		return nil, nil
	}
	errs := m.Errors[id]
	if errs == nil {
		errs = []models.RunError{}
	}
	return errs, nil
}

// MockHealthService is a mock implementation of HealthService
type MockHealthService struct {
	Err error
}

func (m *MockHealthService) Check(ctx context.Context) error {
	return m.Err
}
