package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/api"
	"github.com/2601-ai-team4/ContentShield/internal/config"
	"github.com/2601-ai-team4/ContentShield/internal/crawler"
	"github.com/2601-ai-team4/ContentShield/internal/mocks"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/service"
	"github.com/2601-ai-team4/ContentShield/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	testSecret       = "test-secret-at-least-16"
	testUser   int64 = 42
)

func setupTestRouter(t *testing.T) (*gin.Engine, *service.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	services := mocks.NewMockServices()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Auth:   config.AuthConfig{JWTSecret: testSecret},
	}

	return api.NewRouter(services, cfg, zerolog.Nop()), services
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := api.GenerateToken(testUser, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return "Bearer " + token
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	router, services := setupTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if resp := decode(t, w); resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}

	services.Health.(*mocks.MockHealthService).Err = context.DeadlineExceeded
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 when the database is down, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, services := setupTestRouter(t)
	services.Comment.(*mocks.MockCommentService).Count = 12
	services.Analysis.(*mocks.MockAnalysisService).Count = 5

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	db, ok := decode(t, w)["database"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected database section")
	}
	if db["comments"] != float64(12) || db["analysis_results"] != float64(5) {
		t.Errorf("Unexpected counts: %v", db)
	}
}

func TestAuth(t *testing.T) {
	router, _ := setupTestRouter(t)

	otherSecret, _ := api.GenerateToken(testUser, []byte("another-secret-of-16"), time.Hour)
	expired, _ := api.GenerateToken(testUser, []byte(testSecret), -time.Minute)
	subOnly, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "77",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherSecret, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"no user claim", "Bearer " + noUser, http.StatusUnauthorized},
		{"numeric subject", "Bearer " + subOnly, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/comments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCrawl_Success(t *testing.T) {
	router, services := setupTestRouter(t)
	ingest := services.Ingest.(*mocks.MockIngestService)
	ingest.CrawlFunc = func(ctx context.Context, req *models.CrawlRequest) (*models.CrawlResult, error) {
		return &models.CrawlResult{RunID: "run-1", TotalCrawled: 3, SavedCount: 2, AnalyzedCount: 2, SkippedCount: 1, Results: []models.AnalysisResult{}}, nil
	}

	w := do(t, router, "POST", "/api/comments/crawl",
		map[string]string{"url": "https://www.youtube.com/watch?v=abc", "startDate": "2025-06-01"},
		"Idempotency-Key", "key-123")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["totalCrawled"] != float64(3) || resp["savedCount"] != float64(2) {
		t.Errorf("Unexpected response: %v", resp)
	}

	if len(ingest.Requests) != 1 {
		t.Fatalf("Expected 1 crawl call, got %d", len(ingest.Requests))
	}
	got := ingest.Requests[0]
	if got.UserID != testUser {
		t.Errorf("Expected user %d from token, got %d", testUser, got.UserID)
	}
	if got.IdempotencyKey != "key-123" {
		t.Errorf("Expected idempotency key to be forwarded, got %q", got.IdempotencyKey)
	}
	if got.StartDate != "2025-06-01" {
		t.Errorf("Expected startDate 2025-06-01, got %q", got.StartDate)
	}
}

func TestCrawl_Validation(t *testing.T) {
	router, services := setupTestRouter(t)

	tests := []struct {
		name      string
		body      interface{}
		wantField string
	}{
		{"missing url", map[string]string{}, "url"},
		{"bad url", map[string]string{"url": "not a url"}, "url"},
		{"bad start date", map[string]string{"url": "https://youtu.be/x", "startDate": "2025/06/01"}, "startDate"},
		{"bad end date", map[string]string{"url": "https://youtu.be/x", "endDate": "June 3"}, "endDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, "POST", "/api/comments/crawl", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", w.Code)
			}
			errs, ok := decode(t, w)["errors"].([]interface{})
			if !ok || len(errs) == 0 {
				t.Fatal("Expected field errors")
			}
			first := errs[0].(map[string]interface{})
			if first["field"] != tt.wantField {
				t.Errorf("Expected field %s, got %v", tt.wantField, first["field"])
			}
		})
	}

	if n := len(services.Ingest.(*mocks.MockIngestService).Requests); n != 0 {
		t.Errorf("Expected no crawl for invalid requests, got %d", n)
	}

	w := do(t, router, "POST", "/api/comments/crawl", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed JSON, got %d", w.Code)
	}
}

func TestCrawl_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"fetch failure", &crawler.FetchError{URL: "https://youtu.be/x", StatusCode: 500, Reason: "crawler returned 500"}, http.StatusBadGateway},
		{"window error", validation.Errors{{Field: "startDate", Message: "startDate must not be after endDate"}}, http.StatusBadRequest},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unexpected", bytes.ErrTooLarge, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, services := setupTestRouter(t)
			services.Ingest.(*mocks.MockIngestService).CrawlFunc = func(ctx context.Context, req *models.CrawlRequest) (*models.CrawlResult, error) {
				return nil, tt.err
			}

			w := do(t, router, "POST", "/api/comments/crawl", map[string]string{"url": "https://youtu.be/x"})
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
			if _, ok := decode(t, w)["error"]; !ok {
				t.Error("Expected error message in body")
			}
		})
	}
}

func TestListComments(t *testing.T) {
	router, services := setupTestRouter(t)
	var got models.ListCommentsRequest
	services.Comment.(*mocks.MockCommentService).ListFunc = func(ctx context.Context, userID int64, req models.ListCommentsRequest) (*models.CommentPage, error) {
		got = req
		return &models.CommentPage{
			Items:      []models.Comment{{ID: 1, UserID: userID, Content: "hi"}},
			Page:       req.Page,
			Size:       req.Size,
			TotalCount: 1,
		}, nil
	}

	w := do(t, router, "GET", "/api/comments?url=https://youtu.be/x&isMalicious=true&page=2&size=50&startDate=2025-01-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if got.URL != "https://youtu.be/x" || got.Page != 2 || got.Size != 50 || got.StartDate != "2025-01-01" {
		t.Errorf("Unexpected filters: %+v", got)
	}
	if got.IsMalicious == nil || !*got.IsMalicious {
		t.Error("Expected isMalicious=true filter")
	}

	resp := decode(t, w)
	if resp["totalElements"] != float64(1) {
		t.Errorf("Expected totalElements 1, got %v", resp["totalElements"])
	}
	if items, ok := resp["content"].([]interface{}); !ok || len(items) != 1 {
		t.Errorf("Expected 1 item in content, got %v", resp["content"])
	}
}

func TestListComments_InvalidQuery(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, q := range []string{"isMalicious=maybe", "page=-1", "size=0", "size=1000"} {
		t.Run(q, func(t *testing.T) {
			w := do(t, router, "GET", "/api/comments?"+q, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestDeleteComment(t *testing.T) {
	router, services := setupTestRouter(t)
	services.Comment.(*mocks.MockCommentService).DeleteFunc = func(ctx context.Context, userID, id int64) error {
		if id == 1 {
			return nil
		}
		return service.ErrCommentNotFound
	}

	if w := do(t, router, "DELETE", "/api/comments/1", nil); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w := do(t, router, "DELETE", "/api/comments/2", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := do(t, router, "DELETE", "/api/comments/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestDeleteComments(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := do(t, router, "DELETE", "/api/comments", map[string][]int64{"commentIds": {1, 2, 3}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if n := decode(t, w)["deletedCount"]; n != float64(3) {
		t.Errorf("Expected deletedCount 3, got %v", n)
	}

	w = do(t, router, "DELETE", "/api/comments", map[string][]int64{"commentIds": {}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty ids, got %d", w.Code)
	}

	w = do(t, router, "DELETE", "/api/comments", map[string][]int64{"commentIds": {5, 0}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-positive id, got %d", w.Code)
	}
}

func TestDeleteCommentsByURL(t *testing.T) {
	router, services := setupTestRouter(t)
	mock := services.Comment.(*mocks.MockCommentService)

	w := do(t, router, "DELETE", "/api/comments/all?url=https://youtu.be/x", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(mock.DeletedURLs) != 1 || mock.DeletedURLs[0] != "https://youtu.be/x" {
		t.Errorf("Unexpected deletes: %v", mock.DeletedURLs)
	}
	if mock.DeleteAllCalls != 0 {
		t.Errorf("Expected no delete-all with a url, got %d calls", mock.DeleteAllCalls)
	}
}

func TestDeleteAllComments(t *testing.T) {
	router, services := setupTestRouter(t)
	mock := services.Comment.(*mocks.MockCommentService)

	w := do(t, router, "DELETE", "/api/comments/all", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 without url, got %d", w.Code)
	}
	if mock.DeleteAllCalls != 1 {
		t.Errorf("Expected 1 delete-all call, got %d", mock.DeleteAllCalls)
	}
	if len(mock.DeletedURLs) != 0 {
		t.Errorf("Expected no url-scoped delete, got %v", mock.DeletedURLs)
	}
}

func TestExportComments(t *testing.T) {
	router, services := setupTestRouter(t)
	var gotFormat string
	services.Export.(*mocks.MockExportService).StreamFunc = func(ctx context.Context, w http.ResponseWriter, userID int64, req models.ListCommentsRequest, format string) error {
		gotFormat = format
		if format == "xml" {
			return service.ErrUnsupportedFormat
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("comment_id\n1\n"))
		return nil
	}

	w := do(t, router, "GET", "/api/comments/export?format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotFormat != "csv" || !strings.Contains(w.Body.String(), "comment_id") {
		t.Errorf("Unexpected export: format=%s body=%q", gotFormat, w.Body.String())
	}

	do(t, router, "GET", "/api/comments/export", nil)
	if gotFormat != "ndjson" {
		t.Errorf("Expected ndjson default, got %s", gotFormat)
	}

	if w := do(t, router, "GET", "/api/comments/export?format=xml", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unsupported format, got %d", w.Code)
	}
	if w := do(t, router, "GET", "/api/comments/export?endDate=tomorrow", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad date, got %d", w.Code)
	}
}

func TestAnalyzeComment(t *testing.T) {
	router, services := setupTestRouter(t)
	services.Analysis.(*mocks.MockAnalysisService).AnalyzeFunc = func(ctx context.Context, userID, id int64) (*models.AnalysisResult, error) {
		if id != 10 {
			return nil, service.ErrCommentNotFound
		}
		return &models.AnalysisResult{ID: 1, CommentID: id, UserID: userID, Category: "toxic", IsMalicious: true}, nil
	}

	w := do(t, router, "POST", "/api/analysis/comment", map[string]int64{"commentId": 10})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if resp := decode(t, w); resp["isMalicious"] != true || resp["userId"] != float64(testUser) {
		t.Errorf("Unexpected response: %v", resp)
	}

	if w := do(t, router, "POST", "/api/analysis/comment", map[string]int64{"commentId": 11}); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := do(t, router, "POST", "/api/analysis/comment", map[string]int64{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without commentId, got %d", w.Code)
	}
}

func TestAnalyzeBulk(t *testing.T) {
	router, services := setupTestRouter(t)
	services.Analysis.(*mocks.MockAnalysisService).BulkFunc = func(ctx context.Context, userID int64, ids []int64) (*models.BulkAnalysisResult, error) {
		return &models.BulkAnalysisResult{AnalyzedCount: 1, ErrorCount: 1, Results: []models.AnalysisResult{{CommentID: ids[0]}}}, nil
	}

	w := do(t, router, "POST", "/api/comments/analyze-bulk", map[string][]int64{"commentIds": {1, 999}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["analyzedCount"] != float64(1) || resp["errorCount"] != float64(1) {
		t.Errorf("Unexpected response: %v", resp)
	}

	if w := do(t, router, "POST", "/api/comments/analyze-bulk", map[string][]int64{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without ids, got %d", w.Code)
	}
}

func TestAnalysisHistory(t *testing.T) {
	router, services := setupTestRouter(t)
	var gotLimit int
	services.Analysis.(*mocks.MockAnalysisService).HistoryFunc = func(ctx context.Context, userID int64, limit int) ([]models.AnalysisResult, error) {
		gotLimit = limit
		return []models.AnalysisResult{{ID: 2}, {ID: 1}}, nil
	}

	w := do(t, router, "GET", "/api/analysis/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotLimit != 50 {
		t.Errorf("Expected default limit 50, got %d", gotLimit)
	}
	if decode(t, w)["count"] != float64(2) {
		t.Error("Expected count 2")
	}

	do(t, router, "GET", "/api/analysis/history?limit=5", nil)
	if gotLimit != 5 {
		t.Errorf("Expected limit 5, got %d", gotLimit)
	}

	if w := do(t, router, "GET", "/api/analysis/history?limit=0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetRun(t *testing.T) {
	router, services := setupTestRouter(t)
	runs := services.Run.(*mocks.MockRunService)
	runs.Runs["run-1"] = &models.RunResponse{
		IngestRun:  models.IngestRun{ID: "run-1", UserID: testUser, Status: models.RunStatusCompleted, TotalCrawled: 10},
		ErrorCount: 1,
	}
	runs.Runs["run-2"] = &models.RunResponse{IngestRun: models.IngestRun{ID: "run-2", UserID: testUser + 1}}
	runs.Errors["run-1"] = []models.RunError{{RecordIndex: 3, Stage: models.StageAnalyze, Message: "timeout"}}

	w := do(t, router, "GET", "/api/ingestions/run-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if resp := decode(t, w); resp["status"] != "completed" || resp["totalCrawled"] != float64(10) {
		t.Errorf("Unexpected response: %v", resp)
	}

	if w := do(t, router, "GET", "/api/ingestions/run-2", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for another user's run, got %d", w.Code)
	}

	w = do(t, router, "GET", "/api/ingestions/run-1/errors", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if decode(t, w)["count"] != float64(1) {
		t.Error("Expected 1 error")
	}

	if w := do(t, router, "GET", "/api/ingestions/missing/errors", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/api/comments", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for OPTIONS, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header Access-Control-Allow-Origin")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Error("Expected Authorization in allowed headers")
	}
}

func TestRequestID(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected generated X-Request-ID")
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected propagated request id, got %q", got)
	}
}
