package models

import (
	"time"
)

// RunStatus is the terminal state of an ingest run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunPhase tracks where an ingest run is in the pipeline
type RunPhase string

const (
	PhaseIdle       RunPhase = "idle"
	PhaseCleaning   RunPhase = "cleaning"
	PhaseFetching   RunPhase = "fetching"
	PhaseWindowing  RunPhase = "windowing"
	PhasePersisting RunPhase = "persisting"
	PhaseAnalyzing  RunPhase = "analyzing"
	PhaseAggregated RunPhase = "aggregated"
	PhaseFailed     RunPhase = "failed"
)

// Run error stages
const (
	StagePersist = "persist"
	StageAnalyze = "analyze"
	StageDedup   = "dedup"
)

// IngestRun records one crawl-and-analyze invocation
type IngestRun struct {
	ID               string        `json:"runId" db:"id"`
	UserID           int64         `json:"userId" db:"user_id"`
	ContentURL       string        `json:"contentUrl" db:"content_url"`
	WindowStart      time.Time     `json:"windowStart" db:"window_start"`
	WindowEnd        time.Time     `json:"windowEnd" db:"window_end"`
	Phase            RunPhase      `json:"phase" db:"phase"`
	Status           RunStatus     `json:"status" db:"status"`
	IdempotencyKey   string        `json:"idempotencyKey,omitempty" db:"idempotency_key"`
	TotalCrawled     int           `json:"totalCrawled" db:"total_crawled"`
	SavedCount       int           `json:"savedCount" db:"saved_count"`
	SkippedCount     int           `json:"skippedCount" db:"skipped_count"`
	Skipped          SkipBreakdown `json:"skipped"`
	FailCount        int           `json:"failCount" db:"fail_count"`
	PersistFailCount int           `json:"persistFailCount" db:"persist_fail_count"`
	AnalyzeFailCount int           `json:"analyzeFailCount" db:"analyze_fail_count"`
	ErrorMessage     string        `json:"errorMessage,omitempty" db:"error_message"`
	DurationMs       int64         `json:"durationMs,omitempty" db:"duration_ms"`
	RowsPerSec       float64       `json:"rowsPerSec,omitempty" db:"rows_per_sec"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	CompletedAt      *time.Time    `json:"completedAt,omitempty" db:"completed_at"`
}

// Summary converts a completed run back into the crawl result shape.
// Per-comment analysis results are not part of a run record.
func (r *IngestRun) Summary() *CrawlResult {
	return &CrawlResult{
		RunID:            r.ID,
		TotalCrawled:     r.TotalCrawled,
		SavedCount:       r.SavedCount,
		AnalyzedCount:    r.SavedCount,
		SkippedCount:     r.SkippedCount,
		Skipped:          r.Skipped,
		FailCount:        r.FailCount,
		PersistFailCount: r.PersistFailCount,
		AnalyzeFailCount: r.AnalyzeFailCount,
		Results:          []AnalysisResult{},
	}
}

// RunError is a per-record failure recorded against a run
type RunError struct {
	RecordIndex int    `json:"recordIndex"`
	Stage       string `json:"stage"`
	Message     string `json:"message"`
	ExternalID  string `json:"externalId,omitempty"`
}

// RunResponse is the API response for run status
type RunResponse struct {
	IngestRun
	Errors     []RunError `json:"errors,omitempty"`
	ErrorCount int        `json:"errorCount,omitempty"`
	ErrorsURL  string     `json:"errorsUrl,omitempty"`
}
