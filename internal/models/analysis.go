package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// AnalysisResult is the toxicity verdict recorded for one comment
type AnalysisResult struct {
	ID            int64           `json:"analysisId" db:"id"`
	CommentID     int64           `json:"commentId" db:"comment_id"`
	UserID        int64           `json:"userId" db:"user_id"`
	ToxicityScore decimal.Decimal `json:"toxicityScore" db:"toxicity_score"`
	Category      string          `json:"category" db:"category"`
	IsMalicious   bool            `json:"isMalicious" db:"is_malicious"`
	AnalyzedAt    time.Time       `json:"analyzedAt" db:"analyzed_at"`
}

// AnalyzeCommentRequest is the body of a single-comment analysis call
type AnalyzeCommentRequest struct {
	CommentID int64 `json:"commentId" validate:"required,gt=0"`
}

// BulkAnalysisRequest is the body of a bulk re-analysis call
type BulkAnalysisRequest struct {
	CommentIDs []int64 `json:"commentIds" validate:"required,min=1,dive,gt=0"`
}

// BulkAnalysisResult aggregates a bulk re-analysis
type BulkAnalysisResult struct {
	AnalyzedCount int              `json:"analyzedCount"`
	ErrorCount    int              `json:"errorCount"`
	Results       []AnalysisResult `json:"results"`
}
