package models

// RawComment is one record as returned by the crawler
type RawComment struct {
	Text        string `json:"text"`
	Author      string `json:"author"`
	ExternalID  string `json:"external_id"`
	PublishDate string `json:"publish_date"`
}

// CrawlRequest starts an ingestion run for one content URL
type CrawlRequest struct {
	UserID         int64  `json:"-"`
	URL            string `json:"url" validate:"required,url"`
	StartDate      string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IdempotencyKey string `json:"-"`
}

// SkipBreakdown splits SkippedCount by reason
type SkipBreakdown struct {
	Blank       int `json:"blank"`
	OutOfWindow int `json:"outOfWindow"`
	Duplicate   int `json:"duplicate"`
}

// Total returns the number of skipped records
func (s SkipBreakdown) Total() int {
	return s.Blank + s.OutOfWindow + s.Duplicate
}

// CrawlResult is the summary returned by an ingestion run.
// TotalCrawled always equals SavedCount + SkippedCount + FailCount.
type CrawlResult struct {
	RunID            string           `json:"runId,omitempty"`
	TotalCrawled     int              `json:"totalCrawled"`
	SavedCount       int              `json:"savedCount"`
	AnalyzedCount    int              `json:"analyzedCount"`
	SkippedCount     int              `json:"skippedCount"`
	FailCount        int              `json:"failCount"`
	PersistFailCount int              `json:"persistFailCount"`
	AnalyzeFailCount int              `json:"analyzeFailCount"`
	Skipped          SkipBreakdown    `json:"skipped"`
	Results          []AnalysisResult `json:"results"`
	Replayed         bool             `json:"replayed,omitempty"`
}
