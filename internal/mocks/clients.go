package mocks

import (
	"context"

	"github.com/2601-ai-team4/ContentShield/internal/analyzer"
	"github.com/2601-ai-team4/ContentShield/internal/crawler"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/shopspring/decimal"
)

var (
	_ crawler.Client  = (*MockCrawler)(nil)
	_ analyzer.Scorer = (*MockScorer)(nil)
)

// MockCrawler returns a fixed comment list
type MockCrawler struct {
	Comments []models.RawComment
	Err      error
	Calls    int
	URLs     []string
}

func (m *MockCrawler) Fetch(ctx context.Context, url string) ([]models.RawComment, error) {
	m.Calls++
	m.URLs = append(m.URLs, url)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.RawComment, len(m.Comments))
	copy(out, m.Comments)
	return out, nil
}

// MockScorer scores text from a lookup table, falling back to Default
type MockScorer struct {
	Scores    map[string]float64
	Default   float64
	Category  string
	Errors    map[string]error
	ScoreFunc func(ctx context.Context, text string) (*analyzer.Score, error)
	Calls     int
}

func NewMockScorer() *MockScorer {
	return &MockScorer{
		Scores:   make(map[string]float64),
		Errors:   make(map[string]error),
		Category: "neutral",
	}
}

func (m *MockScorer) Score(ctx context.Context, text string) (*analyzer.Score, error) {
	m.Calls++
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, text)
	}
	if err, ok := m.Errors[text]; ok {
		return nil, err
	}
	v, ok := m.Scores[text]
	if !ok {
		v = m.Default
	}
	return &analyzer.Score{Toxicity: decimal.NewFromFloat(v).Round(2), Category: m.Category}, nil
}
