// Package analyzer scores comment text for toxicity.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	minScore = decimal.Zero
	maxScore = decimal.NewFromInt(100)
)

// Score is a toxicity verdict on the 0..100 scale
type Score struct {
	Toxicity decimal.Decimal
	Category string
}

// IsMalicious reports whether the score is strictly above threshold
func (s *Score) IsMalicious(threshold decimal.Decimal) bool {
	return s.Toxicity.GreaterThan(threshold)
}

// Scorer produces a toxicity score for a piece of text
type Scorer interface {
	Score(ctx context.Context, text string) (*Score, error)
}

type analyzeRequest struct {
	Text         string `json:"text"`
	Language     string `json:"language"`
	UseDualModel bool   `json:"use_dual_model"`
}

type analyzeResponse struct {
	ToxicityScore *decimal.Decimal `json:"toxicity_score"`
	Category      string           `json:"category"`
}

// HTTPScorer calls the analysis service's /analyze/text endpoint
type HTTPScorer struct {
	endpoint        string
	http            *http.Client
	maxRetries      uint64
	initialInterval time.Duration
	log             zerolog.Logger
}

// NewHTTPScorer creates a scorer for the analysis service at baseURL
func NewHTTPScorer(baseURL string, timeout time.Duration, maxRetries int, log zerolog.Logger) *HTTPScorer {
	return &HTTPScorer{
		endpoint:        strings.TrimRight(baseURL, "/") + "/analyze/text",
		http:            &http.Client{Timeout: timeout},
		maxRetries:      uint64(max(maxRetries, 0)),
		initialInterval: 250 * time.Millisecond,
		log:             log.With().Str("client", "analyzer").Logger(),
	}
}

// Score posts text to the analysis service
func (s *HTTPScorer) Score(ctx context.Context, text string) (*Score, error) {
	body, err := json.Marshal(analyzeRequest{Text: text, Language: "auto", UseDualModel: true})
	if err != nil {
		return nil, err
	}

	var result *Score
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := s.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("analysis service unreachable: %w", err)
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 {
			io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
			return fmt.Errorf("analysis service returned %d", res.StatusCode)
		}
		if res.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("analysis service rejected request: %d", res.StatusCode))
		}

		var payload analyzeResponse
		if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
			return backoff.Permanent(fmt.Errorf("undecodable analysis response: %w", err))
		}
		score, err := payload.toScore()
		if err != nil {
			return backoff.Permanent(err)
		}
		result = score
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, s.maxRetries), ctx)

	if err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Dur("retry_in", wait).Msg("Analysis call failed, retrying")
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (p analyzeResponse) toScore() (*Score, error) {
	if p.ToxicityScore == nil {
		return nil, errors.New("analysis response missing toxicity_score")
	}
	v := *p.ToxicityScore
	if v.LessThan(minScore) || v.GreaterThan(maxScore) {
		return nil, fmt.Errorf("toxicity_score %s outside 0..100", v)
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = "unknown"
	}
	return &Score{Toxicity: v.Round(2), Category: category}, nil
}

// New builds the scorer selected by mode ("http" or "vader")
func New(mode, baseURL string, timeout time.Duration, maxRetries int, log zerolog.Logger) (Scorer, error) {
	switch mode {
	case "http":
		return NewHTTPScorer(baseURL, timeout, maxRetries, log), nil
	case "vader":
		return NewVaderScorer(), nil
	default:
		return nil, fmt.Errorf("unknown analyzer mode %q", mode)
	}
}
