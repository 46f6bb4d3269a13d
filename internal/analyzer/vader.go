package analyzer

import (
	"context"

	"github.com/jonreiter/govader"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// VaderScorer scores text locally with the VADER sentiment lexicon.
// Toxicity is the negative part of the compound polarity scaled to 0..100.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer creates a local scorer
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score never fails; the context is accepted to satisfy Scorer
func (v *VaderScorer) Score(_ context.Context, text string) (*Score, error) {
	compound := v.analyzer.PolarityScores(text).Compound

	toxicity := decimal.Zero
	if compound < 0 {
		toxicity = decimal.NewFromFloat(-compound).Mul(hundred).Round(2)
	}

	return &Score{Toxicity: toxicity, Category: category(compound)}, nil
}

func category(compound float64) string {
	switch {
	case compound <= -0.6:
		return "toxic"
	case compound <= -0.2:
		return "negative"
	case compound >= 0.2:
		return "positive"
	default:
		return "neutral"
	}
}
