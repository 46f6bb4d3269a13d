// Package blocklist flags comment text that contains any of a user's
// blocked words.
package blocklist

import (
	"strings"
	"sync"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFKC, cases.Fold())
	},
}

// Fold returns the form used for case-insensitive comparison
func Fold(s string) string {
	if s == "" {
		return ""
	}
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

type entry struct {
	word   string
	folded string
}

// Matcher holds a prepared word list. It is safe for concurrent use.
type Matcher struct {
	entries []entry
}

// NewMatcher prepares words for matching, preserving their order.
// Inactive and blank words are dropped.
func NewMatcher(words []models.BlockedWord) *Matcher {
	m := &Matcher{entries: make([]entry, 0, len(words))}
	for _, w := range words {
		if !w.IsActive {
			continue
		}
		trimmed := strings.TrimSpace(w.Word)
		if trimmed == "" {
			continue
		}
		m.entries = append(m.entries, entry{word: w.Word, folded: Fold(trimmed)})
	}
	return m
}

// Len returns the number of usable words
func (m *Matcher) Len() int {
	return len(m.entries)
}

// Match reports the first word, in list order, contained in text
func (m *Matcher) Match(text string) (bool, string) {
	if text == "" || len(m.entries) == 0 {
		return false, ""
	}
	folded := Fold(text)
	for _, e := range m.entries {
		if strings.Contains(folded, e.folded) {
			return true, e.word
		}
	}
	return false, ""
}

// Evaluate reports whether text contains any of words, and which one matched first
func Evaluate(text string, words []models.BlockedWord) (bool, string) {
	return NewMatcher(words).Match(text)
}

// Project returns copies of comments with the blocked-word fields recomputed
// against words. A match forces IsMalicious; otherwise the stored verdict is
// kept. The input slice is not modified.
func Project(comments []models.Comment, words []models.BlockedWord) []models.Comment {
	m := NewMatcher(words)
	out := make([]models.Comment, len(comments))
	for i, c := range comments {
		out[i] = m.Apply(c)
	}
	return out
}

// Apply returns c with the blocked-word fields recomputed
func (m *Matcher) Apply(c models.Comment) models.Comment {
	matched, word := m.Match(c.Content)
	c.ContainsBlockedWord = matched
	c.MatchedBlockedWord = word
	if matched {
		c.IsMalicious = true
	}
	return c
}
