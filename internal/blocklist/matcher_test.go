package blocklist

import (
	"testing"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/models"
)

func words(ws ...string) []models.BlockedWord {
	out := make([]models.BlockedWord, len(ws))
	for i, w := range ws {
		out[i] = models.BlockedWord{ID: int64(i + 1), UserID: 1, Word: w, IsActive: true}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		words     []models.BlockedWord
		wantMatch bool
		wantWord  string
	}{
		{"empty list", "anything goes", nil, false, ""},
		{"empty text", "", words("spam"), false, ""},
		{"simple match", "this is spam", words("spam"), true, "spam"},
		{"case insensitive", "Buy CHEAP pills", words("cheap"), true, "cheap"},
		{"configured spelling returned", "that was stupid", words("StUpId"), true, "StUpId"},
		{"first configured wins", "idiot and moron", words("moron", "idiot"), true, "moron"},
		{"substring", "scunthorpe", words("thor"), true, "thor"},
		{"no match", "lovely video", words("spam", "scam"), false, ""},
		{"korean", "진짜 바보같다", words("바보"), true, "바보"},
		{"fullwidth folded", "ＳＰＡＭ here", words("spam"), true, "spam"},
		{"german sharp s folds", "STRASSE", words("straße"), true, "straße"},
		{"blank word ignored", "hello", words("  ", ""), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, word := Evaluate(tt.text, tt.words)
			if matched != tt.wantMatch {
				t.Errorf("Expected matched=%v, got %v", tt.wantMatch, matched)
			}
			if word != tt.wantWord {
				t.Errorf("Expected word %q, got %q", tt.wantWord, word)
			}
		})
	}
}

func TestEvaluate_InactiveIgnored(t *testing.T) {
	ws := []models.BlockedWord{
		{ID: 1, Word: "spam", IsActive: false},
		{ID: 2, Word: "scam", IsActive: true},
	}

	if matched, _ := Evaluate("spam spam spam", ws); matched {
		t.Error("Inactive word should not match")
	}
	if matched, word := Evaluate("obvious scam", ws); !matched || word != "scam" {
		t.Errorf("Expected scam to match, got %v %q", matched, word)
	}
}

func TestProject(t *testing.T) {
	now := time.Now()
	comments := []models.Comment{
		{ID: 1, Content: "what an idiot", CommentedAt: now},
		{ID: 2, Content: "great video", CommentedAt: now, IsMalicious: true},
		{ID: 3, Content: "nice", CommentedAt: now, ContainsBlockedWord: true, MatchedBlockedWord: "old"},
	}

	projected := Project(comments, words("idiot"))

	if len(projected) != 3 {
		t.Fatalf("Expected 3 comments, got %d", len(projected))
	}

	if !projected[0].ContainsBlockedWord || projected[0].MatchedBlockedWord != "idiot" || !projected[0].IsMalicious {
		t.Errorf("Expected first comment flagged, got %+v", projected[0])
	}
	if projected[1].ContainsBlockedWord {
		t.Error("Second comment should not contain a blocked word")
	}
	if !projected[1].IsMalicious {
		t.Error("Stored malicious verdict should be kept when no word matches")
	}
	if projected[2].ContainsBlockedWord || projected[2].MatchedBlockedWord != "" {
		t.Errorf("Stale blocked-word snapshot should be cleared, got %+v", projected[2])
	}

	// Input untouched
	if comments[0].ContainsBlockedWord || comments[0].IsMalicious {
		t.Error("Project must not modify its input")
	}
	if !comments[2].ContainsBlockedWord {
		t.Error("Project must not modify its input")
	}
}

func TestProject_EmptyList(t *testing.T) {
	comments := []models.Comment{{ID: 1, Content: "idiot"}}
	projected := Project(comments, nil)
	if projected[0].ContainsBlockedWord || projected[0].IsMalicious {
		t.Errorf("Nothing should match an empty list, got %+v", projected[0])
	}
}

func TestMatcher_Len(t *testing.T) {
	ws := append(words("a", " "), models.BlockedWord{Word: "b", IsActive: false})
	if n := NewMatcher(ws).Len(); n != 1 {
		t.Errorf("Expected 1 usable word, got %d", n)
	}
}
