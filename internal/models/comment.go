package models

import (
	"time"
)

// Platform identifies the source a comment was fetched from
type Platform string

const (
	PlatformYouTube Platform = "YOUTUBE"
)

// Comment is a staged social comment owned by a user
type Comment struct {
	ID                  int64     `json:"commentId" db:"id"`
	UserID              int64     `json:"userId" db:"user_id"`
	Platform            Platform  `json:"platform" db:"platform"`
	ContentURL          string    `json:"contentUrl" db:"content_url"`
	AuthorName          string    `json:"authorName" db:"author_name"`
	AuthorIdentifier    string    `json:"authorIdentifier,omitempty" db:"author_identifier"`
	ExternalCommentID   string    `json:"externalCommentId" db:"external_comment_id"`
	Content             string    `json:"content" db:"content"`
	CommentedAt         time.Time `json:"commentedAt" db:"commented_at"`
	IsAnalyzed          bool      `json:"isAnalyzed" db:"is_analyzed"`
	IsMalicious         bool      `json:"isMalicious" db:"is_malicious"`
	ContainsBlockedWord bool      `json:"containsBlockedWord" db:"contains_blocked_word"`
	MatchedBlockedWord  string    `json:"matchedBlockedWord,omitempty" db:"matched_blocked_word"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`

	// SourceKeyed is true when ExternalCommentID came from the source rather
	// than being generated. Only source-keyed comments enter the ingest ledger.
	SourceKeyed bool `json:"-" db:"-"`
}

// CommentQuery filters a user's staged comments
type CommentQuery struct {
	UserID      int64
	URL         string
	IsMalicious *bool
	Start       time.Time
	End         time.Time
	Page        int
	Size        int
}

// Offset returns the row offset for the requested page
func (q CommentQuery) Offset() int {
	if q.Page <= 0 {
		return 0
	}
	return q.Page * q.Size
}

// CommentPage is one page of a comment listing
type CommentPage struct {
	Items      []Comment `json:"content"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	TotalCount int       `json:"totalElements"`
}

// DeleteCommentsRequest is the body of a multi-id delete
type DeleteCommentsRequest struct {
	CommentIDs []int64 `json:"commentIds" validate:"required,min=1,dive,gt=0"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
	// MaxPage keeps Page*Size well inside the range of a Postgres OFFSET
	MaxPage = 1_000_000
)

// ListCommentsRequest carries the user-facing listing and export filters.
// Dates are YYYY-MM-DD; missing bounds default to the lookback window.
type ListCommentsRequest struct {
	URL         string
	StartDate   string
	EndDate     string
	IsMalicious *bool
	Page        int
	Size        int
}
