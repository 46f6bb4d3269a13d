package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/blocklist"
	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/repository"
	"github.com/rs/zerolog"
)

// ErrUnsupportedFormat is returned for an unknown export format
var ErrUnsupportedFormat = errors.New("unsupported format")

// flushEvery is how many rows are written between flushes
const flushEvery = 100

var csvHeader = []string{
	"comment_id", "platform", "content_url", "author_name", "external_comment_id", "content",
	"commented_at", "is_analyzed", "is_malicious", "contains_blocked_word", "matched_blocked_word",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos    *repository.Repositories
	comments *commentService
	log      zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, comments *commentService, log zerolog.Logger) *exportService {
	return &exportService{
		repos:    repos,
		comments: comments,
		log:      log.With().Str("service", "export").Logger(),
	}
}

// StreamComments streams every comment matching req in the given format.
// Filter errors are returned before anything is written.
func (s *exportService) StreamComments(ctx context.Context, w http.ResponseWriter, userID int64, req models.ListCommentsRequest, format string) error {
	switch format {
	case "ndjson", "json", "csv":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	q, err := s.comments.query(userID, req)
	if err != nil {
		return err
	}
	m := blocklist.NewMatcher(activeWords(ctx, s.repos, userID, s.log))

	s.log.Info().Int64("user_id", userID).Str("format", format).Msg("Starting comments export")

	var count int
	switch format {
	case "ndjson":
		count, err = s.streamNDJSON(ctx, w, q, m)
	case "json":
		count, err = s.streamJSON(ctx, w, q, m)
	case "csv":
		count, err = s.streamCSV(ctx, w, q, m)
	}

	s.log.Info().Int("count", count).Err(err).Msg("Comments export completed")
	return err
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter, q models.CommentQuery, m *blocklist.Matcher) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.ndjson")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0

	err := s.repos.Comment.StreamByUser(ctx, q, func(c *models.Comment) error {
		if err := enc.Encode(m.Apply(*c)); err != nil {
			return err
		}
		count++
		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter, q models.CommentQuery, m *blocklist.Matcher) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.json")

	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}
	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Comment.StreamByUser(ctx, q, func(c *models.Comment) error {
		data, err := json.Marshal(m.Apply(*c))
		if err != nil {
			return err
		}
		if count > 0 {
			data = append([]byte(","), data...)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++
		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	_, err = w.Write([]byte("]"))
	return count, err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter, q models.CommentQuery, m *blocklist.Matcher) (int, error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.csv")

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return 0, err
	}

	count := 0
	err := s.repos.Comment.StreamByUser(ctx, q, func(c *models.Comment) error {
		p := m.Apply(*c)
		count++
		return writer.Write([]string{
			strconv.FormatInt(p.ID, 10),
			string(p.Platform),
			p.ContentURL,
			p.AuthorName,
			p.ExternalCommentID,
			p.Content,
			p.CommentedAt.Format(time.RFC3339),
			strconv.FormatBool(p.IsAnalyzed),
			strconv.FormatBool(p.IsMalicious),
			strconv.FormatBool(p.ContainsBlockedWord),
			p.MatchedBlockedWord,
		})
	})

	return count, err
}
