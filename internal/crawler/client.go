// Package crawler calls the external comment crawler service.
package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const maxResponseBytes = 64 << 20

// Client fetches the comments posted on a piece of content
type Client interface {
	Fetch(ctx context.Context, url string) ([]models.RawComment, error)
}

// FetchError is returned for any fetch that did not yield a comment list.
// It is fatal for an ingestion run.
type FetchError struct {
	URL        string
	StatusCode int
	Reason     string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type crawlRequest struct {
	URL string `json:"url"`
}

type crawlResponse struct {
	Status   string              `json:"status"`
	Message  string              `json:"message,omitempty"`
	Comments []models.RawComment `json:"comments"`
}

// HTTPClient posts crawl requests to the crawler service, retrying transport
// errors and 5xx responses with exponential backoff.
type HTTPClient struct {
	endpoint        string
	http            *http.Client
	maxRetries      uint64
	initialInterval time.Duration
	log             zerolog.Logger
}

// Option customises an HTTPClient
type Option func(*HTTPClient)

// WithRetryInterval sets the first backoff interval
func WithRetryInterval(d time.Duration) Option {
	return func(h *HTTPClient) { h.initialInterval = d }
}

// NewHTTPClient creates a crawler client posting to endpoint
func NewHTTPClient(endpoint string, timeout time.Duration, maxRetries int, log zerolog.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		endpoint:        endpoint,
		http:            &http.Client{Timeout: timeout},
		maxRetries:      uint64(max(maxRetries, 0)),
		initialInterval: 500 * time.Millisecond,
		log:             log.With().Str("client", "crawler").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the comments for url
func (c *HTTPClient) Fetch(ctx context.Context, url string) ([]models.RawComment, error) {
	body, err := json.Marshal(crawlRequest{URL: url})
	if err != nil {
		return nil, &FetchError{URL: url, Reason: "encode request", Err: err}
	}

	var comments []models.RawComment
	attempt := 0

	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(&FetchError{URL: url, Reason: "build request", Err: err})
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(&FetchError{URL: url, Reason: "request cancelled", Err: ctx.Err()})
			}
			return &FetchError{URL: url, Reason: "crawler unreachable", Err: err}
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 {
			io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
			return &FetchError{URL: url, StatusCode: res.StatusCode, Reason: "crawler error"}
		}
		if res.StatusCode >= 400 {
			return backoff.Permanent(&FetchError{URL: url, StatusCode: res.StatusCode, Reason: "crawler rejected request"})
		}

		var payload crawlResponse
		if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBytes)).Decode(&payload); err != nil {
			return backoff.Permanent(&FetchError{URL: url, StatusCode: res.StatusCode, Reason: "undecodable response", Err: err})
		}
		if payload.Status != "success" {
			reason := fmt.Sprintf("crawler reported status %q", payload.Status)
			if payload.Message != "" {
				reason += ": " + payload.Message
			}
			return backoff.Permanent(&FetchError{URL: url, StatusCode: res.StatusCode, Reason: reason})
		}

		comments = payload.Comments
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.maxRetries), ctx)

	err = backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("Crawl attempt failed, retrying")
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &FetchError{URL: url, Reason: "crawl failed", Err: err}
	}

	c.log.Debug().Str("url", url).Int("comments", len(comments)).Int("attempts", attempt).Msg("Crawl completed")
	if comments == nil {
		comments = []models.RawComment{}
	}
	return comments, nil
}
