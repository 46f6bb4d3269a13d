package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(url string, retries int) *HTTPClient {
	return NewHTTPClient(url, 5*time.Second, retries, zerolog.Nop(), WithRetryInterval(time.Millisecond))
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["url"] != "https://youtube.com/watch?v=abc" {
			t.Errorf("Unexpected url in body: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","comments":[
			{"text":"first!","author":"a","external_id":"c1","publish_date":"1일 전"},
			{"text":"second","author":"b","external_id":"","publish_date":"2024. 3. 5."}
		]}`))
	}))
	defer server.Close()

	comments, err := newTestClient(server.URL, 0).Fetch(context.Background(), "https://youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(comments))
	}
	if comments[0].ExternalID != "c1" || comments[0].PublishDate != "1일 전" {
		t.Errorf("Unexpected first comment: %+v", comments[0])
	}
}

func TestFetch_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","comments":null}`))
	}))
	defer server.Close()

	comments, err := newTestClient(server.URL, 0).Fetch(context.Background(), "u")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if comments == nil || len(comments) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", comments)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status":"success","comments":[{"text":"ok"}]}`))
	}))
	defer server.Close()

	comments, err := newTestClient(server.URL, 3).Fetch(context.Background(), "u")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(comments) != 1 {
		t.Errorf("Expected 1 comment, got %d", len(comments))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 calls, got %d", got)
	}
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 2).Fetch(context.Background(), "u")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", fe.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 calls (1 + 2 retries), got %d", got)
	}
}

func TestFetch_PermanentFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"client error", http.StatusBadRequest, `{"detail":"bad url"}`, "rejected"},
		{"error status", http.StatusOK, `{"status":"error","message":"video unavailable"}`, "video unavailable"},
		{"undecodable", http.StatusOK, `not json`, "undecodable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, 3).Fetch(context.Background(), "u")
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Expected *FetchError, got %v", err)
			}
			if !strings.Contains(fe.Error(), tt.wantMsg) {
				t.Errorf("Expected error mentioning %q, got %q", tt.wantMsg, fe.Error())
			}
			if got := atomic.LoadInt32(&calls); got != 1 {
				t.Errorf("Permanent failures must not be retried, got %d calls", got)
			}
		})
	}
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url, 1).Fetch(context.Background(), "u")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fe.Unwrap() == nil {
		t.Error("Expected wrapped transport error")
	}
}
