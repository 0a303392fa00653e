package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"NewsPoster/internal/config"
)

func testClient(serverURL string) *Client {
	c := NewClient(config.GeminiConfig{
		Endpoint: serverURL,
		Model:    "gemini-1.5-flash",
		APIKey:   "test-key",
	})
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestGenerateReturnsCandidateText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("missing api key header, got %q", got)
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "write something" {
			t.Errorf("prompt not forwarded: %+v", req.Contents)
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"# Title\n\nBody."}]}}]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	text, err := client.Generate(context.Background(), "write something")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "# Title\n\nBody." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestGenerateEmptyResponseIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected error on empty candidates")
	}
}

func TestGenerateRateLimitErrorCarriesDelay(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota exceeded",` +
			`"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"39s"}]}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), "p")

	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if delay, ok := rateErr.SuggestedDelay(); !ok || delay != 39*time.Second {
		t.Fatalf("suggested delay not extracted: %v %v", delay, ok)
	}
	if !rateErr.Retryable() {
		t.Fatal("rate limit errors must be retryable")
	}
}

func TestGenerateServerErrorIsRetryableAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), "p")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.Retryable() {
		t.Fatal("5xx should be retryable")
	}
}

func TestGenerateAuthErrorIsNotRetryable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), "p")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Retryable() {
		t.Fatal("auth failures must not be retried")
	}
}

func TestRetryAfterFrom(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		header  string
		payload string
		want    time.Duration
	}{
		{
			name:   "header wins",
			header: "15",
			want:   15 * time.Second,
		},
		{
			name:    "structured retry info",
			payload: `{"error":{"message":"quota","details":[{"@type":"RetryInfo","retryDelay":"42s"}]}}`,
			want:    42 * time.Second,
		},
		{
			name:    "text fallback",
			payload: `{"error":{"message":"Resource exhausted. Please retry in 39.5s."}}`,
			want:    39500 * time.Millisecond,
		},
		{
			name:    "default when nothing usable",
			payload: `{"error":{"message":"quota exceeded"}}`,
			want:    defaultRetryAfter,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryAfterFrom(tc.header, []byte(tc.payload)); got != tc.want {
				t.Fatalf("retryAfterFrom = %v, want %v", got, tc.want)
			}
		})
	}
}
