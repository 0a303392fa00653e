package readable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Sample</title></head>
<body>
<nav>Home | About | Contact</nav>
<article>
  <h1>Border trade under pressure</h1>
  <p>Cross-border commerce has slowed considerably in recent months, with traders
  reporting longer delays and higher informal fees at every checkpoint along the route.</p>
  <p>Officials on both sides have acknowledged the problem but offered no timetable
  for easing the restrictions that caused it.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestExtractReturnsMainText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	extractor := NewExtractor(server.Client())
	text, err := extractor.Extract(context.Background(), server.URL+"/story")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !strings.Contains(text, "Cross-border commerce has slowed") {
		t.Fatalf("main text missing: %q", text)
	}
}

func TestExtractNon200IsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	if _, err := NewExtractor(server.Client()).Extract(context.Background(), server.URL); err == nil {
		t.Fatal("expected error on 404")
	}
}
