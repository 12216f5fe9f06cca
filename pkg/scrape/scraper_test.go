package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mikeboe/knowledge-aggregator/pkg/config"
)

func articlePage(paragraphs int) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Test Article</title></head><body>
		<nav>Home | About | Contact</nav>
		<article><h1>Test Article</h1>`)
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d with enough words to count as real article content for extraction purposes.</p>", i)
	}
	b.WriteString(`</article><footer>Copyright notice</footer></body></html>`)
	return b.String()
}

func testConfig() config.Config {
	return config.Config{
		ScrapingTimeout:  5 * time.Second,
		MinContentLength: 200,
		MaxContentLength: 10000,
		UserAgent:        "test-agent",
	}
}

func TestExtractSucceedsOnRealContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articlePage(10)))
	}))
	defer server.Close()

	s := NewScraper(testConfig(), nil)
	article, err := s.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !article.Success {
		t.Fatal("expected success")
	}
	if article.URL != server.URL {
		t.Errorf("URL = %q", article.URL)
	}
	if article.Title == "" {
		t.Error("expected a title")
	}
	if len([]rune(article.Text)) < 200 {
		t.Errorf("text too short: %d runes", len([]rune(article.Text)))
	}
	if article.Method != MethodReadability && article.Method != MethodGoquery {
		t.Errorf("unexpected method %q", article.Method)
	}
}

func TestExtractFailsOnShortContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Thin</title></head><body><p>Too short.</p></body></html>`))
	}))
	defer server.Close()

	s := NewScraper(testConfig(), nil)
	article, err := s.Extract(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for under-threshold content")
	}
	if article.Success {
		t.Error("Success should be false")
	}
	if article.Text != "" {
		t.Errorf("Text = %q, want empty", article.Text)
	}
}

func TestExtractFailsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewScraper(testConfig(), nil)
	article, err := s.Extract(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	if article.Success {
		t.Error("Success should be false")
	}
}

func TestExtractFailsOnInvalidURL(t *testing.T) {
	s := NewScraper(testConfig(), nil)
	if _, err := s.Extract(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error")
	}
}

func TestExtractAppliesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.ScrapingTimeout = 50 * time.Millisecond

	s := NewScraper(cfg, nil)
	start := time.Now()
	_, err := s.Extract(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not applied")
	}
}

func TestExtractGoqueryFallbackStripsChrome(t *testing.T) {
	page := `<html><head><title>Fallback Page</title></head><body>
		<script>var tracking = true;</script>
		<nav>Menu items here</nav>
		<div class="content">` + strings.Repeat("Real content sentence with several words in it. ", 20) + `</div>
		<footer>Footer junk</footer>
	</body></html>`

	s := NewScraper(testConfig(), nil)
	article, ok := s.extractGoquery([]byte(page), "https://example.com/page")
	if !ok {
		t.Fatal("expected fallback extraction to succeed")
	}

	if article.Method != MethodGoquery {
		t.Errorf("method = %q", article.Method)
	}
	if article.Title != "Fallback Page" {
		t.Errorf("title = %q", article.Title)
	}
	if strings.Contains(article.Text, "tracking") || strings.Contains(article.Text, "Menu items") {
		t.Errorf("script/nav content leaked into text: %q", article.Text)
	}
	if !strings.Contains(article.Text, "Real content sentence") {
		t.Errorf("content missing from text: %q", article.Text)
	}
}

func TestTruncateAddsEllipsis(t *testing.T) {
	cfg := testConfig()
	cfg.MaxContentLength = 50

	s := NewScraper(cfg, nil)
	long := strings.Repeat("abcde ", 20)
	got := s.truncate(long)
	if len([]rune(got)) != 53 {
		t.Errorf("truncated length = %d, want 50 + ellipsis", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}
}
